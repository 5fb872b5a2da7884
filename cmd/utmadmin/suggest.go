package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Totarae/UTMBuilder/internal/app"
	"github.com/Totarae/UTMBuilder/internal/suggest"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest <field> [search]",
		Short: "List previously used values of a UTM field",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			search := ""
			if len(args) == 2 {
				search = args[1]
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Suggest.Suggest(cmd.Context(), args[0], search, limit)
				if err != nil {
					return err
				}
				for _, v := range res.Values {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				if res.HasMore {
					fmt.Fprintln(cmd.OutOrStdout(), "...")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", suggest.DefaultLimit, "maximum number of values")
	return cmd
}
