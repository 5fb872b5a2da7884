package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Totarae/UTMBuilder/internal/app"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "metadata toggle",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print whether UTM metadata is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "enabled=%t\n", a.Settings.Enabled(cmd.Context()))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <true|false>",
		Short: "Enable or disable UTM metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Settings.SetEnabled(cmd.Context(), enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enabled=%t\n", enabled)
				return nil
			})
		},
	})
	return cmd
}
