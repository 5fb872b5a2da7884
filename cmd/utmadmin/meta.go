package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Totarae/UTMBuilder/internal/app"
	"github.com/Totarae/UTMBuilder/internal/metadata"
	"github.com/Totarae/UTMBuilder/internal/storage"
)

func newMetaCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "stored link metadata",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <keyword>",
		Short: "Print metadata of a link as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := metadata.SanitizeKeyword(args[0]); err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				rec, ok := a.Meta.Get(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("no metadata for %q", args[0])
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <keyword>",
		Short: "Remove metadata of a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := metadata.SanitizeKeyword(args[0]); err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				a.Meta.Delete(cmd.Context(), args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Dump all metadata to a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				n, err := storage.ExportFile(cmd.Context(), a.MetaRepo, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d records\n", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load metadata from a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				n, err := storage.ImportFile(cmd.Context(), args[0], a.Meta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", n)
				return nil
			})
		},
	})
	return cmd
}
