package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Totarae/UTMBuilder/internal/app"
	"github.com/Totarae/UTMBuilder/internal/database"
)

func newDBCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "database commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			db, err := app.OpenDB(cmd.Context(), cfg, opts.logger())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			version, dirty, err := database.NewInstaller(db).Marker(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	})
	return cmd
}
