package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/app"
	"github.com/Totarae/UTMBuilder/internal/config"
)

type rootOptions struct {
	dsn     string
	file    string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "utmadmin",
		Short:        "UTM metadata administration tool",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.dsn, "dsn", "d", "", "PostgreSQL DSN (overrides DATABASE_DSN)")
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "SQLite database file (overrides FILE_STORAGE_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newDBCmd(opts), newSettingsCmd(opts), newMetaCmd(opts), newSuggestCmd(opts))
	root.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	root.CompletionOptions.HiddenDefaultCmd = true
	return root
}

// config читает окружение и применяет флаги командной строки.
func (o *rootOptions) config() (*config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}
	if o.file != "" {
		cfg.FileStoragePath = o.file
	}
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = config.ModeDatabase
	case cfg.FileStoragePath != "":
		cfg.Mode = config.ModeFile
	default:
		cfg.Mode = config.ModeInMemory
	}
	return cfg, nil
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// withApp собирает сервис, вызывает fn и закрывает соединения.
func (o *rootOptions) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, o.logger())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
