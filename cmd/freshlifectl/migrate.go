package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"freshlife/internal/cli"
	"freshlife/internal/config"
	"freshlife/internal/docstore/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				cfg, err := cli.LoadAndValidateConfig()
				if err != nil {
					return err
				}
				if cfg.DataBackend != config.BackendSQLite {
					return fmt.Errorf("migrate needs the sqlite backend, configured backend is %q", cfg.DataBackend)
				}
				dbPath = cfg.SQLiteDBPath
			}
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			if err := sqlite.RunMigrations(dbPath); err != nil {
				return err
			}
			version, dirty, err := sqlite.SchemaVersion(dbPath)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"path": dbPath, "version": version, "dirty": dirty}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (dirty=%t) in %s\n", version, dirty, dbPath)
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from configuration)")
	return cmd
}
