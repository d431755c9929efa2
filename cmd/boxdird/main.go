// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for the Boxdir daemon using
// the Cobra library. It defines the root command, subcommands (serve,
// audit, maintenance, backup, restore, config), flags, and the main entry
// point for execution.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pboxnet/boxdir/internal/config"
	"github.com/pboxnet/boxdir/internal/db"
	"github.com/pboxnet/boxdir/internal/logging"
	"github.com/pboxnet/boxdir/internal/server"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

var (
	cfgFile string
	cfg     config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// newRootCmd creates and configures a new root cobra command. Tests create
// fresh instances through this function for isolation.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boxdird",
		Short: "Boxdird is the directory service for the box peer network.",
		Long: `Boxdird tracks registered usernames, the public keys currently
authorized for each user (with full revocation history), and the network
endpoints each user publishes. Peers and registration tools read this
directory to discover valid keys and reachable addresses, and push updates
describing their desired key and endpoint sets.

Running without a subcommand starts the HTTP API server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cmd, cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newMaintenanceCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is boxdir.yaml in the standard config dirs or the current directory)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "./boxdir.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("listen", ":5000", "HTTP listen address")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return cmd
}

// openStore opens the configured database backend and runs migrations.
func openStore() (db.Store, error) {
	store, err := db.New(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store (%s): %w", cfg.Database.Type, err)
	}
	return store, nil
}

func runServe() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	logging.Infof("boxdird %s starting (db=%s)", version, cfg.Database.Type)
	srv := server.New(store, version)
	return srv.ListenAndServe(cfg.Server.Listen)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the directory HTTP API server",
		Long: `Opens the configured database, applies any pending schema migrations,
and serves the directory API until the process is stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the directory audit log, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			entries, err := store.GetAllAuditLogEntries()
			if err != nil {
				return fmt.Errorf("failed to read audit log: %w", err)
			}
			for _, e := range entries {
				fmt.Printf("%s  %-22s %s\n", e.Timestamp, e.Action, e.Details)
			}
			return nil
		},
	}
}

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run engine-specific database maintenance",
		Long: `Performs maintenance appropriate to the configured engine: VACUUM and a
WAL checkpoint for SQLite, VACUUM ANALYZE for PostgreSQL, and OPTIMIZE
TABLE for MySQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunDBMaintenance(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return err
			}
			logging.Infof("maintenance for %s completed", cfg.Database.Type)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the boxdird configuration file",
	}

	var system bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the standard location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(&cfg, system)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("Wrote configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "Write the system-wide configuration instead of the user one")
	configCmd.AddCommand(initCmd)
	return configCmd
}
