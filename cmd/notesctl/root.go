package main

import (
	"fmt"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/infrastructure/config"
	"admin-notes-backend/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	storeDriver string
	storePath   string
	sqliteDSN   string
	logLevel    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notesctl",
		Short: "Manage the admin notes store",
		Long: `notesctl reads and edits the admin notes collection directly through
the configured option store. It loads the same configuration as the API
server (CONFIG_FILE plus environment variables) and can mint local admin
session tokens for the HTTP API.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&storeDriver, "store", "", "Option store driver (memory, file, sqlite, dynamodb)")
	flags.StringVar(&storePath, "store-path", "", "YAML document used by the file driver")
	flags.StringVar(&sqliteDSN, "sqlite-dsn", "", "Database used by the sqlite driver")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(),
		newAddCmd(),
		newDeleteCmd(),
		newUpdateCmd(),
		newExportCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig applies the persistent flags on top of the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if sqliteDSN != "" {
		cfg.SQLiteDSN = sqliteDSN
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	// Request metrics belong to the HTTP server.
	cfg.EnableMetrics = false
	return cfg, cfg.Validate()
}

// withContainer wires the application, seeds the defaults and runs fn.
func withContainer(cmd *cobra.Command, fn func(*di.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, cleanup, err := di.InitializeContainer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	if cfg.StoreDriver == config.DriverMemory {
		container.Logger.Warn("Using the in-memory store, changes will not persist",
			zap.String("hint", "pass --store file or --store sqlite"),
		)
	}

	if err := container.CommandBus.Send(cmd.Context(), commands.EnsureDefaultsCommand{}); err != nil {
		return err
	}
	return fn(container)
}
