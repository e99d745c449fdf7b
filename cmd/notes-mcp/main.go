// Package main implements an MCP server exposing the admin notes store as tools.
package main

import (
	"context"
	"fmt"
	"os"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/infrastructure/config"
	"admin-notes-backend/infrastructure/di"

	"github.com/charmbracelet/fang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := &cobra.Command{
		Use:   "notes-mcp",
		Short: "MCP bridge for the admin notes store",
		Long: `notes-mcp is a Model Context Protocol server that lets an MCP client list,
add, update, delete and export admin notes. It speaks MCP over stdio and uses
the same configuration as the API server. Logs go to stderr.`,
		Example: `STORE_DRIVER=file STORE_PATH=data/options.yaml notes-mcp`,
		Args:    cobra.NoArgs,
		RunE:    runServer,
	}

	if err := fang.Execute(
		context.Background(),
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.EnableMetrics = false

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	if err := container.CommandBus.Send(ctx, commands.EnsureDefaultsCommand{}); err != nil {
		return fmt.Errorf("failed to ensure default notes: %w", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "notes-mcp",
		Version: version,
	}, nil)

	registerTools(server, newNoteTools(container.CommandBus, container.QueryBus, container.Logger))

	container.Logger.Info("Starting MCP server",
		zap.String("store", cfg.StoreDriver),
		zap.String("option", cfg.OptionName),
	)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}
