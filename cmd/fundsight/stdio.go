package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/internal/log"
	"github.com/fundsight/fundsight/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to ask questions over ingested fund reports and
compute fund performance metrics. Configuration is loaded from environment
variables and .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// stdout carries the MCP protocol, so logging goes to stderr.
	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	logger.Info("starting MCP server",
		"version", version,
		"data_dir", cfg.DataDir(),
	)

	client, err := fundsight.New(
		fundsight.WithConfig(cfg),
		fundsight.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create fundsight client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fundsight client", "error", err)
		}
	}()

	mcpServer := mcp.NewServer(client.Query, client.Metrics, fundsight.Version, logger)

	return mcpServer.ServeStdio()
}
