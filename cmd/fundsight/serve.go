package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/infrastructure/api"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8000)
  DATA_DIR                     Data directory (default: ~/.fundsight)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/fundsight.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  TOP_K_RESULTS                Retrieval depth for question answering (default: 5)
  WORKER_COUNT                 Background processing workers (default: 1)
  CORS_ORIGINS                 Comma-separated CORS origins (default: *)
  INTENT_RULES_PATH            Optional YAML file overriding intent keywords

  EXTRACTOR_DOCLING_URL        docling-serve base URL; without it a text-only
                               pdfium extractor is used and tables are skipped
  EXTRACTOR_OCR                Run OCR during conversion (default: false)
  EXTRACTOR_TABLE_STRUCTURE    Detect table structure (default: true)

  EMBEDDING_ENDPOINT_*         Embedding AI service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)

  CHAT_ENDPOINT_*              Chat completion service configuration
    (same fields as EMBEDDING_ENDPOINT)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	logger.Info("starting fundsight",
		"version", version,
		"addr", cfg.Addr(),
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

	apiServer := api.NewAPIServer(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
