package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/internal/log"
)

func processCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "process <report.pdf>",
		Short: "Ingest one PDF report synchronously",
		Long: `Ingest a single PDF fund report without going through the HTTP API.

The file is copied into the upload directory, parsed, and its ledger rows
and text chunks are stored. The command exits non-zero when parsing fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(envFile, args[0])
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runProcess(envFile, path string) error {
	if !strings.HasSuffix(path, ".pdf") {
		return fmt.Errorf("only PDF files are allowed: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)

	// The queue is not needed for a one-shot run.
	client, err := fundsight.New(
		fundsight.WithConfig(cfg),
		fundsight.WithLogger(logger),
		fundsight.WithoutWorker(),
	)
	if err != nil {
		return fmt.Errorf("create fundsight client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fundsight client", "error", err)
		}
	}()

	ctx := context.Background()

	doc, err := client.Documents.Create(ctx, document.New(filepath.Base(path), path, nil))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := client.Documents.UpdateStatus(ctx, doc.ID(), document.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark document processing: %w", err)
	}

	result := client.Processor.Process(ctx, path, doc.ID(), nil)

	fmt.Printf("document %d: %s\n", doc.ID(), result.Status)
	fmt.Printf("  tables parsed: %d\n", result.TablesParsed)
	fmt.Printf("  ledger rows:   %d\n", result.RowsParsed)
	fmt.Printf("  text chunks:   %d\n", result.TextChunks)
	if result.FundID != nil {
		fmt.Printf("  fund id:       %d\n", *result.FundID)
	}
	if result.Status == document.StatusFailed {
		return fmt.Errorf("processing failed: %s", result.Error)
	}
	return nil
}
