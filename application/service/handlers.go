package service

import (
	"context"
	"fmt"

	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/domain/task"
	"github.com/fundsight/fundsight/internal/log"
)

// NewProcessDocumentHandler returns the handler for document ingestion
// tasks. It moves the document to processing, the only place that
// transition happens, and runs the pipeline, which persists the terminal
// status itself.
func NewProcessDocumentHandler(processor *Processor, documents document.Store, logger *log.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, t task.Task) error {
		documentID, err := t.PayloadInt64("document_id")
		if err != nil {
			return err
		}
		filePath, ok := t.Payload()["file_path"].(string)
		if !ok || filePath == "" {
			return fmt.Errorf("task payload missing file_path")
		}
		fundID, err := t.PayloadOptionalInt64("fund_id")
		if err != nil {
			return err
		}

		if err := documents.UpdateStatus(ctx, documentID, document.StatusProcessing, ""); err != nil {
			return fmt.Errorf("mark document %d processing: %w", documentID, err)
		}

		result := processor.Process(ctx, filePath, documentID, fundID)
		logger.Info("document processed",
			"document_id", documentID,
			"status", result.Status,
			"tables", result.TablesParsed,
			"rows", result.RowsParsed,
			"chunks", result.TextChunks)
		if result.Status == document.StatusFailed {
			return fmt.Errorf("processing failed: %s", result.Error)
		}
		return nil
	})
}

// NewReindexFundHandler returns the handler that clears a fund's vector
// records, used when the embedding provider changes and stored vectors no
// longer match the new dimension.
func NewReindexFundHandler(index search.Index) Handler {
	return HandlerFunc(func(ctx context.Context, t task.Task) error {
		fundID, err := t.PayloadInt64("fund_id")
		if err != nil {
			return err
		}
		return index.Clear(ctx, &fundID)
	})
}
