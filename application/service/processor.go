package service

import (
	"context"
	"fmt"

	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/domain/fund"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// ProcessResult reports one ingestion run's statistics.
type ProcessResult struct {
	DocumentID   int64
	FundID       *int64
	TablesParsed int
	RowsParsed   int
	TextChunks   int
	Status       document.ParsingStatus
	Error        string
}

// Processor runs the document ingestion pipeline: convert the PDF, resolve
// the fund from the first page, parse tables into ledger rows, and index
// text chunks.
type Processor struct {
	converter extract.Converter
	funds     fund.Store
	documents document.Store
	rows      ledger.Store
	index     search.Index
	parser    *TableParser
	logger    *log.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(
	converter extract.Converter,
	funds fund.Store,
	documents document.Store,
	rows ledger.Store,
	index search.Index,
	logger *log.Logger,
) *Processor {
	return &Processor{
		converter: converter,
		funds:     funds,
		documents: documents,
		rows:      rows,
		index:     index,
		parser:    NewTableParser(logger),
		logger:    logger,
	}
}

// Process ingests one uploaded report. It never returns an error: any
// failure lands in the result as a failed status, and the document's final
// status is persisted in a separate step whose own failure is only logged.
//
// fundID is the uploader's optional claim; it stands in the result only
// until the report header resolves the owning fund, which replaces it
// (with nil when the header yields nothing).
func (p *Processor) Process(ctx context.Context, filePath string, documentID int64, fundID *int64) ProcessResult {
	result := ProcessResult{DocumentID: documentID, FundID: fundID, Status: document.StatusCompleted}

	if err := p.run(ctx, filePath, documentID, &result); err != nil {
		p.logger.Error("document processing failed", "document_id", documentID, "error", err)
		result.Status = document.StatusFailed
		result.Error = err.Error()
	}

	if err := p.documents.UpdateStatus(ctx, documentID, result.Status, result.Error); err != nil {
		p.logger.Error("failed to persist document status",
			"document_id", documentID, "status", result.Status, "error", err)
	}
	return result
}

func (p *Processor) run(ctx context.Context, filePath string, documentID int64, result *ProcessResult) error {
	converted, err := p.converter.Convert(ctx, filePath)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}

	// The owning fund comes from the report itself, not the upload request.
	var fundID *int64
	if header := ParseFundHeader(converted.FirstPageText()); !header.IsEmpty() {
		resolved, err := p.getOrCreateFund(ctx, header)
		if err != nil {
			return err
		}
		id := resolved.ID()
		fundID = &id
		if err := p.documents.SetFund(ctx, documentID, id); err != nil {
			return err
		}
	}
	result.FundID = fundID

	var rowFundID int64
	if fundID != nil {
		rowFundID = *fundID
	}
	for _, table := range converted.Tables {
		parsed := p.parser.Parse(rowFundID, table.Grid())
		if err := p.rows.Insert(ctx, parsed.Rows); err != nil {
			return fmt.Errorf("insert ledger rows: %w", err)
		}
		result.TablesParsed++
		result.RowsParsed += len(parsed.Rows)
	}

	for _, chunk := range ChunkText(converted.Texts) {
		metadata := search.Metadata{
			"document_id": documentID,
			"page":        chunk.Page,
		}
		if fundID != nil {
			metadata["fund_id"] = *fundID
		}
		if err := p.index.Add(ctx, chunk.Text, metadata); err != nil {
			return fmt.Errorf("index text chunk: %w", err)
		}
		result.TextChunks++
	}
	return nil
}

// getOrCreateFund looks a fund up by the header's name and creates it when
// absent. Existing funds are never updated from later reports. There is no
// uniqueness guard, so two concurrent first-uploads of the same fund can
// both create it.
func (p *Processor) getOrCreateFund(ctx context.Context, header fund.Header) (fund.Fund, error) {
	existing, err := p.funds.FindByName(ctx, header.Name)
	if err == nil {
		return existing, nil
	}
	if !database.IsNotFound(err) {
		return fund.Fund{}, fmt.Errorf("look up fund %q: %w", header.Name, err)
	}
	created, err := p.funds.Create(ctx, fund.New(header.Name, header.GPName, "", header.VintageYear, header.CommittedSize))
	if err != nil {
		return fund.Fund{}, fmt.Errorf("create fund %q: %w", header.Name, err)
	}
	p.logger.Info("created fund from report header",
		"fund_id", created.ID(), "name", created.Name(), "vintage_year", created.VintageYear())
	return created, nil
}
