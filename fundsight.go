// Package fundsight provides a library for analysing private equity fund
// reports. It ingests PDF quarterly reports, extracts capital call,
// distribution, and adjustment tables into a ledger, indexes the report
// text for semantic search, and answers questions over the result with
// fund performance metrics (DPI, TVPI, IRR) where the question calls for
// them.
//
// Basic usage:
//
//	client, err := fundsight.New(
//	    fundsight.WithConfig(cfg),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	doc, err := client.Documents.Create(ctx, document.New("q3.pdf", path, nil))
//	err = client.Queue.EnqueueProcessDocument(ctx, doc.ID(), path, nil)
//
//	resp, err := client.Query.Process(ctx, "What is the current DPI?", &fundID)
package fundsight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/fundsight/fundsight/application/service"
	domainsearch "github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/domain/task"
	"github.com/fundsight/fundsight/infrastructure/extractor"
	"github.com/fundsight/fundsight/infrastructure/persistence"
	"github.com/fundsight/fundsight/infrastructure/provider"
	"github.com/fundsight/fundsight/infrastructure/search"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// Version is the release version reported by the API and the CLI.
const Version = "1.0.0"

// ErrClientClosed is returned by Close when the client is already closed.
var ErrClientClosed = errors.New("fundsight client is closed")

// Client is the main entry point for the fundsight library. The background
// worker starts automatically on creation unless WithoutWorker is given.
//
// Access resources via struct fields:
//
//	client.Documents.List(ctx)
//	client.Funds.Get(ctx, id)
//	client.Query.Process(ctx, "question", nil)
type Client struct {
	// Public resource fields (direct service access)
	Documents *persistence.DocumentStore
	Funds     *persistence.FundStore
	Rows      *persistence.LedgerStore
	Queue     *service.Queue
	Query     *service.QueryEngine
	Metrics   *service.MetricsCalculator
	Processor *service.Processor
	Index     domainsearch.Index

	db       database.Database
	workers  []*service.Worker
	registry *service.Registry
	cfg      config.AppConfig
	logger   *log.Logger
	closers  []io.Closer
	closed   atomic.Bool
}

// New creates a new Client with the given options. The database schema is
// migrated and the background worker is started automatically.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}
	app := cc.app

	logger := cc.logger
	if logger == nil {
		logger = log.NewLogger(app)
	}

	if err := os.MkdirAll(app.UploadDir(), 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}

	ctx := context.Background()

	db, err := database.NewDatabase(ctx, app.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.Migrate(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), errClose)
	}

	embedder := cc.embedder
	if embedder == nil {
		embedder = provider.NewEmbedder(app, logger)
	}
	generator := cc.generator
	if generator == nil {
		generator = provider.NewTextGenerator(app, logger)
	}

	index, err := search.NewIndex(ctx, db, embedder, logger, embedder.Dimension())
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("vector index: %w", err), errClose)
	}

	converter := cc.converter
	var closers []io.Closer
	if converter == nil {
		built, err := extractor.NewConverter(app.Extractor(), logger)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("pdf converter: %w", err), errClose)
		}
		converter = built
		if closer, ok := converter.(io.Closer); ok {
			closers = append(closers, closer)
		}
	}

	funds := persistence.NewFundStore(db)
	documents := persistence.NewDocumentStore(db)
	rows := persistence.NewLedgerStore(db)
	tasks := persistence.NewTaskStore(db)

	processor := service.NewProcessor(converter, funds, documents, rows, index, logger)
	metrics := service.NewMetricsCalculator(rows)
	queue := service.NewQueue(tasks, logger)

	classifier, err := buildClassifier(app, generator)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("intent rules: %w", err), errClose)
	}
	engine := service.NewQueryEngine(classifier, index, metrics, generator, app.TopK(), logger)

	registry := service.NewRegistry()
	registry.Register(task.OperationProcessDocument, service.NewProcessDocumentHandler(processor, documents, logger))
	registry.Register(task.OperationReindexFund, service.NewReindexFundHandler(index))

	workerCount := app.WorkerCount()
	if workerCount < 1 {
		workerCount = 1
	}
	workers := make([]*service.Worker, 0, workerCount)
	for range workerCount {
		worker := service.NewWorker(tasks, registry, logger)
		if app.WorkerPollPeriod() > 0 {
			worker.WithPollPeriod(app.WorkerPollPeriod())
		}
		workers = append(workers, worker)
	}

	client := &Client{
		Documents: documents,
		Funds:     funds,
		Rows:      rows,
		Queue:     queue,
		Query:     engine,
		Metrics:   metrics,
		Processor: processor,
		Index:     index,
		db:        db,
		workers:   workers,
		registry:  registry,
		cfg:       app,
		logger:    logger,
		closers:   closers,
	}

	if cc.startWorker {
		for _, worker := range workers {
			worker.Start(ctx)
		}
	}

	return client, nil
}

// buildClassifier assembles the intent classifier: rules from the
// configured YAML file when present, defaults otherwise, wrapped by the
// LLM classifier when a chat endpoint is configured.
func buildClassifier(app config.AppConfig, generator provider.TextGenerator) (service.Classifier, error) {
	rules := service.NewRuleClassifier()
	if path := app.IntentRulesPath(); path != "" {
		loaded, err := service.NewRuleClassifierFromFile(path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	if app.ChatEndpoint().IsConfigured() {
		return service.NewLLMClassifier(generator, rules), nil
	}
	return rules, nil
}

// Close stops the background worker and releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	for _, worker := range c.workers {
		worker.Stop()
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", "error", err)
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("fundsight client closed")
	return nil
}

// Config returns the client's application configuration.
func (c *Client) Config() config.AppConfig {
	return c.cfg
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger {
	return c.logger
}
