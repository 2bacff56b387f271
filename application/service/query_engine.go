package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/infrastructure/provider"
	"github.com/fundsight/fundsight/internal/log"
)

const answerSystemPrompt = `You are an analyst assistant for private equity fund reports.
Answer the user's question using the provided context and metrics.
If the context does not contain the answer, say so instead of guessing.`

// QueryEngine answers questions over ingested fund reports. Retrieval runs
// for every question; metrics are computed only for calculation questions
// scoped to a fund.
type QueryEngine struct {
	classifier Classifier
	index      search.Index
	metrics    *MetricsCalculator
	generator  provider.TextGenerator
	topK       int
	logger     *log.Logger
}

// NewQueryEngine creates a QueryEngine.
func NewQueryEngine(
	classifier Classifier,
	index search.Index,
	metrics *MetricsCalculator,
	generator provider.TextGenerator,
	topK int,
	logger *log.Logger,
) *QueryEngine {
	return &QueryEngine{
		classifier: classifier,
		index:      index,
		metrics:    metrics,
		generator:  generator,
		topK:       topK,
		logger:     logger,
	}
}

// Process answers one question. Empty questions are processed like any
// other. The fund filter is applied only when fundID is non-nil; with no
// fund there is no filter at all.
func (e *QueryEngine) Process(ctx context.Context, question string, fundID *int64) (query.Response, error) {
	intent, err := e.classifier.Classify(ctx, question)
	if err != nil {
		e.logger.Warn("intent classification failed, treating as general", "error", err)
		intent = query.IntentGeneral
	}

	var (
		results     []search.Result
		fundMetrics map[string]float64
	)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		filter := search.NewFilter()
		if fundID != nil {
			filter = filter.WithFundID(*fundID)
		}
		results = e.index.SimilaritySearch(groupCtx, question, e.topK, filter)
		return nil
	})

	if intent == query.IntentCalculation && fundID != nil {
		group.Go(func() error {
			m, err := e.metrics.CalculateAll(groupCtx, *fundID)
			if err != nil {
				e.logger.Warn("metrics calculation failed", "fund_id", *fundID, "error", err)
				return nil
			}
			fundMetrics = m
			return nil
		})
	}
	_ = group.Wait()

	answer, err := e.compose(ctx, question, results, fundMetrics)
	if err != nil {
		return query.Response{}, err
	}

	sources := make([]query.Source, len(results))
	for i, r := range results {
		sources[i] = query.Source{Content: r.Content(), Metadata: r.Metadata(), Score: r.Score()}
	}
	return query.NewResponse(answer, intent, sources, fundMetrics), nil
}

func (e *QueryEngine) compose(ctx context.Context, question string, results []search.Result, metrics map[string]float64) (string, error) {
	var prompt strings.Builder
	if len(results) > 0 {
		prompt.WriteString("Context from fund documents:\n")
		for _, r := range results {
			prompt.WriteString("- ")
			prompt.WriteString(r.Content())
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}
	if len(metrics) > 0 {
		prompt.WriteString("Computed fund metrics:\n")
		for _, name := range []string{"DPI", "TVPI", "IRR"} {
			if v, ok := metrics[name]; ok {
				fmt.Fprintf(&prompt, "- %s: %.4f\n", name, v)
			}
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(question)

	resp, err := e.generator.Generate(ctx, provider.ChatRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: answerSystemPrompt},
			{Role: provider.RoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return resp.Content, nil
}
