package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/application/service"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/infrastructure/provider"
)

// fakeIndex records the last search and serves canned results.
type fakeIndex struct {
	results    []search.Result
	lastQuery  string
	lastK      int
	lastFilter search.Filter
	searches   int
}

func (f *fakeIndex) Add(ctx context.Context, content string, metadata search.Metadata) error {
	return nil
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, q string, k int, filter search.Filter) []search.Result {
	f.lastQuery = q
	f.lastK = k
	f.lastFilter = filter
	f.searches++
	return f.results
}

func (f *fakeIndex) Clear(ctx context.Context, fundID *int64) error { return nil }

// fakeLedger serves canned rows and counts lookups.
type fakeLedger struct {
	rows    map[ledger.Kind][]ledger.Row
	lookups int
}

func (f *fakeLedger) Insert(ctx context.Context, rows []ledger.Row) error { return nil }

func (f *fakeLedger) FindByFund(ctx context.Context, fundID int64, kind ledger.Kind) ([]ledger.Row, error) {
	f.lookups++
	return f.rows[kind], nil
}

// fakeGenerator returns a fixed answer.
type fakeGenerator struct {
	answer string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	f.calls++
	return provider.ChatResponse{Content: f.answer}, nil
}

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newEngine(index *fakeIndex, rows ledger.Store, gen provider.TextGenerator) *service.QueryEngine {
	return service.NewQueryEngine(
		service.NewRuleClassifier(),
		index,
		service.NewMetricsCalculator(rows),
		gen,
		5,
		testLogger(),
	)
}

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		q    string
		want query.Intent
	}{
		{"How is the DPI for this fund?", query.IntentCalculation},
		{"What does IRR mean?", query.IntentDefinition},
		{"Show me all documents related to this fund", query.IntentRetrieval},
		{"Tell me about this fund", query.IntentGeneral},
	}
	classifier := service.NewRuleClassifier()
	for _, tt := range tests {
		got, err := classifier.Classify(context.Background(), tt.q)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "query: %s", tt.q)
	}
}

func TestQueryEngine_CalculationWithFundComputesMetrics(t *testing.T) {
	index := &fakeIndex{results: []search.Result{
		search.NewResult(1, nil, nil, "doc content 1", nil, 0.95),
		search.NewResult(2, nil, nil, "doc content 2", nil, 0.90),
	}}
	rows := &fakeLedger{rows: map[ledger.Kind][]ledger.Row{
		ledger.KindCapitalCall: {
			ledger.NewRow(123, ledger.KindCapitalCall, date(2020, 1, 1), "Call 1", 1000, false, ""),
		},
		ledger.KindDistribution: {
			ledger.NewRow(123, ledger.KindDistribution, date(2023, 1, 1), "RoC", 1250, false, ""),
		},
	}}
	gen := &fakeGenerator{answer: "This is a mock response."}
	engine := newEngine(index, rows, gen)

	fundID := int64(123)
	resp, err := engine.Process(context.Background(), "What is the current DPI for this fund?", &fundID)
	require.NoError(t, err)

	assert.Equal(t, "This is a mock response.", resp.Answer())
	assert.Equal(t, query.IntentCalculation, resp.Intent())
	require.Len(t, resp.Sources(), 2)
	assert.Equal(t, "doc content 1", resp.Sources()[0].Content)

	require.NotNil(t, resp.Metrics())
	assert.InDelta(t, 1.25, resp.Metrics()["DPI"], 1e-9)

	// retrieval ran once, scoped to the fund, with the configured top-k
	assert.Equal(t, 1, index.searches)
	assert.Equal(t, 5, index.lastK)
	require.NotNil(t, index.lastFilter.FundID())
	assert.Equal(t, fundID, *index.lastFilter.FundID())
}

func TestQueryEngine_CalculationWithoutFundSkipsMetrics(t *testing.T) {
	index := &fakeIndex{}
	rows := &fakeLedger{}
	gen := &fakeGenerator{answer: "This is a mock response."}
	engine := newEngine(index, rows, gen)

	resp, err := engine.Process(context.Background(), "What is the current DPI?", nil)
	require.NoError(t, err)

	assert.Equal(t, "This is a mock response.", resp.Answer())
	assert.Nil(t, resp.Metrics())
	assert.Zero(t, rows.lookups)
	assert.True(t, index.lastFilter.IsEmpty(), "no fund means no filter at all")
}

func TestQueryEngine_NonCalculationIntentSkipsMetrics(t *testing.T) {
	index := &fakeIndex{}
	rows := &fakeLedger{}
	engine := newEngine(index, rows, &fakeGenerator{answer: "ok"})

	fundID := int64(7)
	resp, err := engine.Process(context.Background(), "Tell me about this fund", &fundID)
	require.NoError(t, err)
	assert.Nil(t, resp.Metrics())
	assert.Zero(t, rows.lookups)
	require.NotNil(t, index.lastFilter.FundID())
}

func TestQueryEngine_EmptyQueryProcessedNormally(t *testing.T) {
	index := &fakeIndex{}
	engine := newEngine(index, &fakeLedger{}, &fakeGenerator{answer: "This is a mock response."})

	resp, err := engine.Process(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "This is a mock response.", resp.Answer())
	assert.Equal(t, 1, index.searches)
}
