package search_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/infrastructure/search"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
	"github.com/fundsight/fundsight/internal/testdb"
)

// stubEmbedder maps known texts to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float64{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
}

// newSQLiteIndex builds the index the way production does: migrated base
// schema plus the index's own embedding column.
func newSQLiteIndex(t *testing.T, embedder domainsearch.Embedder) *search.SQLiteIndex {
	t.Helper()
	db := testdb.New(t)
	index := search.NewSQLiteIndex(db, embedder, testLogger())
	require.NoError(t, index.EnsureSchema(context.Background()))
	return index
}

func TestSQLiteIndex_AddAndSearchRanksBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"capital call of one million": {1, 0, 0},
		"distribution in december":    {0, 1, 0},
		"query about capital calls":   {0.9, 0.1, 0},
	}}
	index := newSQLiteIndex(t, embedder)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "capital call of one million", domainsearch.Metadata{"fund_id": int64(1), "page": 2}))
	require.NoError(t, index.Add(ctx, "distribution in december", domainsearch.Metadata{"fund_id": int64(1)}))

	results := index.SimilaritySearch(ctx, "query about capital calls", 5, domainsearch.NewFilter())
	require.Len(t, results, 2)
	assert.Equal(t, "capital call of one million", results[0].Content())
	assert.Greater(t, results[0].Score(), results[1].Score())
}

func TestSQLiteIndex_FundFilter(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{}}
	index := newSQLiteIndex(t, embedder)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "fund one text", domainsearch.Metadata{"fund_id": int64(1)}))
	require.NoError(t, index.Add(ctx, "fund two text", domainsearch.Metadata{"fund_id": int64(2)}))

	results := index.SimilaritySearch(ctx, "anything", 5, domainsearch.NewFilter().WithFundID(2))
	require.Len(t, results, 1)
	assert.Equal(t, "fund two text", results[0].Content())
}

func TestSQLiteIndex_SearchCapsAtK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{
		"needle": {1, 0, 0},
	}}
	index := newSQLiteIndex(t, embedder)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, index.Add(ctx, fmt.Sprintf("haystack %d", i), nil))
	}
	require.NoError(t, index.Add(ctx, "needle", nil))

	results := index.SimilaritySearch(ctx, "needle", 5, domainsearch.NewFilter())
	require.Len(t, results, 5)
	assert.Equal(t, "needle", results[0].Content())
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score(), results[i].Score())
	}
}

func TestSQLiteIndex_SearchFailureYieldsEmpty(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("provider down")}
	index := newSQLiteIndex(t, embedder)

	results := index.SimilaritySearch(context.Background(), "anything", 5, domainsearch.NewFilter())
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSQLiteIndex_AddPropagatesEmbedderError(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("provider down")}
	index := newSQLiteIndex(t, embedder)

	err := index.Add(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestSQLiteIndex_ClearByFund(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float64{}}
	index := newSQLiteIndex(t, embedder)
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "fund one text", domainsearch.Metadata{"fund_id": int64(1)}))
	require.NoError(t, index.Add(ctx, "fund two text", domainsearch.Metadata{"fund_id": int64(2)}))

	fundID := int64(1)
	require.NoError(t, index.Clear(ctx, &fundID))

	remaining := index.SimilaritySearch(ctx, "anything", 10, domainsearch.NewFilter())
	require.Len(t, remaining, 1)
	assert.Equal(t, "fund two text", remaining[0].Content())

	require.NoError(t, index.Clear(ctx, nil))
	assert.Empty(t, index.SimilaritySearch(ctx, "anything", 10, domainsearch.NewFilter()))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, search.CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, search.CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, search.CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Zero(t, search.CosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Zero(t, search.CosineSimilarity(nil, nil))
}

func TestPgVectorLiteralRoundTrip(t *testing.T) {
	v := search.PgVector{0.25, -1, 3.5}
	literal, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "[0.25,-1,3.5]", literal)

	var parsed search.PgVector
	require.NoError(t, parsed.Scan(literal))
	assert.Equal(t, v, parsed)
}
