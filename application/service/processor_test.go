package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/application/service"
	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/domain/search"
	"github.com/fundsight/fundsight/infrastructure/persistence"
	"github.com/fundsight/fundsight/internal/testdb"
)

// fakeConverter serves a canned conversion.
type fakeConverter struct {
	converted extract.Converted
	err       error
}

func (f *fakeConverter) Convert(ctx context.Context, filePath string) (extract.Converted, error) {
	return f.converted, f.err
}

// recordingIndex captures added chunks.
type recordingIndex struct {
	added []search.Metadata
	texts []string
	fail  bool
}

func (r *recordingIndex) Add(ctx context.Context, content string, metadata search.Metadata) error {
	if r.fail {
		return errors.New("index unavailable")
	}
	r.texts = append(r.texts, content)
	r.added = append(r.added, metadata)
	return nil
}

func (r *recordingIndex) SimilaritySearch(ctx context.Context, q string, k int, filter search.Filter) []search.Result {
	return nil
}

func (r *recordingIndex) Clear(ctx context.Context, fundID *int64) error { return nil }

func reportFixture() extract.Converted {
	return extract.Converted{
		Pages: []int{1, 2},
		Texts: []extract.PageText{
			{PageNumber: 1, Text: "Fund Name: Growth Fund III\nGP: Acme Capital\nVintage Year: 2021\nFund Size: $250,000,000\n\nExecutive summary paragraph."},
			{PageNumber: 2, Text: "Portfolio commentary."},
		},
		Tables: []extract.Table{
			{
				PageNumber: 2,
				Cells: []extract.Cell{
					{RowOffset: 0, ColOffset: 0, Text: "Date", ColumnHeader: true},
					{RowOffset: 0, ColOffset: 1, Text: "Call Number", ColumnHeader: true},
					{RowOffset: 0, ColOffset: 2, Text: "Amount", ColumnHeader: true},
					{RowOffset: 1, ColOffset: 0, Text: "2023-01-15"},
					{RowOffset: 1, ColOffset: 1, Text: "Call 1"},
					{RowOffset: 1, ColOffset: 2, Text: "$1,000,000"},
				},
			},
		},
	}
}

type processorEnv struct {
	processor *service.Processor
	funds     *persistence.FundStore
	documents *persistence.DocumentStore
	rows      *persistence.LedgerStore
	index     *recordingIndex
}

func newProcessorEnv(t *testing.T, converter extract.Converter, index *recordingIndex) processorEnv {
	db := testdb.New(t)
	funds := persistence.NewFundStore(db)
	documents := persistence.NewDocumentStore(db)
	rows := persistence.NewLedgerStore(db)
	return processorEnv{
		processor: service.NewProcessor(converter, funds, documents, rows, index, testLogger()),
		funds:     funds,
		documents: documents,
		rows:      rows,
		index:     index,
	}
}

func createProcessingDocument(t *testing.T, documents *persistence.DocumentStore) document.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := documents.Create(ctx, document.New("report.pdf", "/data/uploads/report.pdf", nil))
	require.NoError(t, err)
	require.NoError(t, documents.UpdateStatus(ctx, doc.ID(), document.StatusProcessing, ""))
	return doc
}

func TestProcessor_FullRun(t *testing.T) {
	index := &recordingIndex{}
	env := newProcessorEnv(t, &fakeConverter{converted: reportFixture()}, index)
	ctx := context.Background()
	doc := createProcessingDocument(t, env.documents)

	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), nil)

	assert.Equal(t, document.StatusCompleted, result.Status)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, result.TablesParsed)
	assert.Equal(t, 1, result.RowsParsed)
	assert.Equal(t, 3, result.TextChunks)
	require.NotNil(t, result.FundID)

	// fund created from the header
	f, err := env.funds.FindByName(ctx, "Growth Fund III")
	require.NoError(t, err)
	assert.Equal(t, "Acme Capital", f.GPName())
	assert.Equal(t, 2021, f.VintageYear())

	// document attached to the fund and marked completed
	updated, err := env.documents.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, document.StatusCompleted, updated.Status())
	require.NotNil(t, updated.FundID())
	assert.Equal(t, f.ID(), *updated.FundID())

	// ledger row landed in the capital calls table
	calls, err := env.rows.FindByFund(ctx, f.ID(), ledger.KindCapitalCall)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, 1_000_000.0, calls[0].Amount())

	// chunks carry document, fund, and page metadata
	require.Len(t, index.added, 3)
	assert.Equal(t, doc.ID(), index.added[0]["document_id"])
	assert.Equal(t, f.ID(), index.added[0]["fund_id"])
	assert.Equal(t, 1, index.added[0]["page"])
}

func TestProcessor_SecondReportReusesFundWithoutMerging(t *testing.T) {
	index := &recordingIndex{}
	converter := &fakeConverter{converted: reportFixture()}
	env := newProcessorEnv(t, converter, index)
	ctx := context.Background()

	first := createProcessingDocument(t, env.documents)
	env.processor.Process(ctx, first.FilePath(), first.ID(), nil)

	// second report names the same fund but different attributes
	second := reportFixture()
	second.Texts[0].Text = "Fund Name: Growth Fund III\nGP: Different Partners\nVintage Year: 1999"
	converter.converted = second

	doc := createProcessingDocument(t, env.documents)
	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), nil)
	assert.Equal(t, document.StatusCompleted, result.Status)

	funds, err := env.funds.List(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 1, "existing fund reused, not duplicated")
	assert.Equal(t, "Acme Capital", funds[0].GPName(), "existing fund attributes never merged")
}

func TestProcessor_NoHeaderLeavesFundUnset(t *testing.T) {
	converted := reportFixture()
	converted.Texts[0].Text = "A report with no fund header at all."
	index := &recordingIndex{}
	env := newProcessorEnv(t, &fakeConverter{converted: converted}, index)
	ctx := context.Background()
	doc := createProcessingDocument(t, env.documents)

	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), nil)
	assert.Equal(t, document.StatusCompleted, result.Status)
	assert.Nil(t, result.FundID)

	funds, err := env.funds.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, funds)

	updated, err := env.documents.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.Nil(t, updated.FundID())

	// chunks carry no fund metadata
	require.NotEmpty(t, index.added)
	_, hasFund := index.added[0]["fund_id"]
	assert.False(t, hasFund)
}

func TestProcessor_HeaderOverridesCallerFund(t *testing.T) {
	index := &recordingIndex{}
	env := newProcessorEnv(t, &fakeConverter{converted: reportFixture()}, index)
	ctx := context.Background()
	doc := createProcessingDocument(t, env.documents)

	claimed := int64(999)
	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), &claimed)

	assert.Equal(t, document.StatusCompleted, result.Status)
	require.NotNil(t, result.FundID)
	assert.NotEqual(t, claimed, *result.FundID, "resolved fund replaces the uploader's claim")

	f, err := env.funds.FindByName(ctx, "Growth Fund III")
	require.NoError(t, err)
	assert.Equal(t, f.ID(), *result.FundID)
}

func TestProcessor_ConverterFailureMarksDocumentFailed(t *testing.T) {
	env := newProcessorEnv(t, &fakeConverter{err: errors.New("corrupt pdf")}, &recordingIndex{})
	ctx := context.Background()
	doc := createProcessingDocument(t, env.documents)

	claimed := int64(3)
	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), &claimed)
	assert.Equal(t, document.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "corrupt pdf")
	require.NotNil(t, result.FundID)
	assert.Equal(t, claimed, *result.FundID, "claimed fund stands when resolution never ran")

	updated, err := env.documents.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, document.StatusFailed, updated.Status())
	assert.Contains(t, updated.ErrorMessage(), "corrupt pdf")
}

func TestProcessor_IndexFailureMarksDocumentFailed(t *testing.T) {
	env := newProcessorEnv(t, &fakeConverter{converted: reportFixture()}, &recordingIndex{fail: true})
	ctx := context.Background()
	doc := createProcessingDocument(t, env.documents)

	result := env.processor.Process(ctx, doc.FilePath(), doc.ID(), nil)
	assert.Equal(t, document.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "index unavailable")
}
