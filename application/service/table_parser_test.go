package service_test

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/application/service"
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
}

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    ledger.Kind
	}{
		{"call number wins", []string{"Date", "Call Number", "Amount"}, ledger.KindCapitalCall},
		{"call number wins over recallable", []string{"Call Number", "Type", "Amount", "Recallable"}, ledger.KindCapitalCall},
		{"type amount recallable", []string{"Date", "Type", "Amount", "Recallable", "Description"}, ledger.KindDistribution},
		{"type amount without recallable", []string{"Date", "Type", "Amount", "Description"}, ledger.KindAdjustment},
		{"case insensitive", []string{"DATE", "TYPE", "AMOUNT", "RECALLABLE"}, ledger.KindDistribution},
		{"substring match", []string{"Distribution Type", "Gross Amount", "Recallable?"}, ledger.KindDistribution},
		{"unknown headers fall back", []string{"Foo", "Bar"}, ledger.KindAdjustment},
		{"no headers fall back", nil, ledger.KindAdjustment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ClassifyTable(tt.headers))
		})
	}
}

func TestTableParser_CapitalCallMapping(t *testing.T) {
	parser := service.NewTableParser(testLogger())
	table := extract.ParsedTable{
		Headers: []string{"Date", "Call Number", "Amount", "Description"},
		Rows: [][]string{
			{"2023-01-15", "Call 1", "$1,000,000.00", "Initial drawdown"},
		},
	}

	result := parser.Parse(42, table)
	assert.Equal(t, ledger.KindCapitalCall, result.Kind)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, int64(42), row.FundID())
	require.NotNil(t, row.Date())
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *row.Date())
	assert.Equal(t, "Call 1", row.Category())
	assert.Equal(t, 1_000_000.0, row.Amount())
	assert.Equal(t, "Initial drawdown", row.Description())
	assert.False(t, row.Flag())
}

func TestTableParser_RowColumnCountMismatchSkipped(t *testing.T) {
	parser := service.NewTableParser(testLogger())
	table := extract.ParsedTable{
		Headers: []string{"Date", "Call Number", "Amount"},
		Rows: [][]string{
			{"2023-01-15", "Call 1", "100", "extra cell"},
			{"2023-02-15", "Call 2"},
			{"2023-03-15", "Call 3", "300"},
		},
	}

	result := parser.Parse(1, table)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Call 3", result.Rows[0].Category())
}

func TestTableParser_DistributionMapping(t *testing.T) {
	parser := service.NewTableParser(testLogger())
	table := extract.ParsedTable{
		Headers: []string{"Date", "Type", "Amount", "Recallable", "Description"},
		Rows: [][]string{
			{"2023-06-30", "Return of Capital", "($500,000)", " Yes ", "Q2 distribution"},
			{"2023-09-30", "Income", "250000", "No", "Q3 distribution"},
		},
	}

	result := parser.Parse(1, table)
	assert.Equal(t, ledger.KindDistribution, result.Kind)
	require.Len(t, result.Rows, 2)
	assert.True(t, result.Rows[0].Flag())
	assert.Equal(t, "Q2 distribution", result.Rows[0].Description())
	assert.False(t, result.Rows[1].Flag())
}

// The adjustment layout reads its flag column only for rows longer than
// four cells and its description only for rows longer than five, so the
// common five-column adjustment table yields rows with a parsed flag but an
// empty description.
func TestTableParser_AdjustmentColumnThresholds(t *testing.T) {
	parser := service.NewTableParser(testLogger())

	fourCol := extract.ParsedTable{
		Headers: []string{"Date", "Type", "Amount", "Contribution"},
		Rows:    [][]string{{"2023-01-01", "Rebalance", "100", "Yes"}},
	}
	result := parser.Parse(1, fourCol)
	require.Len(t, result.Rows, 1)
	assert.False(t, result.Rows[0].Flag(), "flag column unread at four cells")
	assert.Empty(t, result.Rows[0].Description())

	fiveCol := extract.ParsedTable{
		Headers: []string{"Date", "Type", "Amount", "Contribution", "Description"},
		Rows:    [][]string{{"2023-01-01", "Rebalance", "100", "Yes", "note"}},
	}
	result = parser.Parse(1, fiveCol)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].Flag())
	assert.Empty(t, result.Rows[0].Description(), "description unread at five cells")

	sixCol := extract.ParsedTable{
		Headers: []string{"Date", "Type", "Amount", "Contribution", "Description", "Ref"},
		Rows:    [][]string{{"2023-01-01", "Rebalance", "100", "Yes", "note", "r1"}},
	}
	result = parser.Parse(1, sixCol)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].Flag())
	assert.Equal(t, "note", result.Rows[0].Description())
}

func TestTableParser_MalformedValuesDoNotSkipRow(t *testing.T) {
	parser := service.NewTableParser(testLogger())
	table := extract.ParsedTable{
		Headers: []string{"Date", "Call Number", "Amount"},
		Rows:    [][]string{{"not a date", "Call 1", "not an amount"}},
	}

	result := parser.Parse(1, table)
	require.Len(t, result.Rows, 1)
	assert.Nil(t, result.Rows[0].Date())
	assert.Zero(t, result.Rows[0].Amount())
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1234.56, service.ParseAmount("$1,234.56"))
	assert.Equal(t, -500.0, service.ParseAmount("-500"))
	assert.Equal(t, 500.0, service.ParseAmount("USD 500"))
	assert.Equal(t, 0.0, service.ParseAmount(""))
	assert.Equal(t, 0.0, service.ParseAmount("n/a"))
}

func TestParseDate(t *testing.T) {
	iso := service.ParseDate("2023-01-15")
	require.NotNil(t, iso)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *iso)

	// day-month-year with dashes
	dmy := service.ParseDate("15-01-2023")
	require.NotNil(t, dmy)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *dmy)

	// month/day/year with slashes
	mdy := service.ParseDate("01/15/2023")
	require.NotNil(t, mdy)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *mdy)

	assert.NotNil(t, service.ParseDate(" 2023-01-15 "))
	assert.Nil(t, service.ParseDate("January 15, 2023"))
	assert.Nil(t, service.ParseDate(""))
}

func TestParseBool(t *testing.T) {
	assert.True(t, service.ParseBool("Yes"))
	assert.True(t, service.ParseBool(" yes "))
	assert.True(t, service.ParseBool("YES"))
	assert.False(t, service.ParseBool("No"))
	assert.False(t, service.ParseBool("true"))
	assert.False(t, service.ParseBool(""))
}
