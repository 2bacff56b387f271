// Package service holds the application services: table parsing, text
// chunking, the ingestion pipeline, metrics, and question answering.
package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/internal/log"
)

// columnSchema maps a classified table's positional columns onto a ledger
// row. The flag and description thresholds reproduce the historical column
// layouts these reports use, including the adjustment table's lenient
// four-column form where the flag column is present but unread.
type columnSchema struct {
	minColumns int
	// flagIndex is the flag column, or -1 when the variant has none. The
	// flag is read only when the row has more than flagThreshold cells.
	flagIndex     int
	flagThreshold int
	// descIndex is the description column; read only when the row has more
	// than descThreshold cells.
	descIndex     int
	descThreshold int
}

var schemas = map[ledger.Kind]columnSchema{
	ledger.KindCapitalCall:  {minColumns: 3, flagIndex: -1, descIndex: 3, descThreshold: 3},
	ledger.KindDistribution: {minColumns: 4, flagIndex: 3, flagThreshold: 3, descIndex: 4, descThreshold: 4},
	ledger.KindAdjustment:   {minColumns: 3, flagIndex: 3, flagThreshold: 4, descIndex: 4, descThreshold: 5},
}

// ClassifyTable determines the ledger variant from lowercased header
// keywords. Tables matching nothing fall back to adjustment.
func ClassifyTable(headers []string) ledger.Kind {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(h)
	}
	if anyContains(lower, "call number") {
		return ledger.KindCapitalCall
	}
	if anyContains(lower, "type") && anyContains(lower, "amount") {
		if anyContains(lower, "recallable") {
			return ledger.KindDistribution
		}
		return ledger.KindAdjustment
	}
	return ledger.KindAdjustment
}

func anyContains(headers []string, keyword string) bool {
	for _, h := range headers {
		if strings.Contains(h, keyword) {
			return true
		}
	}
	return false
}

// TableParser turns extracted tables into ledger rows.
type TableParser struct {
	logger *log.Logger
}

// NewTableParser creates a TableParser.
func NewTableParser(logger *log.Logger) *TableParser {
	return &TableParser{logger: logger}
}

// ParseResult reports one table's outcome.
type ParseResult struct {
	Kind    ledger.Kind
	Rows    []ledger.Row
	Skipped int
}

// Parse classifies a table and maps its rows. A row whose cell count
// differs from the header count is skipped; a row too short for its
// schema's required columns is skipped. Malformed dates and amounts do not
// skip a row: the date becomes nil and the amount 0.
func (p *TableParser) Parse(fundID int64, table extract.ParsedTable) ParseResult {
	kind := ClassifyTable(table.Headers)
	schema := schemas[kind]
	result := ParseResult{Kind: kind}

	for _, row := range table.Rows {
		if len(row) != len(table.Headers) {
			p.logger.Warn("skipping row with wrong column count",
				"kind", kind, "cells", len(row), "headers", len(table.Headers))
			result.Skipped++
			continue
		}
		if len(row) < schema.minColumns {
			p.logger.Warn("skipping row too short for its table layout",
				"kind", kind, "cells", len(row))
			result.Skipped++
			continue
		}

		flag := false
		if schema.flagIndex >= 0 && len(row) > schema.flagThreshold {
			flag = ParseBool(row[schema.flagIndex])
		}
		description := ""
		if len(row) > schema.descThreshold {
			description = row[schema.descIndex]
		}

		result.Rows = append(result.Rows, ledger.NewRow(
			fundID,
			kind,
			ParseDate(row[0]),
			row[1],
			ParseAmount(row[2]),
			flag,
			description,
		))
	}
	return result
}

var amountCleaner = regexp.MustCompile(`[^\d.-]`)

// ParseAmount strips currency symbols and separators and parses the rest
// as a float. Unparseable values become 0.
func ParseAmount(value string) float64 {
	cleaned := amountCleaner.ReplaceAllString(value, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

var dateFormats = []string{"2006-01-02", "02-01-2006", "01/02/2006"}

// ParseDate tries the supported date formats in order and returns nil when
// none matches.
func ParseDate(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return &t
		}
	}
	return nil
}

// ParseBool treats a trimmed, case-insensitive "yes" as true and anything
// else as false.
func ParseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "yes")
}
