// Package extract defines the structures produced by PDF structure
// extraction and the Converter capability interface.
package extract

import "context"

// Cell is one table cell with its grid position and header flag, as reported
// by the upstream structure extractor.
type Cell struct {
	RowOffset    int
	ColOffset    int
	Text         string
	ColumnHeader bool
}

// Table is a table's raw cells, in extraction order.
type Table struct {
	PageNumber int
	Cells      []Cell
}

// PageText is the concatenated text of one page.
type PageText struct {
	PageNumber int
	Text       string
}

// Converted is the structure extracted from one PDF: per-page text blocks
// plus every table found on any page.
type Converted struct {
	Pages  []int
	Texts  []PageText
	Tables []Table
}

// FirstPageText returns the text of the lowest-numbered page, or empty when
// no text was extracted.
func (c Converted) FirstPageText() string {
	if len(c.Texts) == 0 {
		return ""
	}
	best := c.Texts[0]
	for _, t := range c.Texts[1:] {
		if t.PageNumber < best.PageNumber {
			best = t
		}
	}
	return best.Text
}

// ParsedTable is a table reduced to ordered headers and rows for the table
// parser.
type ParsedTable struct {
	Headers []string
	Rows    [][]string
}

// Grid converts raw cells into headers and rows, reproducing the upstream
// extractor's quirks exactly: only header-flagged cells in row 0 become
// headers, non-header-flagged cells in row 0 are still treated as data, and
// row 0 itself is never emitted as a data row.
func (t Table) Grid() ParsedTable {
	rowsData := map[int][]Cell{}
	maxRow := -1
	for _, cell := range t.Cells {
		rowsData[cell.RowOffset] = append(rowsData[cell.RowOffset], cell)
		if cell.RowOffset > maxRow {
			maxRow = cell.RowOffset
		}
	}

	var parsed ParsedTable
	for rowIdx := 0; rowIdx <= maxRow; rowIdx++ {
		cells, ok := rowsData[rowIdx]
		if !ok {
			continue
		}

		var row []string
		for _, cell := range cells {
			if cell.ColumnHeader && rowIdx == 0 {
				parsed.Headers = append(parsed.Headers, cell.Text)
			}
			if !cell.ColumnHeader {
				row = append(row, cell.Text)
			}
		}

		if rowIdx > 0 {
			parsed.Rows = append(parsed.Rows, row)
		}
	}

	return parsed
}

// Converter turns a PDF file into its extracted structure. Implementations
// are external collaborators (a docling sidecar, or a pdfium text-only
// fallback) and must honour ctx cancellation.
type Converter interface {
	Convert(ctx context.Context, filePath string) (Converted, error)
}
