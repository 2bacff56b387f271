package extractor_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/infrastructure/extractor"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

const doclingFixture = `{
  "status": "success",
  "document": {
    "json_content": {
      "texts": [
        {"text": "Fund Name: Growth Fund III", "prov": [{"page_no": 1}]},
        {"text": "Portfolio commentary.", "prov": [{"page_no": 2}]}
      ],
      "tables": [
        {
          "prov": [{"page_no": 2}],
          "data": {
            "table_cells": [
              {"start_row_offset_idx": 0, "start_col_offset_idx": 0, "text": "Date", "column_header": true},
              {"start_row_offset_idx": 0, "start_col_offset_idx": 1, "text": "Call Number", "column_header": true},
              {"start_row_offset_idx": 0, "start_col_offset_idx": 2, "text": "stray", "column_header": false},
              {"start_row_offset_idx": 1, "start_col_offset_idx": 0, "text": "2023-01-15", "column_header": false},
              {"start_row_offset_idx": 1, "start_col_offset_idx": 1, "text": "Call 1", "column_header": false}
            ]
          }
        }
      ]
    }
  }
}`

func testLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
}

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))
	return path
}

func TestDoclingConverter_MapsDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1alpha/convert/file", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "json", r.FormValue("to_formats"))
		assert.Equal(t, "false", r.FormValue("do_ocr"))
		assert.Equal(t, "true", r.FormValue("do_table_structure"))
		_, _, err := r.FormFile("files")
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doclingFixture))
	}))
	defer server.Close()

	cfg := config.NewExtractorConfig().WithDoclingURL(server.URL)
	converter := extractor.NewDoclingConverter(cfg, testLogger())

	converted, err := converter.Convert(context.Background(), writeTempPDF(t))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, converted.Pages)
	assert.Equal(t, "Fund Name: Growth Fund III", converted.FirstPageText())
	require.Len(t, converted.Tables, 1)

	grid := converted.Tables[0].Grid()
	assert.Equal(t, []string{"Date", "Call Number"}, grid.Headers)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, []string{"2023-01-15", "Call 1"}, grid.Rows[0])
}

func TestDoclingConverter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversion backend down", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config.NewExtractorConfig().WithDoclingURL(server.URL)
	converter := extractor.NewDoclingConverter(cfg, testLogger())

	_, err := converter.Convert(context.Background(), writeTempPDF(t))
	assert.Error(t, err)
}
