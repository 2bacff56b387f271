// Package extractor converts PDF reports into structured text and tables.
// The primary converter is a docling-serve sidecar; a pdfium-based
// converter provides text-only extraction when the sidecar is absent.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// DoclingConverter extracts layout-aware text and tables by calling a
// docling-serve instance.
type DoclingConverter struct {
	cfg    config.ExtractorConfig
	client *http.Client
	logger *log.Logger
}

// NewDoclingConverter creates a DoclingConverter.
func NewDoclingConverter(cfg config.ExtractorConfig, logger *log.Logger) *DoclingConverter {
	return &DoclingConverter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

// docling-serve conversion response, reduced to the fields consumed here.
type doclingResponse struct {
	Status   string `json:"status"`
	Document struct {
		JSONContent doclingDocument `json:"json_content"`
	} `json:"document"`
	Errors []struct {
		Message string `json:"error_message"`
	} `json:"errors"`
}

type doclingDocument struct {
	Texts  []doclingText  `json:"texts"`
	Tables []doclingTable `json:"tables"`
}

type doclingText struct {
	Text string        `json:"text"`
	Prov []doclingProv `json:"prov"`
}

type doclingProv struct {
	PageNo int `json:"page_no"`
}

type doclingTable struct {
	Prov []doclingProv `json:"prov"`
	Data struct {
		TableCells []doclingCell `json:"table_cells"`
	} `json:"data"`
}

type doclingCell struct {
	StartRowOffsetIdx int    `json:"start_row_offset_idx"`
	StartColOffsetIdx int    `json:"start_col_offset_idx"`
	Text              string `json:"text"`
	ColumnHeader      bool   `json:"column_header"`
}

// Convert uploads the PDF to docling-serve and maps the structured
// document back into pages, texts, and tables.
func (c *DoclingConverter) Convert(ctx context.Context, filePath string) (extract.Converted, error) {
	body, contentType, err := buildConvertRequest(filePath, c.cfg)
	if err != nil {
		return extract.Converted{}, err
	}

	url := c.cfg.DoclingURL() + "/v1alpha/convert/file"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return extract.Converted{}, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return extract.Converted{}, fmt.Errorf("call docling-serve: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return extract.Converted{}, fmt.Errorf("docling-serve returned %d: %s", resp.StatusCode, payload)
	}

	var decoded doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return extract.Converted{}, fmt.Errorf("decode docling response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return extract.Converted{}, fmt.Errorf("docling conversion failed: %s", decoded.Errors[0].Message)
	}

	converted := mapDocument(decoded.Document.JSONContent)
	c.logger.Debug("converted document",
		"file", filepath.Base(filePath),
		"texts", len(converted.Texts),
		"tables", len(converted.Tables))
	return converted, nil
}

func buildConvertRequest(filePath string, cfg config.ExtractorConfig) (*bytes.Buffer, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy file into request: %w", err)
	}

	fields := map[string]string{
		"to_formats":         "json",
		"do_ocr":             strconv.FormatBool(cfg.OCR()),
		"do_table_structure": strconv.FormatBool(cfg.TableStructure()),
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize request body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func mapDocument(doc doclingDocument) extract.Converted {
	converted := extract.Converted{}
	pages := map[int]bool{}

	// One text block per page, items joined in extraction order.
	pageTexts := map[int][]string{}
	for _, text := range doc.Texts {
		if text.Text == "" {
			continue
		}
		page := 0
		if len(text.Prov) > 0 {
			page = text.Prov[0].PageNo
		}
		pageTexts[page] = append(pageTexts[page], text.Text)
		pages[page] = true
	}
	textPages := make([]int, 0, len(pageTexts))
	for page := range pageTexts {
		textPages = append(textPages, page)
	}
	sort.Ints(textPages)
	for _, page := range textPages {
		converted.Texts = append(converted.Texts, extract.PageText{
			PageNumber: page,
			Text:       strings.Join(pageTexts[page], "\n"),
		})
	}

	for _, table := range doc.Tables {
		page := 0
		if len(table.Prov) > 0 {
			page = table.Prov[0].PageNo
		}
		mapped := extract.Table{PageNumber: page}
		for _, cell := range table.Data.TableCells {
			mapped.Cells = append(mapped.Cells, extract.Cell{
				RowOffset:    cell.StartRowOffsetIdx,
				ColOffset:    cell.StartColOffsetIdx,
				Text:         cell.Text,
				ColumnHeader: cell.ColumnHeader,
			})
		}
		converted.Tables = append(converted.Tables, mapped)
		pages[page] = true
	}

	for page := range pages {
		converted.Pages = append(converted.Pages, page)
	}
	sort.Ints(converted.Pages)
	return converted
}
