package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/internal/log"
)

const pdfiumInstanceTimeout = 30 * time.Second

// PdfiumConverter extracts plain text per page with pdfium. It finds no
// tables, so documents converted this way index text only. It serves
// deployments that run without a docling sidecar.
type PdfiumConverter struct {
	pool   pdfium.Pool
	logger *log.Logger
}

// NewPdfiumConverter creates a PdfiumConverter on the WebAssembly pdfium
// build, which needs no native pdfium library on the host.
func NewPdfiumConverter(logger *log.Logger) (*PdfiumConverter, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("init pdfium: %w", err)
	}
	return &PdfiumConverter{pool: pool, logger: logger}, nil
}

// Convert extracts the text of every page.
func (c *PdfiumConverter) Convert(ctx context.Context, filePath string) (extract.Converted, error) {
	instance, err := c.pool.GetInstance(pdfiumInstanceTimeout)
	if err != nil {
		return extract.Converted{}, fmt.Errorf("acquire pdfium instance: %w", err)
	}
	defer func() { _ = instance.Close() }()

	doc, err := instance.OpenDocument(&requests.OpenDocument{FilePath: &filePath})
	if err != nil {
		return extract.Converted{}, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer func() {
		_, _ = instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
	}()

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return extract.Converted{}, fmt.Errorf("count pages: %w", err)
	}

	converted := extract.Converted{}
	for i := 0; i < pageCount.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return extract.Converted{}, err
		}
		text, err := instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i},
			},
		})
		if err != nil {
			c.logger.Warn("page text extraction failed", "page", i+1, "error", err)
			continue
		}
		pageNo := i + 1
		converted.Pages = append(converted.Pages, pageNo)
		if text.Text != "" {
			converted.Texts = append(converted.Texts, extract.PageText{PageNumber: pageNo, Text: text.Text})
		}
	}
	return converted, nil
}

// Close releases the pdfium pool.
func (c *PdfiumConverter) Close() error {
	return c.pool.Close()
}
