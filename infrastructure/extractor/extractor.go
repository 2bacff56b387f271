package extractor

import (
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// NewConverter selects the structure extractor: docling-serve when a URL is
// configured, otherwise the text-only pdfium fallback.
func NewConverter(cfg config.ExtractorConfig, logger *log.Logger) (extract.Converter, error) {
	if cfg.DoclingURL() != "" {
		logger.Info("using docling structure extractor", "url", cfg.DoclingURL())
		return NewDoclingConverter(cfg, logger), nil
	}
	logger.Info("using pdfium text extractor; tables will not be parsed")
	return NewPdfiumConverter(logger)
}
