package provider

import (
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// NewEmbedder selects the embedding provider: the OpenAI-compatible
// endpoint when an API key is configured, otherwise the local ONNX model.
func NewEmbedder(cfg config.AppConfig, logger *log.Logger) Embedder {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint.IsConfigured() {
		logger.Info("using remote embedding provider", "model", endpoint.Model())
		return NewOpenAIProvider(endpoint, config.DefaultOpenAIDimension, logger)
	}
	logger.Info("using local embedding provider", "cache_dir", cfg.ModelCacheDir())
	return NewHugotEmbedder(cfg.ModelCacheDir(), config.DefaultLocalDimension)
}

// NewTextGenerator returns the chat provider. Generation requires a
// configured chat endpoint; the returned provider reports
// ErrNotConfigured otherwise.
func NewTextGenerator(cfg config.AppConfig, logger *log.Logger) TextGenerator {
	return NewOpenAIProvider(cfg.ChatEndpoint(), 0, logger)
}
