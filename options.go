package fundsight

import (
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/infrastructure/provider"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// clientConfig holds construction-time settings for a Client.
type clientConfig struct {
	app       config.AppConfig
	logger    *log.Logger
	converter extract.Converter
	embedder  provider.Embedder
	generator provider.TextGenerator

	startWorker bool
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		app:         config.NewAppConfig(),
		startWorker: true,
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithConfig supplies the application configuration. Without it the
// defaults from config.NewAppConfig apply.
func WithConfig(app config.AppConfig) Option {
	return func(c *clientConfig) {
		c.app = app
	}
}

// WithLogger sets the logger. Without it a logger is built from the
// application configuration.
func WithLogger(l *log.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithConverter overrides the PDF converter. Used by tests to avoid a
// docling instance or a pdfium runtime.
func WithConverter(conv extract.Converter) Option {
	return func(c *clientConfig) {
		c.converter = conv
	}
}

// WithEmbedder overrides the embedding provider.
func WithEmbedder(e provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithTextGenerator overrides the chat completion provider.
func WithTextGenerator(g provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithoutWorker constructs the Client without starting the background
// worker. Tasks stay queued until a worker elsewhere drains them.
func WithoutWorker() Option {
	return func(c *clientConfig) {
		c.startWorker = false
	}
}
