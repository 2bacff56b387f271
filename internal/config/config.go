// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8000
	DefaultLogLevel          = "INFO"
	DefaultTopK              = 5
	DefaultWorkerCount       = 1
	DefaultWorkerPollPeriod  = time.Second
	DefaultExtractorTimeout  = 120 * time.Second
	DefaultExtractorThreads  = 4
	DefaultEndpointTimeout   = 60 * time.Second
	DefaultEndpointRetries   = 5
	DefaultEndpointDelay     = 2 * time.Second
	DefaultEndpointBackoff   = 2.0
	DefaultOpenAIChatModel   = "gpt-4"
	DefaultOpenAIEmbedModel  = "text-embedding-3-small"
	DefaultOpenAIDimension   = 1536
	DefaultLocalDimension    = 384
	DefaultUploadSubdir      = "uploads"
	DefaultModelCacheSubdir  = "models"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an AI service endpoint (embedding or chat).
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointRetries,
		initialDelay:  DefaultEndpointDelay,
		backoffFactor: DefaultEndpointBackoff,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true when an API key is present.
func (e Endpoint) IsConfigured() bool { return e.apiKey != "" }

// EndpointOption mutates an Endpoint during construction.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model identifier.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithInitialDelay sets the first retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.initialDelay = d
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with the given options applied.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ExtractorConfig configures the PDF structure extractor.
type ExtractorConfig struct {
	doclingURL     string
	timeout        time.Duration
	ocr            bool
	tableStructure bool
	numThreads     int
}

// NewExtractorConfig creates an ExtractorConfig with defaults: OCR off,
// table structure on.
func NewExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		timeout:        DefaultExtractorTimeout,
		ocr:            false,
		tableStructure: true,
		numThreads:     DefaultExtractorThreads,
	}
}

// DoclingURL returns the docling-serve base URL (empty when unset).
func (c ExtractorConfig) DoclingURL() string { return c.doclingURL }

// WithDoclingURL returns a copy with the docling-serve base URL set.
func (c ExtractorConfig) WithDoclingURL(url string) ExtractorConfig {
	c.doclingURL = url
	return c
}

// Timeout returns the conversion timeout.
func (c ExtractorConfig) Timeout() time.Duration { return c.timeout }

// OCR reports whether OCR is enabled.
func (c ExtractorConfig) OCR() bool { return c.ocr }

// TableStructure reports whether table structure recognition is enabled.
func (c ExtractorConfig) TableStructure() bool { return c.tableStructure }

// NumThreads returns the extractor worker thread count.
func (c ExtractorConfig) NumThreads() int { return c.numThreads }

// AppConfig is the immutable application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	topK              int
	workerCount       int
	workerPollPeriod  time.Duration
	extractor         ExtractorConfig
	embeddingEndpoint Endpoint
	chatEndpoint      Endpoint
	intentRulesPath   string
	corsOrigins       []string
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:             DefaultHost,
		port:             DefaultPort,
		dataDir:          defaultDataDir(),
		logLevel:         DefaultLogLevel,
		logFormat:        LogFormatPretty,
		topK:             DefaultTopK,
		workerCount:      DefaultWorkerCount,
		workerPollPeriod: DefaultWorkerPollPeriod,
		extractor:        NewExtractorConfig(),
		embeddingEndpoint: NewEndpointWithOptions(
			WithModel(DefaultOpenAIEmbedModel),
		),
		chatEndpoint: NewEndpointWithOptions(
			WithModel(DefaultOpenAIChatModel),
		),
		corsOrigins: []string{"*"},
	}
}

// NewAppConfigWithOptions creates an AppConfig with the given options applied.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	cfg := NewAppConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// UploadDir returns the directory where uploaded PDFs are stored.
func (c AppConfig) UploadDir() string { return filepath.Join(c.dataDir, DefaultUploadSubdir) }

// ModelCacheDir returns the local embedding model cache directory.
func (c AppConfig) ModelCacheDir() string { return filepath.Join(c.dataDir, DefaultModelCacheSubdir) }

// DBURL returns the database URL, defaulting to a sqlite file in DataDir.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return "sqlite:///" + filepath.Join(c.dataDir, "fundsight.db")
}

// LogLevel returns the configured log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the configured log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// TopK returns the retrieval result limit used by the query engine.
func (c AppConfig) TopK() int { return c.topK }

// WorkerCount returns the number of background workers.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// WorkerPollPeriod returns the queue polling period.
func (c AppConfig) WorkerPollPeriod() time.Duration { return c.workerPollPeriod }

// Extractor returns the PDF extractor configuration.
func (c AppConfig) Extractor() ExtractorConfig { return c.extractor }

// EmbeddingEndpoint returns the embedding endpoint configuration.
func (c AppConfig) EmbeddingEndpoint() Endpoint { return c.embeddingEndpoint }

// ChatEndpoint returns the chat endpoint configuration.
func (c AppConfig) ChatEndpoint() Endpoint { return c.chatEndpoint }

// IntentRulesPath returns the YAML intent-rules file path (empty when the
// LLM classifier should be used).
func (c AppConfig) IntentRulesPath() string { return c.intentRulesPath }

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// EmbeddingDimension returns the fixed vector dimension implied by the
// configured embedding provider. Changing providers changes the dimension
// and therefore requires a new vector index.
func (c AppConfig) EmbeddingDimension() int {
	if c.embeddingEndpoint.IsConfigured() {
		return DefaultOpenAIDimension
	}
	return DefaultLocalDimension
}

// Apply returns a copy of the config with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// EnsureDataDir creates the data directory and the upload directory under
// it if they do not exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.UploadDir(), 0o755)
}

// AppConfigOption mutates an AppConfig during construction.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithTopK sets the retrieval result limit.
func WithTopK(k int) AppConfigOption {
	return func(c *AppConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithExtractorConfig sets the extractor configuration.
func WithExtractorConfig(cfg ExtractorConfig) AppConfigOption {
	return func(c *AppConfig) { c.extractor = cfg }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = e }
}

// WithChatEndpoint sets the chat endpoint.
func WithChatEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.chatEndpoint = e }
}

// WithIntentRulesPath sets the YAML intent-rules file path.
func WithIntentRulesPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.intentRulesPath = path }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		cp := make([]string, len(origins))
		copy(cp, origins)
		c.corsOrigins = cp
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fundsight"
	}
	return filepath.Join(home, ".fundsight")
}
