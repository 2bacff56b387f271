package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Nested structs use
// underscore delimiters (e.g. EMBEDDING_ENDPOINT_API_KEY).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8000)
	Port int `envconfig:"PORT" default:"8000"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.fundsight
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/fundsight.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// TopK is the number of retrieval results used by the query engine.
	// Env: TOP_K_RESULTS (default: 5)
	TopK int `envconfig:"TOP_K_RESULTS" default:"5"`

	// WorkerCount is the number of background processing workers.
	// Env: WORKER_COUNT (default: 1)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`

	// Extractor configures the PDF structure extractor.
	Extractor ExtractorEnv `envconfig:"EXTRACTOR"`

	// EmbeddingEndpoint configures the embedding AI service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// ChatEndpoint configures the chat AI service.
	ChatEndpoint EndpointEnv `envconfig:"CHAT_ENDPOINT"`

	// IntentRulesPath points at a YAML rule file for the rule-based intent
	// classifier. When empty, the built-in rules apply.
	// Env: INTENT_RULES_PATH
	IntentRulesPath string `envconfig:"INTENT_RULES_PATH"`

	// CORSOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ORIGINS (default: *)
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
}

// ExtractorEnv holds environment configuration for the PDF extractor.
type ExtractorEnv struct {
	// DoclingURL is the docling-serve base URL. When empty, the pdfium
	// text-only extractor is used (no table extraction).
	// Env: EXTRACTOR_DOCLING_URL
	DoclingURL string `envconfig:"DOCLING_URL"`

	// TimeoutSeconds is the conversion timeout in seconds.
	// Env: EXTRACTOR_TIMEOUT_SECONDS (default: 120)
	TimeoutSeconds float64 `envconfig:"TIMEOUT_SECONDS" default:"120"`

	// OCR enables OCR during conversion.
	// Env: EXTRACTOR_OCR (default: false)
	OCR bool `envconfig:"OCR" default:"false"`

	// TableStructure enables table structure recognition.
	// Env: EXTRACTOR_TABLE_STRUCTURE (default: true)
	TableStructure bool `envconfig:"TABLE_STRUCTURE" default:"true"`

	// NumThreads is the extractor worker thread count.
	// Env: EXTRACTOR_NUM_THREADS (default: 4)
	NumThreads int `envconfig:"NUM_THREADS" default:"4"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// TimeoutSeconds is the request timeout in seconds.
	// Env: *_TIMEOUT_SECONDS (default: 60)
	TimeoutSeconds float64 `envconfig:"TIMEOUT_SECONDS" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{
		WithHost(e.Host),
		WithPort(e.Port),
		WithLogLevel(e.LogLevel),
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithTopK(e.TopK),
		WithWorkerCount(e.WorkerCount),
		WithExtractorConfig(e.Extractor.ToExtractorConfig()),
	}

	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.IntentRulesPath != "" {
		opts = append(opts, WithIntentRulesPath(e.IntentRulesPath))
	}
	if e.CORSOrigins != "" {
		opts = append(opts, WithCORSOrigins(splitCSV(e.CORSOrigins)))
	}

	opts = append(opts,
		WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint(DefaultOpenAIEmbedModel)),
		WithChatEndpoint(e.ChatEndpoint.ToEndpoint(DefaultOpenAIChatModel)),
	)

	return NewAppConfigWithOptions(opts...)
}

// ToExtractorConfig converts ExtractorEnv to ExtractorConfig.
func (e ExtractorEnv) ToExtractorConfig() ExtractorConfig {
	cfg := NewExtractorConfig()
	cfg.doclingURL = e.DoclingURL
	if e.TimeoutSeconds > 0 {
		cfg.timeout = time.Duration(e.TimeoutSeconds * float64(time.Second))
	}
	cfg.ocr = e.OCR
	cfg.tableStructure = e.TableStructure
	if e.NumThreads > 0 {
		cfg.numThreads = e.NumThreads
	}
	return cfg
}

// ToEndpoint converts EndpointEnv to Endpoint, falling back to the given
// default model when none is configured.
func (e EndpointEnv) ToEndpoint(defaultModel string) Endpoint {
	model := e.Model
	if model == "" {
		model = defaultModel
	}

	opts := []EndpointOption{
		WithModel(model),
		WithTimeout(time.Duration(e.TimeoutSeconds * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
