// Package config provides configuration loading for civicd.
//
// Configuration comes from an optional YAML file overridden by CIVICD_
// environment variables, with hardcoded defaults for everything else.
// The daemon boots with no file and no environment at all.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Validation sentinels, one per rule. Validate wraps each with the
// offending key so errors.Is still matches.
var (
	// ErrMissingAddr indicates an empty server listen address.
	ErrMissingAddr = errors.New("listen address required")

	// ErrInvalidTimeout indicates a zero or negative timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidRate indicates a non-positive rate limit or burst.
	ErrInvalidRate = errors.New("rate must be positive")

	// ErrUnknownLevel indicates an unrecognized log level.
	ErrUnknownLevel = errors.New("unknown log level")

	// ErrUnknownFormat indicates an unrecognized log format.
	ErrUnknownFormat = errors.New("unknown log format")

	// ErrUnknownProtocol indicates an unrecognized telemetry protocol.
	ErrUnknownProtocol = errors.New("unknown telemetry protocol")

	// ErrMissingEndpoint indicates telemetry is enabled without an
	// exporter endpoint.
	ErrMissingEndpoint = errors.New("telemetry endpoint required")

	// ErrInvalidRatio indicates a value outside [0, 1].
	ErrInvalidRatio = errors.New("ratio must be between 0 and 1")

	// ErrInvalidThreshold indicates a confidence threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// ErrInvalidTopK indicates a retrieval depth below 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")

	// ErrUnknownIndex indicates an unrecognized retrieval index kind.
	ErrUnknownIndex = errors.New("unknown retrieval index")

	// ErrInvalidPort indicates a port outside 1-65535.
	ErrInvalidPort = errors.New("port must be between 1 and 65535")

	// ErrMissingModel indicates an enabled component without a model name.
	ErrMissingModel = errors.New("model name required")

	// ErrMissingPath indicates an empty required path.
	ErrMissingPath = errors.New("path required")

	// ErrInvalidLimit indicates a limit below 1.
	ErrInvalidLimit = errors.New("limit must be at least 1")

	// ErrInvalidTurns indicates a negative context turn count.
	ErrInvalidTurns = errors.New("context turns cannot be negative")

	// ErrInvalidMaxTokens indicates a completion cap below 1.
	ErrInvalidMaxTokens = errors.New("max tokens must be at least 1")
)

// Config holds the complete civicd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Engine    EngineConfig    `koanf:"engine"`
	Data      DataConfig      `koanf:"data"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Backend   BackendConfig   `koanf:"backend"`
	History   HistoryConfig   `koanf:"history"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Addr is the listen address, host:port or :port.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading the request including the body.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the allowed sustained request rate per client,
	// in requests per second.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the allowed burst above RateLimit.
	RateBurst int `koanf:"rate_burst"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Stdout writes logs to stdout instead of stderr.
	Stdout bool `koanf:"stdout"`

	// OTel tees log records to the OpenTelemetry log bridge.
	OTel bool `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration.
type TelemetryConfig struct {
	// Enabled turns on trace and metric export. Disabled telemetry
	// still installs no-op providers so instrumented code runs.
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP collector address.
	Endpoint string `koanf:"endpoint"`

	// Protocol selects the OTLP transport, grpc or http.
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS toward the collector.
	Insecure bool `koanf:"insecure"`

	// ServiceName is the service.name resource attribute.
	ServiceName string `koanf:"service_name"`

	// SampleRatio is the trace sampling ratio in [0, 1].
	SampleRatio float64 `koanf:"sample_ratio"`
}

// EngineConfig holds routing and strategy acceptance configuration.
type EngineConfig struct {
	// MinScore is the classifier score below which a strategy is not
	// considered a candidate.
	MinScore float64 `koanf:"min_score"`

	// CacheThreshold is the minimum confidence for accepting a cache
	// answer.
	CacheThreshold float64 `koanf:"cache_threshold"`

	// KnowledgeThreshold is the minimum confidence for accepting a
	// knowledge answer.
	KnowledgeThreshold float64 `koanf:"knowledge_threshold"`

	// RetrievalThreshold is the minimum confidence for accepting a
	// retrieval answer.
	RetrievalThreshold float64 `koanf:"retrieval_threshold"`

	// TopK is how many passages retrieval fetches per query.
	TopK int `koanf:"top_k"`
}

// DataConfig holds locations of the civic data files.
type DataConfig struct {
	// Dir is the root data directory. Empty means built-in data only.
	Dir string `koanf:"dir"`

	// FactsFile overrides the facts file path. Defaults to
	// Dir/facts.json when Dir is set.
	FactsFile string `koanf:"facts_file"`

	// KnowledgeFile overrides the knowledge file path. Defaults to
	// Dir/knowledge.json when Dir is set.
	KnowledgeFile string `koanf:"knowledge_file"`

	// CorpusDir overrides the document corpus directory. Defaults to
	// Dir/corpus when Dir is set.
	CorpusDir string `koanf:"corpus_dir"`

	// Watch reloads data files when they change on disk.
	Watch bool `koanf:"watch"`
}

// FactsPath returns the effective facts file, or empty for built-in data.
func (d DataConfig) FactsPath() string {
	if d.FactsFile != "" {
		return d.FactsFile
	}
	if d.Dir == "" {
		return ""
	}
	return filepath.Join(d.Dir, "facts.json")
}

// KnowledgePath returns the effective knowledge file, or empty for
// built-in data.
func (d DataConfig) KnowledgePath() string {
	if d.KnowledgeFile != "" {
		return d.KnowledgeFile
	}
	if d.Dir == "" {
		return ""
	}
	return filepath.Join(d.Dir, "knowledge.json")
}

// CorpusPath returns the effective corpus directory, or empty for
// built-in documents.
func (d DataConfig) CorpusPath() string {
	if d.CorpusDir != "" {
		return d.CorpusDir
	}
	if d.Dir == "" {
		return ""
	}
	return filepath.Join(d.Dir, "corpus")
}

// RetrievalConfig holds passage index configuration.
type RetrievalConfig struct {
	// Index selects the search backend: keyword, chromem, or qdrant.
	Index string `koanf:"index"`

	// RelevanceFloor is the top-hit score below which retrieval
	// declines.
	RelevanceFloor float64 `koanf:"relevance_floor"`

	// Collection names the vector collection for chromem and qdrant.
	Collection string `koanf:"collection"`

	// PersistPath stores the chromem index on disk. Empty keeps it in
	// memory.
	PersistPath string `koanf:"persist_path"`

	// Qdrant configures the qdrant index.
	Qdrant QdrantConfig `koanf:"qdrant"`
}

// QdrantConfig holds qdrant connection configuration.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey Secret `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
}

// EmbeddingConfig holds the embedding endpoint configuration used by the
// chromem and qdrant indexes. An empty BaseURL leaves vector indexes
// unavailable.
type EmbeddingConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// BackendConfig holds the generative fallback endpoint configuration.
// An empty BaseURL disables the backend; fallback then answers with
// canned or default replies only.
type BackendConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`

	// Timeout bounds each completion call.
	Timeout time.Duration `koanf:"timeout"`

	// MaxTokens caps the completion length.
	MaxTokens int `koanf:"max_tokens"`

	// ContextTurns is how many prior exchanges the fallback prompt
	// includes.
	ContextTurns int `koanf:"context_turns"`
}

// Enabled reports whether a generative backend is configured.
func (c BackendConfig) Enabled() bool {
	return c.BaseURL != ""
}

// HistoryConfig holds conversation history storage configuration.
type HistoryConfig struct {
	// Path is the SQLite database file.
	Path string `koanf:"path"`

	// Limit caps how many exchanges a single history read returns.
	Limit int `koanf:"limit"`

	// ContextTurns is how many prior exchanges callers feed back into
	// query handling.
	ContextTurns int `koanf:"context_turns"`
}

// Default returns the configuration used when no file and no environment
// overrides are present. Load unmarshals on top of it, so values absent
// from both sources keep these defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8480",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Stdout: true,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "civicd",
			SampleRatio: 1.0,
		},
		Engine: EngineConfig{
			CacheThreshold:     0.8,
			KnowledgeThreshold: 0.6,
			RetrievalThreshold: 0.55,
			TopK:               3,
		},
		Data: DataConfig{
			Watch: true,
		},
		Retrieval: RetrievalConfig{
			Index:          "keyword",
			RelevanceFloor: 0.12,
			Collection:     "civic_docs",
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Embedding: EmbeddingConfig{
			Model: "BAAI/bge-small-en-v1.5",
		},
		Backend: BackendConfig{
			Model:        "llama3.2:1b",
			Timeout:      8 * time.Second,
			MaxTokens:    256,
			ContextTurns: 4,
		},
		History: HistoryConfig{
			Path:         "civicd.db",
			Limit:        50,
			ContextTurns: 4,
		},
	}
}

// Validate checks every configured value and returns the first violation
// wrapped around its sentinel.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr: %w", ErrMissingAddr)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout: %w", ErrInvalidTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout: %w", ErrInvalidTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout: %w", ErrInvalidTimeout)
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit: %w", ErrInvalidRate)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst: %w", ErrInvalidRate)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrUnknownLevel)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: %w", c.Logging.Format, ErrUnknownFormat)
	}

	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol %q: %w", c.Telemetry.Protocol, ErrUnknownProtocol)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint: %w", ErrMissingEndpoint)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio: %w", ErrInvalidRatio)
	}

	thresholds := []struct {
		key string
		val float64
	}{
		{"engine.min_score", c.Engine.MinScore},
		{"engine.cache_threshold", c.Engine.CacheThreshold},
		{"engine.knowledge_threshold", c.Engine.KnowledgeThreshold},
		{"engine.retrieval_threshold", c.Engine.RetrievalThreshold},
		{"retrieval.relevance_floor", c.Retrieval.RelevanceFloor},
	}
	for _, t := range thresholds {
		if t.val < 0 || t.val > 1 {
			return fmt.Errorf("%s: %w", t.key, ErrInvalidThreshold)
		}
	}
	if c.Engine.TopK < 1 {
		return fmt.Errorf("engine.top_k: %w", ErrInvalidTopK)
	}

	switch c.Retrieval.Index {
	case "keyword", "chromem":
	case "qdrant":
		if c.Retrieval.Qdrant.Port < 1 || c.Retrieval.Qdrant.Port > 65535 {
			return fmt.Errorf("retrieval.qdrant.port: %w", ErrInvalidPort)
		}
	default:
		return fmt.Errorf("retrieval.index %q: %w", c.Retrieval.Index, ErrUnknownIndex)
	}

	if c.Embedding.BaseURL != "" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model: %w", ErrMissingModel)
	}

	if c.Backend.Enabled() {
		if c.Backend.Model == "" {
			return fmt.Errorf("backend.model: %w", ErrMissingModel)
		}
		if c.Backend.Timeout <= 0 {
			return fmt.Errorf("backend.timeout: %w", ErrInvalidTimeout)
		}
		if c.Backend.MaxTokens < 1 {
			return fmt.Errorf("backend.max_tokens: %w", ErrInvalidMaxTokens)
		}
	}
	if c.Backend.ContextTurns < 0 {
		return fmt.Errorf("backend.context_turns: %w", ErrInvalidTurns)
	}

	if c.History.Path == "" {
		return fmt.Errorf("history.path: %w", ErrMissingPath)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("history.limit: %w", ErrInvalidLimit)
	}
	if c.History.ContextTurns < 0 {
		return fmt.Errorf("history.context_turns: %w", ErrInvalidTurns)
	}

	return nil
}
