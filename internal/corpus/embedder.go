package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrInvalidEmbedderConfig indicates missing embedder settings.
var ErrInvalidEmbedderConfig = errors.New("invalid embedder configuration")

// Embedder generates vector embeddings for passages and queries.
// langchaingo embedders satisfy this interface directly.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
// TEI, Ollama, and OpenAI itself all speak this protocol.
type EmbedderConfig struct {
	// BaseURL is the embeddings API root,
	// e.g. http://localhost:8080/v1 for a local TEI server.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// APIKey authenticates against hosted providers. Optional for
	// local servers.
	APIKey string
}

// ApplyDefaults sets default values for unset fields.
func (c *EmbedderConfig) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "BAAI/bge-small-en-v1.5"
	}
}

// Validate validates the embedder configuration.
func (c EmbedderConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidEmbedderConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidEmbedderConfig)
	}
	return nil
}

// NewEmbedder creates an embedder backed by an OpenAI-compatible API.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for local servers that
		// ignore it.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embeddings client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}
