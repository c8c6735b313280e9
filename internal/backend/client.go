// Package backend provides the generative completion client used by the
// fallback strategy. It speaks the OpenAI chat completion protocol, which
// covers Ollama, vLLM, and OpenAI itself.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("civicd.backend")

var (
	// ErrInvalidConfig indicates missing client settings.
	ErrInvalidConfig = errors.New("invalid backend configuration")

	// ErrTimeout indicates the completion did not finish within the
	// configured deadline.
	ErrTimeout = errors.New("backend timed out")

	// ErrUnavailable indicates the endpoint rejected or failed the
	// request.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrEmptyCompletion indicates the model returned no text.
	ErrEmptyCompletion = errors.New("backend returned empty completion")
)

// systemPrompt frames every completion. The model is told to steer users
// toward the curated strategies for anything that needs exact data.
const systemPrompt = `You are a helpful civic assistant for Chennai residents. You specialize in Chennai civic services, municipal procedures, and government information. Keep responses friendly, informative, and focused on civic matters. If asked about specific civic procedures or contacts, suggest the user ask for those specifically so accurate information can be provided.`

// Config configures the completion client.
type Config struct {
	// BaseURL is the OpenAI-compatible API root,
	// e.g. http://localhost:11434/v1 for a local Ollama server.
	BaseURL string

	// Model is the completion model name.
	Model string

	// APIKey authenticates against hosted providers. Optional for
	// local servers.
	APIKey string

	// Timeout bounds each completion call.
	Timeout time.Duration

	// MaxTokens caps the completion length.
	MaxTokens int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "llama3.2:1b"
	}
	if c.Timeout == 0 {
		c.Timeout = 8 * time.Second
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 256
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}

// Client calls an OpenAI-compatible completion endpoint with a bounded
// timeout.
type Client struct {
	llm    llms.Model
	config Config
	logger *zap.Logger
}

// New creates a completion client. Returns an error when no endpoint is
// configured; callers treat an absent client as "backend disabled".
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for local servers that
		// ignore it.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	return newClient(llm, cfg, logger), nil
}

func newClient(llm llms.Model, cfg Config, logger *zap.Logger) *Client {
	return &Client{llm: llm, config: cfg, logger: logger}
}

// Complete sends the prompt and returns the model's reply text. The call
// is bounded by the configured timeout regardless of the caller's
// context.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "backend.complete")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithTemperature(0.7),
	)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			recordRequest("timeout", elapsed)
			c.logger.Warn("backend completion timed out",
				zap.Duration("timeout", c.config.Timeout),
			)
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.config.Timeout)
		}
		recordRequest("error", elapsed)
		c.logger.Warn("backend completion failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		recordRequest("empty", elapsed)
		return "", ErrEmptyCompletion
	}

	recordRequest("ok", elapsed)
	text := strings.TrimSpace(resp.Choices[0].Content)
	c.logger.Debug("backend completion",
		zap.Int("prompt_len", len(prompt)),
		zap.Int("reply_len", len(text)),
		zap.Duration("elapsed", elapsed),
	)
	return text, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}
