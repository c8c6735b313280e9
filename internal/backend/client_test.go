package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// fakeModel scripts GenerateContent responses.
type fakeModel struct {
	reply string
	err   error
	delay time.Duration

	gotMessages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = messages
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func testConfig() Config {
	cfg := Config{BaseURL: "http://localhost:11434/v1"}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "llama3.2:1b", cfg.Model)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 256, cfg.MaxTokens)

	// Base URL stays empty; an unset endpoint means the backend is
	// disabled and New must refuse to build a client.
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	_, err := New(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_Complete(t *testing.T) {
	model := &fakeModel{reply: "  Chennai has 15 zones.  "}
	c := newClient(model, testConfig(), zap.NewNop())

	got, err := c.Complete(context.Background(), "How many zones does Chennai have?")
	require.NoError(t, err)
	assert.Equal(t, "Chennai has 15 zones.", got)

	// System framing plus the user prompt.
	require.Len(t, model.gotMessages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.gotMessages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.gotMessages[1].Role)
}

func TestClient_CompleteError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	c := newClient(model, testConfig(), zap.NewNop())

	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_CompleteTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	model := &fakeModel{reply: "late", delay: 200 * time.Millisecond}
	c := newClient(model, cfg, zap.NewNop())

	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_CompleteEmpty(t *testing.T) {
	model := &fakeModel{reply: "   "}
	c := newClient(model, testConfig(), zap.NewNop())

	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
