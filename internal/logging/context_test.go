package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRequestIDCarriage(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestSessionIDCarriage(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, SessionIDFromContext(ctx))

	ctx = WithSessionID(ctx, "sess-456")
	assert.Equal(t, "sess-456", SessionIDFromContext(ctx))
}

func TestEmptyIDLeavesContextUnchanged(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
	assert.Equal(t, ctx, WithSessionID(ctx, ""))
}

func TestContextFields(t *testing.T) {
	t.Run("empty context yields no fields", func(t *testing.T) {
		assert.Empty(t, ContextFields(context.Background()))
	})

	t.Run("request and session ids become fields", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		ctx = WithSessionID(ctx, "sess-456")

		fields := ContextFields(ctx)
		require.Len(t, fields, 2)
		assert.Equal(t, "request_id", fields[0].Key)
		assert.Equal(t, "req-123", fields[0].String)
		assert.Equal(t, "session_id", fields[1].Key)
		assert.Equal(t, "sess-456", fields[1].String)
	})
}

func TestContextFieldsReachLogOutput(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "req-789")

	tl.Info(ctx, "handled")

	tl.AssertField(t, "handled", "request_id", "req-789")
}

func TestLoggerCarriage(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)

	got := FromContext(ctx)
	require.Same(t, tl.Logger, got)

	got.Info(ctx, "via context")
	tl.AssertLogged(t, zapcore.InfoLevel, "via context")
}

func TestFromContextDefaultsToNop(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	logger.Info(context.Background(), "discarded")
}
