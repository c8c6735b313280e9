// Package logging provides structured logging for civicd.
//
// # Overview
//
// The package wraps Zap with:
//   - JSON or console encoding to stdout or stderr
//   - An optional OpenTelemetry log bridge tee (otelzap)
//   - Automatic context field injection (trace_id, request_id, session_id)
//
// # Usage
//
// Create a logger from config:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Stdout: true}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	ctx = logging.WithSessionID(ctx, sessionID)
//	logger.Info(ctx, "query answered", zap.Duration("elapsed", d))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2026-08-21T10:15:30Z",
//	  "level": "info",
//	  "msg": "query answered",
//	  "trace_id": "abc123",
//	  "request_id": "req_123",
//	  "session_id": "sess_456",
//	  "elapsed": "45ms"
//	}
//
// Library packages keep taking *zap.Logger; Underlying() bridges to them.
// The MCP stdio mode must keep stdout clean for the protocol and sets
// Stdout false so logs land on stderr.
//
// # Testing
//
// Use TestLogger for assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
package logging
