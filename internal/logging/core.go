package logging

import (
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newCore builds the console core, teeing to the OTel log bridge when
// configured and a provider is available.
func newCore(cfg Config, provider log.LoggerProvider) zapcore.Core {
	// cfg is validated before this runs.
	level, _ := zapcore.ParseLevel(cfg.Level)

	sink := os.Stderr
	if cfg.Stdout {
		sink = os.Stdout
	}
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(sink), level)

	if cfg.OTel && provider != nil {
		bridge := otelzap.NewCore(cfg.Service, otelzap.WithLoggerProvider(provider))
		return zapcore.NewTee(core, bridge)
	}
	return core
}

// newEncoder creates a JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
