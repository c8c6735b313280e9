package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Errors for logger construction.
var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

// Config holds logger construction settings.
type Config struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string

	// Format is json or console.
	Format string

	// Stdout writes to stdout; otherwise stderr. Stdio transports must
	// keep stdout clean for the protocol and leave this false.
	Stdout bool

	// OTel tees records to the OpenTelemetry log bridge when a provider
	// is supplied to New.
	OTel bool

	// Service names the otelzap instrumentation scope.
	Service string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Service == "" {
		c.Service = "civicd"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	return nil
}
