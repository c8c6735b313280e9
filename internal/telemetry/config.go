package telemetry

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned by Config.Validate.
var (
	// ErrMissingEndpoint indicates telemetry is enabled without a
	// collector endpoint.
	ErrMissingEndpoint = errors.New("endpoint required")

	// ErrMissingServiceName indicates telemetry is enabled without a
	// service name for the resource.
	ErrMissingServiceName = errors.New("service name required")

	// ErrUnknownProtocol indicates an export protocol other than grpc
	// or http.
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrInvalidRatio indicates a sample ratio outside [0, 1].
	ErrInvalidRatio = errors.New("sample ratio must be between 0 and 1")

	// ErrInvalidInterval indicates a non-positive duration where a
	// positive one is required.
	ErrInvalidInterval = errors.New("duration must be positive")
)

// OTLP export protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Config holds telemetry configuration.
type Config struct {
	// Enabled turns on trace, metric, and log export. When false, New
	// returns an inert instance and instrumented code falls through to
	// the global no-op providers.
	Enabled bool

	// Endpoint is the OTLP collector address as host:port, no scheme.
	Endpoint string

	// Protocol selects the OTLP transport, grpc or http.
	Protocol string

	// Insecure disables TLS toward the collector.
	Insecure bool

	// ServiceName and ServiceVersion identify this process in the
	// exported resource attributes.
	ServiceName    string
	ServiceVersion string

	// SampleRatio is the head sampling ratio for traces in [0, 1].
	// Parent decisions still win so remote spans stay coherent.
	SampleRatio float64

	// ExportInterval is the period between metric exports.
	ExportInterval time.Duration

	// ShutdownTimeout bounds Shutdown when the caller's context
	// carries no deadline of its own.
	ShutdownTimeout time.Duration
}

// ApplyDefaults fills zero-valued fields with production defaults.
// Enabled stays false; operators without a collector should not see
// export errors out of the box.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolGRPC
	}
	if c.ServiceName == "" {
		c.ServiceName = "civicd"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.ExportInterval == 0 {
		c.ExportInterval = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the configuration. Disabled telemetry always
// validates so a bare config never blocks startup.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint: %w", ErrMissingEndpoint)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("telemetry.service_name: %w", ErrMissingServiceName)
	}

	switch c.Protocol {
	case ProtocolGRPC, ProtocolHTTP:
	default:
		return fmt.Errorf("telemetry.protocol: %w: %q", ErrUnknownProtocol, c.Protocol)
	}

	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio: %w: %v", ErrInvalidRatio, c.SampleRatio)
	}
	if c.ExportInterval <= 0 {
		return fmt.Errorf("telemetry.export_interval: %w", ErrInvalidInterval)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("telemetry.shutdown_timeout: %w", ErrInvalidInterval)
	}

	return nil
}
