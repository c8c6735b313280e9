// Package telemetry provides OpenTelemetry instrumentation for civicd.
//
// # Overview
//
// This package wires distributed tracing, metrics, and log export over
// OTLP (gRPC or HTTP) to a collector. Providers are installed as the
// otel globals so instrumented packages can use otel.Tracer and
// otel.Meter without holding a reference to this package.
//
// # Usage
//
// Create a telemetry instance at startup:
//
//	tel, err := telemetry.New(ctx, telemetry.Config{
//	    Enabled:  true,
//	    Endpoint: "localhost:4317",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Use tracer and meter:
//
//	tracer := tel.Tracer("civicd.server")
//	ctx, span := tracer.Start(ctx, "query.answer")
//	defer span.End()
//
// The log provider feeds the zap bridge in the logging package:
//
//	log, err := logging.New(logCfg, tel.LoggerProvider())
//
// # Error Handling
//
// Telemetry failures never crash the daemon. A provider that cannot be
// constructed marks the instance degraded; the remaining signals keep
// exporting and accessors fall back to the global no-op providers.
package telemetry
