// Civicd is the civic information daemon.
//
// It answers resident questions about municipal services over an HTTP
// API, routing each query through cached facts, the structured service
// knowledge base, passage retrieval, and a generative fallback.
//
// Usage:
//
//	# Start the daemon with defaults
//	civicd
//
//	# Point at a config file and override the listen address
//	civicd -config /etc/civicd/config.yaml -addr :9000
//
//	# Serve MCP tools over stdio for agent integration
//	civicd mcp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/config"
	"github.com/civicmind/civicd/internal/logging"
	"github.com/civicmind/civicd/internal/server"
	"github.com/civicmind/civicd/internal/services"
	"github.com/civicmind/civicd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	listenAddr = flag.String("addr", "", "listen address override (host:port)")
)

func main() {
	flag.Parse()
	args := flag.Args()

	mcpMode := false
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		case "mcp":
			mcpMode = true
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  civicd            Start the HTTP daemon\n")
			fmt.Fprintf(os.Stderr, "  civicd mcp        Serve MCP tools over stdio\n")
			fmt.Fprintf(os.Stderr, "  civicd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, mcpMode); err != nil {
		log.Fatalf("civicd: %v", err)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("civicd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run boots the daemon and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Starts telemetry (inert providers when export is disabled)
//  3. Builds the structured logger, teed to OTel when configured
//  4. Wires the services registry (civic data, index, router, history)
//  5. Serves HTTP, or MCP over stdio in mcp mode
//
// Shutdown runs in reverse: the server drains in-flight requests, the
// registry closes its watcher and stores, logs flush, telemetry exports
// what it buffered.
func run(ctx context.Context, mcpMode bool) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if *listenAddr != "" {
		cfg.Server.Addr = *listenAddr
	}

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Protocol:       cfg.Telemetry.Protocol,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	}, nil)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logger, err := newLogger(cfg, tel, mcpMode)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if tel.Degraded() {
		logger.Warn(ctx, "telemetry export degraded, some signals are not exported")
	}

	logger.Info(ctx, "starting civicd",
		zap.String("version", version),
		zap.String("commit", gitCommit),
		zap.String("addr", cfg.Server.Addr),
		zap.Bool("mcp_mode", mcpMode))

	registry, err := services.New(ctx, *cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn(context.Background(), "closing services", zap.Error(err))
		}
	}()

	if mcpMode {
		return runMCP(ctx, registry, logger)
	}

	srv, err := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	}, registry, logger)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info(context.Background(), "civicd shutdown complete")
	return nil
}

// newLogger builds the process logger. In mcp mode stdout belongs to
// the protocol, so logs are forced onto stderr whatever the config
// says.
func newLogger(cfg *config.Config, tel *telemetry.Telemetry, mcpMode bool) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Stdout:  cfg.Logging.Stdout && !mcpMode,
		OTel:    cfg.Logging.OTel,
		Service: cfg.Telemetry.ServiceName,
	}, tel.LoggerProvider())
}
