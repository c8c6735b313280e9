// Package server provides the HTTP API for civicd.
//
// The API surface is small: one query endpoint, an explain endpoint for
// routing diagnostics, session transcripts, health, and Prometheus
// metrics. Handlers stay thin; answer composition lives behind the
// QueryService interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/history"
	"github.com/civicmind/civicd/internal/logging"
)

// ErrNilService indicates New was called without a QueryService.
var ErrNilService = errors.New("query service is required")

// QueryService is the answer surface the handlers talk to. The services
// registry implements it over the router and history store.
type QueryService interface {
	// Ask answers a query. It never fails; a broken pipeline yields a
	// degraded fallback answer. A non-empty sessionID attaches recent
	// conversation context and records the exchange.
	Ask(ctx context.Context, text, sessionID string) engine.Answer

	// Explain reports how text would be routed without answering it.
	Explain(text string) engine.Explanation

	// History returns a session's recent exchanges, oldest first.
	// limit <= 0 means the store's configured cap.
	History(ctx context.Context, sessionID string, limit int) ([]history.Record, error)

	// Availability reports the current per-strategy availability flags.
	Availability() map[engine.Kind]bool
}

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address, host optional.
	Addr string

	// ReadTimeout and WriteTimeout bound each request on the underlying
	// http.Server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ShutdownTimeout bounds the drain during graceful shutdown.
	ShutdownTimeout time.Duration

	// RateLimit is the sustained per-client request rate in requests
	// per second. Zero or negative disables rate limiting.
	RateLimit float64

	// RateBurst is the per-client burst allowance.
	RateBurst int
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8480"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.RateBurst == 0 {
		c.RateBurst = 40
	}
}

// Server is the civicd HTTP API.
type Server struct {
	echo   *echo.Echo
	svc    QueryService
	logger *logging.Logger
	config Config
}

// New builds the server with routes and middleware registered. It does
// not listen until Start.
func New(cfg Config, svc QueryService, logger *logging.Logger) (*Server, error) {
	if svc == nil {
		return nil, ErrNilService
	}
	if logger == nil {
		logger = logging.Nop()
	}
	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &Server{
		echo:   e,
		svc:    svc,
		logger: logger,
		config: cfg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestContext)
	e.Use(s.requestLogger)
	e.Use(metricsMiddleware)
	e.Use(middleware.BodyLimit("1M"))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.POST("/v1/queries", s.handleQuery)
	s.echo.GET("/v1/queries/explain", s.handleExplain)
	s.echo.GET("/v1/sessions/:id/history", s.handleHistory)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler()))
}

// requestContext copies the request ID assigned by the RequestID
// middleware into the request context so every log line and span under
// this request carries it.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

// Start listens on the configured address and blocks until ctx is
// cancelled or the listener fails. Cancellation drains in-flight
// requests within the shutdown timeout and returns
// http.ErrServerClosed.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "starting http server", zap.String("addr", s.config.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown drains the server without waiting for ctx cancellation.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
