package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/knowledge"
)

// ErrNilService indicates New was called without a QueryService.
var ErrNilService = errors.New("query service is required")

// QueryService is the answer surface the MCP tools call. The services
// registry implements it.
type QueryService interface {
	// Ask answers a query. It never fails; a broken pipeline yields a
	// degraded fallback answer.
	Ask(ctx context.Context, text, sessionID string) engine.Answer

	// Explain reports how text would be routed without answering it.
	Explain(text string) engine.Explanation

	// Procedure looks up the procedure for a service and optional action.
	Procedure(service, action string) (knowledge.ProcedureMatch, bool)
}

// Config configures the MCP server identity.
type Config struct {
	// Name is the implementation name advertised to clients.
	Name string

	// Version is the implementation version.
	Version string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "civicd"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Server exposes the civic answer pipeline as MCP tools.
type Server struct {
	mcp     *mcp.Server
	svc     QueryService
	metrics *Metrics
	logger  *zap.Logger
}

// New creates the MCP server and registers the civic tools.
func New(cfg Config, svc QueryService, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, ErrNilService
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		svc:     svc,
		metrics: NewMetrics(logger),
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP on the stdio transport until ctx is canceled or the
// client disconnects. The process log sink must not be stdout while this
// runs; the protocol owns that stream.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
