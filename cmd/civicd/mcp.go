package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/civicmind/civicd/internal/logging"
	"github.com/civicmind/civicd/internal/mcp"
	"github.com/civicmind/civicd/internal/services"
)

// runMCP serves the civic tools over stdio and blocks until ctx is
// cancelled. Stdout carries the protocol, so the startup notice and
// all logging go to stderr.
func runMCP(ctx context.Context, registry *services.Registry, logger *logging.Logger) error {
	fmt.Fprintf(os.Stderr, "civicd %s serving MCP tools on stdio (Ctrl+C to stop)\n", version)

	srv, err := mcp.New(mcp.Config{
		Name:    "civicd",
		Version: version,
	}, registry, logger.Underlying().Named("mcp"))
	if err != nil {
		return fmt.Errorf("initializing mcp server: %w", err)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info(context.Background(), "mcp server shutdown complete")
	return nil
}
