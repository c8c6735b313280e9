package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/history"
	"github.com/civicmind/civicd/internal/logging"
)

// QueryRequest is the body for POST /v1/queries.
type QueryRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse is the body for POST /v1/queries. Elapsed is exposed
// in milliseconds for API consumers.
type AnswerResponse struct {
	engine.Answer
	ElapsedMS int64 `json:"elapsed_ms"`
}

// HistoryResponse is the body for GET /v1/sessions/:id/history.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Exchanges []history.Record `json:"exchanges"`
}

// HealthResponse is the body for GET /healthz.
type HealthResponse struct {
	Status     string          `json:"status"`
	Strategies map[string]bool `json:"strategies"`
}

// handleQuery answers one query. Empty or nonsense text still gets an
// answer; the router degrades to fallback rather than erroring, so the
// only client error here is an unreadable body.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if req.SessionID != "" {
		ctx = logging.WithSessionID(ctx, req.SessionID)
	}

	answer := s.svc.Ask(ctx, req.Text, req.SessionID)
	return c.JSON(http.StatusOK, AnswerResponse{
		Answer:    answer,
		ElapsedMS: answer.Elapsed.Milliseconds(),
	})
}

// handleExplain reports routing diagnostics for the q parameter.
func (s *Server) handleExplain(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Explain(c.QueryParam("q")))
}

// handleHistory returns a session transcript, oldest exchange first.
func (s *Server) handleHistory(c echo.Context) error {
	sessionID := c.Param("id")

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	ctx := logging.WithSessionID(c.Request().Context(), sessionID)
	records, err := s.svc.History(ctx, sessionID, limit)
	if err != nil {
		s.logger.Error(ctx, "history read failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "history unavailable")
	}
	if records == nil {
		records = []history.Record{}
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Exchanges: records,
	})
}

// handleHealth reports per-strategy availability. Status degrades when
// any registered strategy is switched off, but the endpoint itself
// always answers 200 while the process is up.
func (s *Server) handleHealth(c echo.Context) error {
	availability := s.svc.Availability()

	status := "ok"
	strategies := make(map[string]bool, len(availability))
	for kind, ok := range availability {
		strategies[kind.String()] = ok
		if !ok {
			status = "degraded"
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:     status,
		Strategies: strategies,
	})
}
