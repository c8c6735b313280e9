// Package history persists session transcripts in SQLite. The store is
// owned by the shell: the engine itself never writes history, it only
// receives recent exchanges as conversation context.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/civicmind/civicd/internal/engine"
)

var (
	// ErrInvalidConfig indicates missing store settings.
	ErrInvalidConfig = errors.New("invalid history configuration")

	// ErrEmptySession indicates a blank session ID.
	ErrEmptySession = errors.New("session id is empty")
)

// DefaultLimit caps how many exchanges a transcript read returns when
// the caller does not say.
const DefaultLimit = 50

// Record is one stored exchange with its answer provenance.
type Record struct {
	ID         int64       `json:"id"`
	SessionID  string      `json:"session_id"`
	Question   string      `json:"question"`
	Reply      string      `json:"reply"`
	Kind       engine.Kind `json:"kind"`
	Confidence float64     `json:"confidence"`
	Degraded   bool        `json:"degraded"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Config configures the history store.
type Config struct {
	// Path is the SQLite database file location.
	Path string

	// Limit caps transcript reads. Zero means DefaultLimit.
	Limit int
}

// Store is a SQLite-backed transcript store safe for concurrent use.
type Store struct {
	db     *sql.DB
	limit  int
	logger *zap.Logger

	mu sync.RWMutex
}

// New opens (or creates) the database at cfg.Path and prepares the
// schema.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, limit: cfg.Limit, logger: logger}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("history store opened", zap.String("path", cfg.Path))
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		reply TEXT NOT NULL,
		kind TEXT NOT NULL,
		confidence REAL NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Append records one answered exchange for a session.
func (s *Store) Append(ctx context.Context, sessionID, question string, ans engine.Answer) error {
	if sessionID == "" {
		return ErrEmptySession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (session_id, question, reply, kind, confidence, degraded)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, question, ans.Text, ans.Kind.String(), ans.Confidence, boolToInt(ans.Degraded),
	)
	if err != nil {
		return fmt.Errorf("appending exchange: %w", err)
	}
	return nil
}

// Recent returns up to limit exchanges for a session, oldest first.
// limit <= 0 falls back to the configured cap.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, question, reply, kind, confidence, degraded, created_at
		 FROM exchanges
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			kind     string
			degraded int
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Question, &rec.Reply,
			&kind, &rec.Confidence, &degraded, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		if k, err := engine.ParseKind(kind); err == nil {
			rec.Kind = k
		}
		rec.Degraded = degraded != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	// Rows were read newest first; flip to oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Context returns the most recent exchanges shaped for the engine's
// conversation context, oldest first.
func (s *Store) Context(ctx context.Context, sessionID string, turns int) ([]engine.Exchange, error) {
	records, err := s.Recent(ctx, sessionID, turns)
	if err != nil {
		return nil, err
	}
	exchanges := make([]engine.Exchange, len(records))
	for i, rec := range records {
		exchanges[i] = engine.Exchange{Question: rec.Question, Reply: rec.Reply}
	}
	return exchanges, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
