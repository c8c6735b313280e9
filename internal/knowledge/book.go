// Package knowledge holds the structured civic knowledge book backing the
// knowledge strategy: departments, services, common issues, and procedure
// templates with ordered steps. Loads from JSON or built-in defaults and
// swaps immutable snapshots atomically on reload.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
)

// Errors for knowledge book operations.
var (
	ErrNoProcedures     = errors.New("knowledge book has no procedures")
	ErrInvalidProcedure = errors.New("invalid procedure")
	ErrUnknownReference = errors.New("unknown entity reference")
)

// Department is a civic body that owns services.
type Department struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Contact string `json:"contact,omitempty"`
}

// Service is one civic service owned by a department.
type Service struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Issue is a common complaint linked to the service that handles it.
// Terms are the phrases that identify the issue in a query.
type Issue struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Service string   `json:"service"`
	Terms   []string `json:"terms"`
}

// Step is one ordered procedure step: a short label plus the full
// instruction.
type Step struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// Procedure is a template for a multi-step civic process, keyed by its
// service terms (what it is about) and action terms (what the user wants
// to do).
type Procedure struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	ServiceTerms []string `json:"service_terms"`
	ActionTerms  []string `json:"action_terms"`
	Steps        []Step   `json:"steps"`
	Documents    []string `json:"documents,omitempty"`
	Fees         string   `json:"fees,omitempty"`
	Timeline     string   `json:"timeline,omitempty"`
	Contact      string   `json:"contact,omitempty"`
}

// fileData is the persisted book structure.
type fileData struct {
	Version     int          `json:"version"`
	Departments []Department `json:"departments"`
	Services    []Service    `json:"services"`
	Issues      []Issue      `json:"issues"`
	Procedures  []Procedure  `json:"procedures"`
}

// Snapshot is an immutable view of the book with lookup indexes and the
// precomputed classification trigger set.
type Snapshot struct {
	Departments []Department
	Services    []Service
	Issues      []Issue
	Procedures  []Procedure

	departmentByID map[string]*Department
	serviceByID    map[string]*Service
	triggers       map[string]float64
}

// DepartmentByID resolves a department reference.
func (s *Snapshot) DepartmentByID(id string) (*Department, bool) {
	d, ok := s.departmentByID[id]
	return d, ok
}

// ServiceByID resolves a service reference.
func (s *Snapshot) ServiceByID(id string) (*Service, bool) {
	svc, ok := s.serviceByID[id]
	return svc, ok
}

// Triggers returns the classification keyword weights derived from
// procedure and issue terms. Shared; must not be mutated.
func (s *Snapshot) Triggers() map[string]float64 {
	return s.triggers
}

// newSnapshot validates the book, builds indexes, and precomputes
// triggers. Procedures and issues are sorted by ID so matching ties
// resolve deterministically.
func newSnapshot(data fileData) (*Snapshot, error) {
	if len(data.Procedures) == 0 {
		return nil, ErrNoProcedures
	}

	snap := &Snapshot{
		Departments:    data.Departments,
		Services:       data.Services,
		Issues:         data.Issues,
		Procedures:     data.Procedures,
		departmentByID: make(map[string]*Department, len(data.Departments)),
		serviceByID:    make(map[string]*Service, len(data.Services)),
		triggers:       make(map[string]float64),
	}

	sort.Slice(snap.Procedures, func(i, j int) bool { return snap.Procedures[i].ID < snap.Procedures[j].ID })
	sort.Slice(snap.Issues, func(i, j int) bool { return snap.Issues[i].ID < snap.Issues[j].ID })

	for i := range snap.Departments {
		d := &snap.Departments[i]
		snap.departmentByID[d.ID] = d
	}
	for i := range snap.Services {
		svc := &snap.Services[i]
		snap.serviceByID[svc.ID] = svc
		if _, ok := snap.departmentByID[svc.Department]; !ok {
			return nil, fmt.Errorf("%w: service %s department %s", ErrUnknownReference, svc.ID, svc.Department)
		}
	}

	for _, p := range snap.Procedures {
		if p.ID == "" || p.Title == "" || len(p.Steps) == 0 || len(p.ServiceTerms) == 0 {
			return nil, fmt.Errorf("%w: id=%q", ErrInvalidProcedure, p.ID)
		}
		if _, ok := snap.departmentByID[p.Department]; !ok {
			return nil, fmt.Errorf("%w: procedure %s department %s", ErrUnknownReference, p.ID, p.Department)
		}
		addTriggerTokens(snap.triggers, p.ServiceTerms)
		addTriggerTokens(snap.triggers, p.ActionTerms)
	}
	for _, issue := range snap.Issues {
		if _, ok := snap.serviceByID[issue.Service]; !ok {
			return nil, fmt.Errorf("%w: issue %s service %s", ErrUnknownReference, issue.ID, issue.Service)
		}
		addTriggerTokens(snap.triggers, issue.Terms)
	}

	return snap, nil
}

// addTriggerTokens folds the phrases' keyword tokens into the trigger set,
// using the engine's tokenization so triggers align with query keywords.
func addTriggerTokens(triggers map[string]float64, phrases []string) {
	for _, phrase := range phrases {
		for _, token := range engine.NewQuery(phrase).Keywords {
			if triggers[token] < 1 {
				triggers[token] = 1
			}
		}
	}
}

// Book serves immutable knowledge snapshots. Safe for concurrent use.
type Book struct {
	path   string
	logger *zap.Logger
	snap   atomic.Pointer[Snapshot]
}

// New loads the book from the JSON file at path, or from the built-in
// defaults when path is empty.
func New(path string, logger *zap.Logger) (*Book, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Book{path: path, logger: logger}

	snap, err := b.load()
	if err != nil {
		return nil, err
	}
	b.snap.Store(snap)
	b.logger.Info("knowledge book loaded",
		zap.Int("procedures", len(snap.Procedures)),
		zap.Int("issues", len(snap.Issues)),
		zap.String("path", path),
	)
	return b, nil
}

// NewWithDefaults builds a book that serves the built-in set while
// staying bound to path. Used when the configured file cannot be loaded
// at startup: the daemon comes up degraded, and once the file is fixed a
// Reload recovers the real data.
func NewWithDefaults(path string, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Book{path: path, logger: logger}
	snap, err := newSnapshot(defaultBook())
	if err != nil {
		// The built-in book is static and covered by tests.
		panic(err)
	}
	b.snap.Store(snap)
	return b
}

// Snapshot returns the current immutable view.
func (b *Book) Snapshot() *Snapshot {
	return b.snap.Load()
}

// Reload re-reads the backing file and swaps the snapshot on success,
// keeping the previous snapshot on failure.
func (b *Book) Reload() error {
	snap, err := b.load()
	if err != nil {
		b.logger.Warn("knowledge book reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	b.snap.Store(snap)
	b.logger.Info("knowledge book reloaded", zap.Int("procedures", len(snap.Procedures)))
	return nil
}

func (b *Book) load() (*Snapshot, error) {
	if b.path == "" {
		return newSnapshot(defaultBook())
	}

	raw, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge book: %w", err)
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse knowledge book: %w", err)
	}
	return newSnapshot(data)
}
