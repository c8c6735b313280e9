// Package facts holds the curated static fact directory backing the cache
// strategy: emergency numbers, government and helpline contacts, zone
// offices, and quick reference facts. Entries load from JSON or from the
// built-in defaults, and reloads swap an immutable snapshot atomically so
// concurrent readers never observe partial state.
package facts

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

// Errors for fact directory operations.
var (
	ErrNoEntries    = errors.New("fact directory has no entries")
	ErrInvalidEntry = errors.New("invalid fact entry")
	ErrDuplicateKey = errors.New("duplicate fact key")
)

// Entry categories.
const (
	CategoryEmergency  = "emergency"
	CategoryGovernment = "government"
	CategoryHelpline   = "helpline"
	CategoryZone       = "zone"
	CategoryInfo       = "info"
)

// Entry is one curated fact: trigger phrases mapped to a preformatted
// answer. Multi-word triggers match as substrings of the normalized query;
// single-word triggers match against the query keyword set.
type Entry struct {
	Key      string   `json:"key"`
	Category string   `json:"category"`
	Triggers []string `json:"triggers"`
	Answer   string   `json:"answer"`
}

// fileData is the persisted directory structure.
type fileData struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Snapshot is an immutable view of the directory. Entries are sorted by
// key so matching ties resolve deterministically.
type Snapshot struct {
	Entries  []Entry
	triggers map[string]float64
}

// Triggers returns the classification keyword weights derived from every
// entry's trigger phrases. The returned map is shared and must not be
// mutated.
func (s *Snapshot) Triggers() map[string]float64 {
	return s.triggers
}

// newSnapshot validates entries and precomputes the trigger keyword set.
func newSnapshot(entries []Entry) (*Snapshot, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	seen := make(map[string]bool, len(sorted))
	triggers := make(map[string]float64)
	for _, e := range sorted {
		if e.Key == "" || e.Answer == "" || len(e.Triggers) == 0 {
			return nil, fmt.Errorf("%w: key=%q", ErrInvalidEntry, e.Key)
		}
		if seen[e.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		seen[e.Key] = true

		// Trigger phrases are tokenized with the engine's keyword rules so
		// classification sees exactly the tokens a query would produce.
		for _, phrase := range e.Triggers {
			for _, token := range engine.NewQuery(phrase).Keywords {
				if triggers[token] < 1 {
					triggers[token] = 1
				}
			}
		}
	}

	return &Snapshot{Entries: sorted, triggers: triggers}, nil
}

// Directory serves immutable fact snapshots. Safe for concurrent use:
// readers load the current snapshot pointer, reloads swap it atomically.
type Directory struct {
	path   string
	logger *zap.Logger
	snap   atomic.Pointer[Snapshot]
}

// New loads the directory from the JSON file at path, or from the built-in
// defaults when path is empty.
func New(path string, logger *zap.Logger) (*Directory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{path: path, logger: logger}

	snap, err := d.load()
	if err != nil {
		return nil, err
	}
	d.snap.Store(snap)
	d.logger.Info("fact directory loaded",
		zap.Int("entries", len(snap.Entries)),
		zap.String("path", path),
	)
	return d, nil
}

// NewWithDefaults builds a directory that serves the built-in entries
// while staying bound to path. Used when the configured file cannot be
// loaded at startup: the daemon comes up degraded, and once the file is
// fixed a Reload recovers the real data.
func NewWithDefaults(path string, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{path: path, logger: logger}
	snap, err := newSnapshot(DefaultEntries())
	if err != nil {
		// The built-in entries are static and covered by tests.
		panic(err)
	}
	d.snap.Store(snap)
	return d
}

// Snapshot returns the current immutable view.
func (d *Directory) Snapshot() *Snapshot {
	return d.snap.Load()
}

// Reload re-reads the backing file and swaps the snapshot on success. On
// failure the previous snapshot stays in place and the error is returned.
func (d *Directory) Reload() error {
	snap, err := d.load()
	if err != nil {
		d.logger.Warn("fact directory reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	d.snap.Store(snap)
	d.logger.Info("fact directory reloaded", zap.Int("entries", len(snap.Entries)))
	return nil
}

func (d *Directory) load() (*Snapshot, error) {
	if d.path == "" {
		return newSnapshot(DefaultEntries())
	}

	raw, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read fact directory: %w", err)
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse fact directory: %w", err)
	}
	return newSnapshot(data.Entries)
}
