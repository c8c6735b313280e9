// Package corpus manages the civic document corpus: published guidelines,
// rules, schedules, and directories that back the retrieval strategy.
//
// Documents are split into passages so search hits carry a focused excerpt
// rather than an entire bulletin. The corpus holds an immutable snapshot
// behind an atomic pointer; Reload swaps the snapshot without blocking
// concurrent readers, and a failed reload keeps the previous snapshot.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
)

var (
	// ErrNoDocuments indicates the corpus directory contained no usable
	// text files.
	ErrNoDocuments = errors.New("corpus contains no documents")

	// ErrEmptyDocument indicates a document had no content after trimming.
	ErrEmptyDocument = errors.New("document has no content")
)

// maxPassageChars bounds passage growth during paragraph accumulation.
// Paragraphs are merged until the next one would push a passage past
// this limit.
const maxPassageChars = 500

// Document is one source file in the corpus.
type Document struct {
	// ID is the document identifier, derived from the file name
	// without extension (e.g. "water_supply_guidelines").
	ID string

	// Title is a human-readable name derived from the ID.
	Title string

	// Passages are the retrieval units the document was split into.
	Passages []Passage
}

// Passage is a retrieval unit: a run of consecutive paragraphs from one
// document, capped in size so excerpts stay focused.
type Passage struct {
	// ID is stable across loads of the same content:
	// "<document id>#<ordinal>".
	ID string

	// DocumentID identifies the originating document.
	DocumentID string

	// Title is the originating document's title.
	Title string

	// Content is the passage text.
	Content string
}

// Snapshot is an immutable view of the loaded corpus.
type Snapshot struct {
	// Documents are sorted by ID.
	Documents []Document

	passages []Passage
	triggers engine.TriggerSet
}

// Passages returns every passage across all documents, in document order.
func (s *Snapshot) Passages() []Passage {
	return s.passages
}

// Triggers returns routing keywords derived from document titles. Each
// title token carries weight 1 so freshly published documents start
// attracting their own queries without a marker-table change.
func (s *Snapshot) Triggers() engine.TriggerSet {
	return s.triggers
}

func newSnapshot(docs []Document) (*Snapshot, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	snap := &Snapshot{
		Documents: docs,
		triggers:  make(engine.TriggerSet),
	}
	for _, doc := range docs {
		snap.passages = append(snap.passages, doc.Passages...)
		for _, kw := range engine.NewQuery(doc.Title).Keywords {
			if _, ok := snap.triggers[kw]; !ok {
				snap.triggers[kw] = 1
			}
		}
	}
	return snap, nil
}

// Corpus loads civic documents from a directory of UTF-8 text files and
// serves immutable snapshots to concurrent readers.
type Corpus struct {
	dir    string
	logger *zap.Logger
	snap   atomic.Pointer[Snapshot]
}

// New creates a Corpus backed by the text files under dir. An empty dir
// loads the built-in document set so the daemon answers retrieval
// queries out of the box.
func New(dir string, logger *zap.Logger) (*Corpus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Corpus{dir: dir, logger: logger}

	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	c.snap.Store(snap)

	logger.Info("corpus loaded",
		zap.String("dir", dir),
		zap.Int("documents", len(snap.Documents)),
		zap.Int("passages", len(snap.passages)),
	)
	return c, nil
}

// NewWithDefaults builds a corpus that serves the built-in documents
// while staying bound to dir. Used when the configured directory cannot
// be read at startup: the daemon comes up degraded, and once the
// directory is fixed a Reload recovers the real documents.
func NewWithDefaults(dir string, logger *zap.Logger) *Corpus {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Corpus{dir: dir, logger: logger}
	snap, err := newSnapshot(DefaultDocuments())
	if err != nil {
		// The built-in documents are static and covered by tests.
		panic(err)
	}
	c.snap.Store(snap)
	return c
}

// Snapshot returns the current immutable corpus view.
func (c *Corpus) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Reload re-reads the document directory and swaps the snapshot. On
// failure the previous snapshot stays in place.
func (c *Corpus) Reload() error {
	snap, err := c.load()
	if err != nil {
		c.logger.Warn("corpus reload failed, keeping previous snapshot",
			zap.String("dir", c.dir),
			zap.Error(err),
		)
		return err
	}
	c.snap.Store(snap)
	c.logger.Info("corpus reloaded",
		zap.Int("documents", len(snap.Documents)),
		zap.Int("passages", len(snap.passages)),
	)
	return nil
}

func (c *Corpus) load() (*Snapshot, error) {
	if c.dir == "" {
		return newSnapshot(DefaultDocuments())
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus dir %s: %w", c.dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext := filepath.Ext(name); ext != ".txt" && ext != ".md" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", name, err)
		}

		doc, err := ParseDocument(name, string(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing document %s: %w", name, err)
		}
		docs = append(docs, doc)
	}

	return newSnapshot(docs)
}

// ParseDocument splits raw document text into passages. The document ID
// is the file name without extension; the title is the ID with
// underscores spelled out.
func ParseDocument(filename, content string) (Document, error) {
	id := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	doc := Document{
		ID:    id,
		Title: titleFromID(id),
	}

	var (
		current strings.Builder
		ordinal int
	)
	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" {
			return
		}
		doc.Passages = append(doc.Passages, Passage{
			ID:         fmt.Sprintf("%s#%d", id, ordinal),
			DocumentID: id,
			Title:      doc.Title,
			Content:    text,
		})
		ordinal++
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) >= maxPassageChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	if len(doc.Passages) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	return doc, nil
}

func titleFromID(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
