package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
)

var tracer = otel.Tracer("civicd.corpus")

var (
	// ErrUnknownIndex indicates an index kind outside the supported set.
	ErrUnknownIndex = errors.New("unknown index kind")

	// ErrEmbedderRequired indicates a vector index was configured
	// without an embedder.
	ErrEmbedderRequired = errors.New("vector index requires an embedder")
)

// Index kinds selectable via configuration.
const (
	IndexKeyword = "keyword"
	IndexChromem = "chromem"
	IndexQdrant  = "qdrant"
)

// Hit is one search result from an index.
type Hit struct {
	// PassageID identifies the matched passage.
	PassageID string

	// DocumentID identifies the originating document.
	DocumentID string

	// Title is the originating document's title.
	Title string

	// Content is the passage text, used as the answer excerpt.
	Content string

	// Score is the index's relevance score in [0, 1], higher is better.
	Score float64
}

// Index searches the corpus for passages relevant to a query.
type Index interface {
	// Upsert indexes the given passages, replacing prior content for
	// the same passage IDs.
	Upsert(ctx context.Context, passages []Passage) error

	// Search returns up to k hits ordered by descending score.
	Search(ctx context.Context, query string, k int) ([]Hit, error)

	// Close releases index resources.
	Close() error
}

// IndexConfig selects and parameterizes an index implementation.
type IndexConfig struct {
	// Kind is one of IndexKeyword, IndexChromem, IndexQdrant.
	// Empty selects IndexKeyword.
	Kind string

	// Collection names the vector collection (chromem and qdrant).
	Collection string

	// PersistPath is the chromem on-disk location. Empty keeps the
	// chromem index in memory.
	PersistPath string

	// Qdrant holds remote index connection settings.
	Qdrant QdrantConfig
}

// NewIndex builds the index selected by cfg.Kind. Vector kinds require a
// non-nil embedder; the keyword kind ignores it.
func NewIndex(cfg IndexConfig, embedder Embedder, logger *zap.Logger) (Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Kind {
	case "", IndexKeyword:
		return NewKeywordIndex(logger), nil
	case IndexChromem:
		return NewChromemIndex(ChromemConfig{
			Collection: cfg.Collection,
			Path:       cfg.PersistPath,
		}, embedder, logger)
	case IndexQdrant:
		qcfg := cfg.Qdrant
		if qcfg.Collection == "" {
			qcfg.Collection = cfg.Collection
		}
		return NewQdrantIndex(qcfg, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, cfg.Kind)
	}
}

// KeywordIndex scores passages by unique-term-overlap ratio: the share of
// query terms present in the passage. In-memory, no network, and fully
// deterministic, which makes it the default.
type KeywordIndex struct {
	logger *zap.Logger

	mu       sync.RWMutex
	passages []Passage
	terms    []map[string]struct{}
}

// NewKeywordIndex creates an empty keyword index.
func NewKeywordIndex(logger *zap.Logger) *KeywordIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordIndex{logger: logger}
}

// Upsert replaces the indexed passage set.
func (idx *KeywordIndex) Upsert(_ context.Context, passages []Passage) error {
	terms := make([]map[string]struct{}, len(passages))
	for i, p := range passages {
		set := make(map[string]struct{})
		for _, kw := range engine.NewQuery(p.Content).Keywords {
			set[kw] = struct{}{}
		}
		terms[i] = set
	}

	idx.mu.Lock()
	idx.passages = append([]Passage(nil), passages...)
	idx.terms = terms
	idx.mu.Unlock()

	idx.logger.Debug("keyword index rebuilt", zap.Int("passages", len(passages)))
	return nil
}

// Search ranks passages by overlap ratio, ties broken by passage ID.
func (idx *KeywordIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	_, span := tracer.Start(ctx, "corpus.keyword_search")
	defer span.End()

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	keywords := engine.NewQuery(query).Keywords
	if len(keywords) == 0 {
		return []Hit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]Hit, 0, len(idx.passages))
	for i, p := range idx.passages {
		matched := 0
		for _, kw := range keywords {
			if _, ok := idx.terms[i][kw]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, Hit{
			PassageID:  p.ID,
			DocumentID: p.DocumentID,
			Title:      p.Title,
			Content:    p.Content,
			Score:      float64(matched) / float64(len(keywords)),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].PassageID < hits[j].PassageID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op for the in-memory index.
func (idx *KeywordIndex) Close() error { return nil }
