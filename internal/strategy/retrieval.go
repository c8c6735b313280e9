package strategy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/corpus"
	"github.com/civicmind/civicd/internal/engine"
)

// Retrieval defaults.
const (
	DefaultTopK           = 3
	DefaultRelevanceFloor = 0.12
)

// retrievalMarkers route freshness-shaped queries toward the document
// corpus. Document title tokens are merged in from the live snapshot.
var retrievalMarkers = engine.TriggerSet{
	"latest":       2,
	"recent":       2,
	"update":       2,
	"guidelines":   2,
	"2025":         2,
	"current":      1,
	"new":          1,
	"report":       1,
	"schedule":     1,
	"timings":      1,
	"rules":        1,
	"notification": 1,
	"advisory":     1,
	"today":        1,
}

// RetrievalOptions tune the retrieval strategy.
type RetrievalOptions struct {
	// TopK is how many passages to search for. Zero means DefaultTopK.
	TopK int

	// RelevanceFloor is the minimum top score to answer at all. Zero
	// means DefaultRelevanceFloor.
	RelevanceFloor float64
}

// Retrieval answers from the civic document corpus: guidelines, rules,
// schedules, and advisories. Confidence scales with the top hit and the
// margin over the runner-up, so a single dominant passage scores higher
// than a flat profile.
type Retrieval struct {
	corpus *corpus.Corpus
	index  corpus.Index
	topK   int
	floor  float64
	logger *zap.Logger
}

// NewRetrieval creates the retrieval strategy over a corpus and its
// search index.
func NewRetrieval(c *corpus.Corpus, index corpus.Index, opts RetrievalOptions, logger *zap.Logger) (*Retrieval, error) {
	if c == nil || index == nil {
		return nil, ErrNilBackingData
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.RelevanceFloor <= 0 {
		opts.RelevanceFloor = DefaultRelevanceFloor
	}
	return &Retrieval{
		corpus: c,
		index:  index,
		topK:   opts.TopK,
		floor:  opts.RelevanceFloor,
		logger: logger,
	}, nil
}

// Kind identifies the strategy.
func (s *Retrieval) Kind() engine.Kind { return engine.KindRetrieval }

// Triggers merges the static markers with document title tokens from the
// current corpus snapshot.
func (s *Retrieval) Triggers() engine.TriggerSet {
	return mergeTriggers(retrievalMarkers, s.corpus.Snapshot().Triggers())
}

// Attempt searches the index and composes the top excerpts into one
// answer. Index errors are genuine faults, not declines.
func (s *Retrieval) Attempt(ctx context.Context, q engine.Query) (*engine.Answer, error) {
	hits, err := s.index.Search(ctx, q.Raw, s.topK)
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}
	if len(hits) == 0 {
		return nil, engine.ErrDecline
	}

	top := hits[0].Score
	if top < s.floor {
		s.logger.Debug("retrieval below relevance floor",
			zap.Float64("top", top),
			zap.Float64("floor", s.floor),
		)
		return nil, engine.ErrDecline
	}

	margin := 1.0
	if len(hits) > 1 && top > 0 {
		margin = (top - hits[1].Score) / top
	}
	confidence := top * (0.7 + 0.3*margin)

	var b strings.Builder
	sources := make([]engine.Source, len(hits))
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(hit.Content)
		sources[i] = engine.Source{
			ID:    hit.DocumentID,
			Title: hit.Title,
			Score: hit.Score,
		}
	}

	return &engine.Answer{
		Text:       b.String(),
		Confidence: confidence,
		Sources:    sources,
	}, nil
}
