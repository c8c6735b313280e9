// Package strategy implements the four answer strategies the engine
// routes between: curated fact lookup, procedure knowledge, document
// retrieval, and the terminal fallback.
package strategy

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/facts"
)

// ErrNilBackingData indicates a strategy was constructed without its
// backing data source.
var ErrNilBackingData = errors.New("strategy requires backing data")

// cacheConfidence is fixed: directory entries are curated, not inferred.
const cacheConfidence = 0.95

// cacheMarkers route lookup-shaped queries toward the fact directory.
// Entry-specific triggers are merged in from the live snapshot.
var cacheMarkers = engine.TriggerSet{
	"helpline":  2,
	"contact":   2,
	"number":    2,
	"phone":     2,
	"emergency": 2,
	"dial":      1,
	"office":    1,
	"hours":     1,
	"zone":      1,
	"website":   1,
	"timing":    1,
	"timings":   1,
}

// Cache answers directly from the curated fact directory: emergency
// numbers, helplines, zone contacts, and quick facts.
type Cache struct {
	dir    *facts.Directory
	logger *zap.Logger
}

// NewCache creates the cache strategy over a fact directory.
func NewCache(dir *facts.Directory, logger *zap.Logger) (*Cache, error) {
	if dir == nil {
		return nil, ErrNilBackingData
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Kind identifies the strategy.
func (s *Cache) Kind() engine.Kind { return engine.KindCache }

// Triggers merges the static markers with trigger tokens from the
// current directory snapshot.
func (s *Cache) Triggers() engine.TriggerSet {
	return mergeTriggers(cacheMarkers, s.dir.Snapshot().Triggers())
}

// Attempt finds the best-matching directory entry. Ties go to the
// lexically smaller entry key; entries are stored sorted, so the first
// strictly better score wins.
func (s *Cache) Attempt(_ context.Context, q engine.Query) (*engine.Answer, error) {
	snap := s.dir.Snapshot()
	kwSet := keywordSet(q)

	var (
		best      *facts.Entry
		bestScore int
	)
	for i := range snap.Entries {
		entry := &snap.Entries[i]
		score := 0
		for _, trigger := range entry.Triggers {
			score += phraseScore(q, kwSet, trigger)
		}
		if score > bestScore {
			best = entry
			bestScore = score
		}
	}

	if best == nil {
		return nil, engine.ErrDecline
	}

	s.logger.Debug("cache entry matched",
		zap.String("key", best.Key),
		zap.Int("score", bestScore),
	)
	return &engine.Answer{
		Text:       best.Answer,
		Confidence: cacheConfidence,
	}, nil
}

// keywordSet converts a query's keyword slice into a lookup set.
func keywordSet(q engine.Query) map[string]struct{} {
	set := make(map[string]struct{}, len(q.Keywords))
	for _, kw := range q.Keywords {
		set[kw] = struct{}{}
	}
	return set
}

// phraseScore scores one trigger phrase against the query. Multi-word
// phrases match as substrings of the normalized text and count one point
// per token, so "north east" outranks a bare "north". Single tokens
// match against the keyword set for one point.
func phraseScore(q engine.Query, kwSet map[string]struct{}, phrase string) int {
	tokens := engine.NewQuery(phrase).Keywords
	switch len(tokens) {
	case 0:
		return 0
	case 1:
		if _, ok := kwSet[tokens[0]]; ok {
			return 1
		}
		return 0
	default:
		if strings.Contains(q.Normalized, strings.ToLower(phrase)) {
			return len(tokens)
		}
		return 0
	}
}

// mergeTriggers overlays snapshot-derived tokens onto static markers.
// Static weights win on collision; the result is a fresh map each call
// so callers can never mutate shared state.
func mergeTriggers(static, derived engine.TriggerSet) engine.TriggerSet {
	merged := make(engine.TriggerSet, len(static)+len(derived))
	for kw, w := range derived {
		merged[kw] = w
	}
	for kw, w := range static {
		merged[kw] = w
	}
	return merged
}
