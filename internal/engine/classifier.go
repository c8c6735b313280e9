package engine

import (
	"sort"
)

// Classifier scores a query against every registered strategy's trigger
// set and produces the ordered candidate list. Pure: no clock, no
// randomness, no state mutation, so the same query text against unchanged
// trigger sets always yields the same CandidateList.
type Classifier struct {
	strategies []Strategy
	minScore   float64
}

// NewClassifier builds a classifier over the given strategies. minScore is
// the exclusive floor a score must exceed to produce a candidate; the
// default 0 excludes exactly the zero-score strategies.
func NewClassifier(strategies []Strategy, minScore float64) *Classifier {
	ordered := make([]Strategy, len(strategies))
	copy(ordered, strategies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind() < ordered[j].Kind()
	})
	return &Classifier{strategies: ordered, minScore: minScore}
}

// Classify returns candidates ordered by score descending, ties broken by
// Kind priority. Strategies scoring at or below the minimum are excluded.
// When nothing qualifies (no keywords, or no trigger overlap) the list is
// exactly one zero-score fallback candidate.
func (c *Classifier) Classify(q Query) CandidateList {
	candidates := make(CandidateList, 0, len(c.strategies))
	for _, s := range c.strategies {
		score := matchScore(q, s.Triggers())
		if score > c.minScore {
			candidates = append(candidates, Candidate{Kind: s.Kind(), Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Kind < candidates[j].Kind
	})

	if len(candidates) == 0 {
		return CandidateList{{Kind: KindFallback, Score: 0}}
	}
	return candidates
}

// Scores returns the raw match score for every registered strategy,
// including zeros, in Kind priority order. Availability and thresholds are
// filled in by the router when assembling an Explanation.
func (c *Classifier) Scores(q Query) []StrategyScore {
	scores := make([]StrategyScore, 0, len(c.strategies))
	for _, s := range c.strategies {
		scores = append(scores, StrategyScore{
			Kind:  s.Kind(),
			Score: matchScore(q, s.Triggers()),
		})
	}
	return scores
}

// matchScore sums the trigger weights of the query keywords present in the
// set, normalized by the query keyword count.
func matchScore(q Query, triggers TriggerSet) float64 {
	if len(q.Keywords) == 0 || len(triggers) == 0 {
		return 0
	}
	var total float64
	for _, kw := range q.Keywords {
		total += triggers[kw]
	}
	return total / float64(len(q.Keywords))
}
