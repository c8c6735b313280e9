// Package engine implements the query routing core: classification of a
// free-text civic query into an ordered list of candidate strategies,
// priority-ordered strategy invocation with short-circuit acceptance, and
// composition of the final Answer with provenance metadata.
package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one answer-generation strategy. Declaration order is the
// selection priority used to break classification ties: cache lookups are
// cheapest and most precise, fallback is the generic catch-all and must
// never preempt a specific match.
type Kind int

const (
	// KindCache answers from the curated static fact directory.
	KindCache Kind = iota
	// KindKnowledge answers from the structured procedure book.
	KindKnowledge
	// KindRetrieval answers from the ranked document corpus.
	KindRetrieval
	// KindFallback answers conversationally and never declines.
	KindFallback

	kindCount = int(KindFallback) + 1
)

// Kinds returns all strategy kinds in priority order.
func Kinds() []Kind {
	return []Kind{KindCache, KindKnowledge, KindRetrieval, KindFallback}
}

// String returns the lowercase wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCache:
		return "cache"
	case KindKnowledge:
		return "knowledge"
	case KindRetrieval:
		return "retrieval"
	case KindFallback:
		return "fallback"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether the kind is one of the declared strategy kinds.
func (k Kind) Valid() bool {
	return k >= KindCache && int(k) < kindCount
}

// ParseKind converts a wire name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cache":
		return KindCache, nil
	case "knowledge":
		return KindKnowledge, nil
	case "retrieval":
		return KindRetrieval, nil
	case "fallback":
		return KindFallback, nil
	default:
		return 0, fmt.Errorf("unknown strategy kind %q", s)
	}
}

// MarshalJSON encodes the kind as its string name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its string name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Candidate is one classification result: a strategy kind and its match
// score against the query keyword set.
type Candidate struct {
	Kind  Kind    `json:"kind"`
	Score float64 `json:"score"`
}

// CandidateList is the ordered output of classification, highest score
// first, ties broken by Kind priority. Transient, scoped to one request.
type CandidateList []Candidate

// Source is a provenance reference to the document, procedure, or fact
// entry an answer was produced from.
type Source struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Outcome records how one strategy attempt ended.
type Outcome string

const (
	// OutcomeAccepted means the strategy answered at or above its threshold.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDeclined means the strategy reported it was not applicable.
	OutcomeDeclined Outcome = "declined"
	// OutcomeBelowThreshold means the answer's confidence was too low to accept.
	OutcomeBelowThreshold Outcome = "below_threshold"
	// OutcomeFault means the strategy failed or panicked; treated as a decline.
	OutcomeFault Outcome = "fault"
	// OutcomeUnavailable means the strategy was skipped by its availability flag.
	OutcomeUnavailable Outcome = "unavailable"
)

// Attempt is one entry in the fallback-chain provenance trail attached to
// the final Answer.
type Attempt struct {
	Kind       Kind    `json:"kind"`
	Outcome    Outcome `json:"outcome"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Answer is the single composed response for one query. Produced once per
// request and immutable afterwards; the engine does not persist it.
type Answer struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Kind       Kind          `json:"kind"`
	Confidence float64       `json:"confidence"`
	Sources    []Source      `json:"sources,omitempty"`
	Degraded   bool          `json:"degraded"`
	Attempts   []Attempt     `json:"attempts,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// Exchange is one past conversation turn, owned by the caller and passed
// in explicitly. Consumed only by the fallback strategy's prompt
// construction, never by classification.
type Exchange struct {
	Question string `json:"question"`
	Reply    string `json:"reply"`
}

// StrategyScore is one per-strategy row in an Explanation, including
// strategies that scored zero.
type StrategyScore struct {
	Kind      Kind    `json:"kind"`
	Score     float64 `json:"score"`
	Available bool    `json:"available"`
	Threshold float64 `json:"threshold"`
}

// Explanation describes how a query would be routed without answering it:
// the extracted keywords, every strategy's score, availability, acceptance
// threshold, and the resulting candidate order.
type Explanation struct {
	Query      string          `json:"query"`
	Keywords   []string        `json:"keywords"`
	Scores     []StrategyScore `json:"scores"`
	Candidates CandidateList   `json:"candidates"`
}
