package engine

import (
	"context"
	"errors"
)

// ErrDecline is the sentinel a strategy returns (wrapped allowed) when it
// has no answer for the query. It is an expected signal, not a failure:
// genuine faults (unreadable snapshot, corrupt index) use distinct errors.
var ErrDecline = errors.New("strategy declined")

// TriggerSet maps a trigger keyword to its classification weight. Each
// strategy owns its set; it is read-only at request time and only replaced
// wholesale by out-of-band data reloads.
type TriggerSet map[string]float64

// Strategy is one answer-generation unit. Implementations must be safe for
// concurrent callers: Attempt only reads the strategy's own backing data
// snapshot and never mutates trigger sets or other strategies' state.
type Strategy interface {
	// Kind identifies the strategy for priority ordering and provenance.
	Kind() Kind

	// Triggers returns the keyword weights used during classification.
	Triggers() TriggerSet

	// Attempt produces an Answer for the query or returns ErrDecline when
	// the strategy is not applicable. Any other error is a fault to be
	// absorbed at the router boundary.
	Attempt(ctx context.Context, q Query) (*Answer, error)
}
