package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("civicd.engine")

// timeNow is stubbed in tests.
var timeNow = time.Now

// Router construction errors.
var (
	ErrNoStrategies = errors.New("at least one strategy is required")
	ErrNoFallback   = errors.New("a fallback strategy is required")
	ErrDuplicateKind = errors.New("duplicate strategy kind")
	ErrInvalidKind   = errors.New("invalid strategy kind")
)

// Default acceptance thresholds. An answer is accepted when its confidence
// is at or above its strategy's threshold; the fallback threshold is fixed
// at zero because fallback is the terminal link in the chain.
const (
	DefaultCacheThreshold     = 0.8
	DefaultKnowledgeThreshold = 0.6
	DefaultRetrievalThreshold = 0.55
)

// defaultAnswerText is synthesized when even the fallback strategy fails.
const defaultAnswerText = "I could not find a reliable answer for that. " +
	"Please try rephrasing with a specific civic service, helpline, or procedure."

// RouterOptions configures a Router.
type RouterOptions struct {
	// Strategies to register, at most one per Kind. A KindFallback
	// strategy is mandatory.
	Strategies []Strategy
	// Logger defaults to a nop logger when nil.
	Logger *zap.Logger
	// MinScore is the exclusive classification score floor.
	MinScore float64
	// Thresholds overrides per-kind acceptance thresholds. Missing kinds
	// use the defaults; KindFallback is always zero.
	Thresholds map[Kind]float64
}

// Router is the composition core. It classifies a query, walks the
// candidate strategies in order, accepts the first answer that clears its
// strategy's threshold, and falls back unconditionally on exhaustion.
// Handle is total: every input string yields a non-nil Answer.
//
// Safe for concurrent use: request handling only reads router state, and
// availability flags are atomic.
type Router struct {
	classifier *Classifier
	strategies [kindCount]Strategy
	thresholds [kindCount]float64
	available  [kindCount]atomic.Bool
	logger     *zap.Logger
}

// NewRouter validates the strategy set and builds a Router. Every
// registered strategy starts available; the registry flips flags when a
// backing store fails to load.
func NewRouter(opts RouterOptions) (*Router, error) {
	if len(opts.Strategies) == 0 {
		return nil, ErrNoStrategies
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Router{
		classifier: NewClassifier(opts.Strategies, opts.MinScore),
		logger:     logger,
	}

	r.thresholds[KindCache] = DefaultCacheThreshold
	r.thresholds[KindKnowledge] = DefaultKnowledgeThreshold
	r.thresholds[KindRetrieval] = DefaultRetrievalThreshold
	r.thresholds[KindFallback] = 0
	for kind, threshold := range opts.Thresholds {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
		}
		if kind == KindFallback {
			continue
		}
		r.thresholds[kind] = threshold
	}

	for _, s := range opts.Strategies {
		kind := s.Kind()
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
		}
		if r.strategies[kind] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
		}
		r.strategies[kind] = s
		r.available[kind].Store(true)
	}

	if r.strategies[KindFallback] == nil {
		return nil, ErrNoFallback
	}
	return r, nil
}

// Handle answers a single query with no conversation context.
func (r *Router) Handle(ctx context.Context, text string) Answer {
	return r.HandleConversation(ctx, text, nil)
}

// HandleConversation answers a query with the caller's recent history
// attached for fallback prompt construction. The history never influences
// classification.
func (r *Router) HandleConversation(ctx context.Context, text string, history []Exchange) Answer {
	start := timeNow()
	ctx, span := tracer.Start(ctx, "engine.handle",
		trace.WithAttributes(attribute.Int("query.length", len(text))),
	)
	defer span.End()

	q := NewQuery(text)
	q.History = history

	candidates := r.classifier.Classify(q)
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))

	attempts := make([]Attempt, 0, len(candidates)+1)
	for _, cand := range candidates {
		strategy := r.strategies[cand.Kind]
		if strategy == nil {
			continue
		}
		if !r.Available(cand.Kind) {
			attempts = r.record(span, attempts, Attempt{Kind: cand.Kind, Outcome: OutcomeUnavailable})
			continue
		}

		answer, err := r.attempt(ctx, strategy, q)
		switch {
		case errors.Is(err, ErrDecline):
			attempts = r.record(span, attempts, Attempt{Kind: cand.Kind, Outcome: OutcomeDeclined})

		case err != nil:
			r.logger.Warn("strategy fault",
				zap.String("strategy", cand.Kind.String()),
				zap.Error(err),
			)
			span.RecordError(err)
			attempts = r.record(span, attempts, Attempt{Kind: cand.Kind, Outcome: OutcomeFault})

		case answer == nil:
			// A nil answer without an error is treated as a decline.
			attempts = r.record(span, attempts, Attempt{Kind: cand.Kind, Outcome: OutcomeDeclined})

		case answer.Confidence >= r.thresholds[cand.Kind]:
			attempts = r.record(span, attempts, Attempt{
				Kind: cand.Kind, Outcome: OutcomeAccepted, Confidence: answer.Confidence,
			})
			return r.finish(span, cand.Kind, *answer, attempts, start)

		default:
			attempts = r.record(span, attempts, Attempt{
				Kind: cand.Kind, Outcome: OutcomeBelowThreshold, Confidence: answer.Confidence,
			})
		}
	}

	// Chain exhausted without acceptance: the fallback strategy answers
	// unconditionally and the result is always marked degraded.
	answer := r.exhausted(ctx, span, q, &attempts)
	answer.Degraded = true
	return r.finish(span, KindFallback, answer, attempts, start)
}

// Explain reports how the text would be routed without invoking any
// strategy: keywords, per-strategy scores with availability and
// thresholds, and the candidate order.
func (r *Router) Explain(text string) Explanation {
	q := NewQuery(text)
	scores := r.classifier.Scores(q)
	for i := range scores {
		scores[i].Available = r.Available(scores[i].Kind)
		scores[i].Threshold = r.thresholds[scores[i].Kind]
	}
	return Explanation{
		Query:      text,
		Keywords:   q.Keywords,
		Scores:     scores,
		Candidates: r.classifier.Classify(q),
	}
}

// SetAvailable flips a strategy's availability flag. Used by the registry
// when a backing store fails to load or recovers on reload.
func (r *Router) SetAvailable(kind Kind, ok bool) {
	if !kind.Valid() || r.strategies[kind] == nil {
		return
	}
	r.available[kind].Store(ok)
}

// Available reports whether the strategy is registered and currently
// eligible for candidate selection.
func (r *Router) Available(kind Kind) bool {
	return kind.Valid() && r.strategies[kind] != nil && r.available[kind].Load()
}

// Availability returns the flag for every registered strategy.
func (r *Router) Availability() map[Kind]bool {
	out := make(map[Kind]bool, kindCount)
	for _, kind := range Kinds() {
		if r.strategies[kind] != nil {
			out[kind] = r.available[kind].Load()
		}
	}
	return out
}

// attempt invokes a strategy with panic recovery. A panicking strategy is
// reported as a fault, never an aborted request.
func (r *Router) attempt(ctx context.Context, s Strategy, q Query) (answer *Answer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			answer = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Kind(), rec)
		}
	}()
	return s.Attempt(ctx, q)
}

// exhausted invokes the fallback strategy after the candidate chain failed
// to produce an accepted answer. When even the fallback faults, a built-in
// default answer is synthesized so Handle stays total.
func (r *Router) exhausted(ctx context.Context, span trace.Span, q Query, attempts *[]Attempt) Answer {
	fallback := r.strategies[KindFallback]
	if fallback != nil && r.Available(KindFallback) {
		answer, err := r.attempt(ctx, fallback, q)
		switch {
		case err == nil && answer != nil:
			*attempts = r.record(span, *attempts, Attempt{
				Kind: KindFallback, Outcome: OutcomeAccepted, Confidence: answer.Confidence,
			})
			return *answer
		case err != nil && !errors.Is(err, ErrDecline):
			r.logger.Warn("fallback fault", zap.Error(err))
			span.RecordError(err)
			*attempts = r.record(span, *attempts, Attempt{Kind: KindFallback, Outcome: OutcomeFault})
		}
	}

	return Answer{
		Text:       defaultAnswerText,
		Kind:       KindFallback,
		Confidence: 0.1,
		Degraded:   true,
	}
}

// record appends an attempt to the trail, meters it, and mirrors it onto
// the span as an event.
func (r *Router) record(span trace.Span, attempts []Attempt, a Attempt) []Attempt {
	recordAttempt(a.Kind, a.Outcome)
	span.AddEvent("strategy.attempt", trace.WithAttributes(
		attribute.String("strategy", a.Kind.String()),
		attribute.String("outcome", string(a.Outcome)),
		attribute.Float64("confidence", a.Confidence),
	))
	return append(attempts, a)
}

// finish stamps identity, provenance, and timing onto the accepted answer
// and emits the per-query observability signals.
func (r *Router) finish(span trace.Span, kind Kind, answer Answer, attempts []Attempt, start time.Time) Answer {
	answer.ID = uuid.NewString()
	answer.Kind = kind
	answer.Attempts = attempts
	answer.Elapsed = timeNow().Sub(start)
	if answer.Confidence < 0 {
		answer.Confidence = 0
	}
	if answer.Confidence > 1 {
		answer.Confidence = 1
	}

	recordQuery(kind, answer.Degraded)
	observeHandleDuration(answer.Elapsed)
	span.SetAttributes(
		attribute.String("answer.kind", kind.String()),
		attribute.Float64("answer.confidence", answer.Confidence),
		attribute.Bool("answer.degraded", answer.Degraded),
	)
	span.SetStatus(codes.Ok, "")

	r.logger.Debug("query answered",
		zap.String("answer_id", answer.ID),
		zap.String("kind", kind.String()),
		zap.Float64("confidence", answer.Confidence),
		zap.Bool("degraded", answer.Degraded),
		zap.Duration("elapsed", answer.Elapsed),
	)
	return answer
}
