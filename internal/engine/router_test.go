package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, strategies []Strategy) *Router {
	t.Helper()
	router, err := NewRouter(RouterOptions{
		Strategies: strategies,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	return router
}

func TestNewRouter_Validation(t *testing.T) {
	t.Run("no strategies", func(t *testing.T) {
		_, err := NewRouter(RouterOptions{})
		assert.ErrorIs(t, err, ErrNoStrategies)
	})

	t.Run("missing fallback", func(t *testing.T) {
		_, err := NewRouter(RouterOptions{Strategies: []Strategy{
			&stubStrategy{kind: KindCache},
		}})
		assert.ErrorIs(t, err, ErrNoFallback)
	})

	t.Run("duplicate kind", func(t *testing.T) {
		_, err := NewRouter(RouterOptions{Strategies: []Strategy{
			&stubStrategy{kind: KindFallback},
			&stubStrategy{kind: KindFallback},
		}})
		assert.ErrorIs(t, err, ErrDuplicateKind)
	})

	t.Run("invalid threshold kind", func(t *testing.T) {
		_, err := NewRouter(RouterOptions{
			Strategies: []Strategy{&stubStrategy{kind: KindFallback}},
			Thresholds: map[Kind]float64{Kind(42): 0.5},
		})
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("nil logger defaults", func(t *testing.T) {
		router, err := NewRouter(RouterOptions{Strategies: []Strategy{
			&stubStrategy{kind: KindFallback, answer: &Answer{Text: "ok", Confidence: 0.3}},
		}})
		require.NoError(t, err)
		answer := router.Handle(context.Background(), "anything")
		assert.NotEmpty(t, answer.ID)
	})
}

func TestRouter_ShortCircuitAcceptance(t *testing.T) {
	strategies := testStrategies()
	router := newTestRouter(t, strategies)

	answer := router.Handle(context.Background(), "Fire emergency number")

	assert.Equal(t, KindCache, answer.Kind)
	assert.Contains(t, answer.Text, "101")
	assert.False(t, answer.Degraded)
	assert.GreaterOrEqual(t, answer.Confidence, DefaultCacheThreshold)

	// Only the cache strategy was invoked.
	assert.Equal(t, 1, strategies[0].(*stubStrategy).calls)
	assert.Equal(t, 0, strategies[2].(*stubStrategy).calls)
}

func TestRouter_CachePriorityOverRetrieval(t *testing.T) {
	// Both match the same trigger with identical weights and both clear
	// their thresholds; the tie must resolve to cache.
	shared := TriggerSet{"water": 1}
	router := newTestRouter(t, []Strategy{
		&stubStrategy{kind: KindCache, triggers: shared, answer: &Answer{Text: "cache", Confidence: 0.95}},
		&stubStrategy{kind: KindRetrieval, triggers: shared, answer: &Answer{Text: "retrieval", Confidence: 0.95}},
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "water")
	assert.Equal(t, KindCache, answer.Kind)
}

func TestRouter_FallsThroughOnDecline(t *testing.T) {
	declining := &stubStrategy{
		kind:     KindCache,
		triggers: TriggerSet{"water": 2},
	}
	retrieval := &stubStrategy{
		kind:     KindRetrieval,
		triggers: TriggerSet{"water": 1},
		answer:   &Answer{Text: "from documents", Confidence: 0.8},
	}
	router := newTestRouter(t, []Strategy{
		declining,
		retrieval,
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "water")

	assert.Equal(t, KindRetrieval, answer.Kind)
	require.Len(t, answer.Attempts, 2)
	assert.Equal(t, Attempt{Kind: KindCache, Outcome: OutcomeDeclined}, answer.Attempts[0])
	assert.Equal(t, OutcomeAccepted, answer.Attempts[1].Outcome)
}

func TestRouter_BelowThresholdContinues(t *testing.T) {
	weak := &stubStrategy{
		kind:     KindRetrieval,
		triggers: TriggerSet{"schedule": 2},
		answer:   &Answer{Text: "weak excerpt", Confidence: 0.2},
	}
	router := newTestRouter(t, []Strategy{
		weak,
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "schedule")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.True(t, answer.Degraded)
	require.NotEmpty(t, answer.Attempts)
	assert.Equal(t, OutcomeBelowThreshold, answer.Attempts[0].Outcome)
	assert.InDelta(t, 0.2, answer.Attempts[0].Confidence, 1e-9)
}

func TestRouter_FaultAbsorbed(t *testing.T) {
	faulty := &stubStrategy{
		kind:     KindCache,
		triggers: TriggerSet{"fire": 2},
		err:      errors.New("snapshot unreadable"),
	}
	router := newTestRouter(t, []Strategy{
		faulty,
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "fire")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.True(t, answer.Degraded)
	assert.Equal(t, OutcomeFault, answer.Attempts[0].Outcome)
}

func TestRouter_PanicAbsorbed(t *testing.T) {
	panicking := &stubStrategy{
		kind:     KindKnowledge,
		triggers: TriggerSet{"apply": 2},
		panicMsg: "index out of range",
	}
	router := newTestRouter(t, []Strategy{
		panicking,
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "apply certificate")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.Equal(t, OutcomeFault, answer.Attempts[0].Outcome)
}

func TestRouter_UnavailableSkipped(t *testing.T) {
	cache := &stubStrategy{
		kind:     KindCache,
		triggers: TriggerSet{"fire": 2},
		answer:   &Answer{Text: "Fire: 101", Confidence: 0.95},
	}
	router := newTestRouter(t, []Strategy{
		cache,
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fallback", Confidence: 0.3}},
	})

	router.SetAvailable(KindCache, false)
	answer := router.Handle(context.Background(), "fire")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.Equal(t, 0, cache.calls)
	assert.Equal(t, Attempt{Kind: KindCache, Outcome: OutcomeUnavailable}, answer.Attempts[0])

	router.SetAvailable(KindCache, true)
	answer = router.Handle(context.Background(), "fire")
	assert.Equal(t, KindCache, answer.Kind)
}

func TestRouter_ExhaustionInvokesFallbackDegraded(t *testing.T) {
	router := newTestRouter(t, []Strategy{
		&stubStrategy{kind: KindCache, triggers: TriggerSet{"fire": 2}},
		&stubStrategy{kind: KindKnowledge, triggers: TriggerSet{"fire": 1}},
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "general reply", Confidence: 0.5}},
	})

	answer := router.Handle(context.Background(), "fire")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.True(t, answer.Degraded)
	assert.Equal(t, "general reply", answer.Text)
	// Two declines plus the terminal fallback acceptance.
	require.Len(t, answer.Attempts, 3)
	assert.Equal(t, OutcomeAccepted, answer.Attempts[2].Outcome)
}

func TestRouter_FallbackFaultSynthesizesDefault(t *testing.T) {
	router := newTestRouter(t, []Strategy{
		&stubStrategy{kind: KindFallback, err: errors.New("backend exploded")},
	})

	answer := router.Handle(context.Background(), "anything at all")

	assert.Equal(t, KindFallback, answer.Kind)
	assert.True(t, answer.Degraded)
	assert.NotEmpty(t, answer.Text)
	assert.NotEmpty(t, answer.ID)
}

func TestRouter_TotalOverAllInputs(t *testing.T) {
	router := newTestRouter(t, testStrategies())

	inputs := []string{
		"",
		"   ",
		"\t\n",
		"asdkjqwe completely unrelated gibberish",
		strings.Repeat("x", 10_000),
		"குப்பை அட்டவணை",
		"!!!???",
		"101",
	}
	for _, input := range inputs {
		answer := router.Handle(context.Background(), input)
		assert.NotEmpty(t, answer.ID, "input %q", input)
		assert.NotEmpty(t, answer.Text, "input %q", input)
		assert.True(t, answer.Kind.Valid(), "input %q", input)
	}
}

func TestRouter_ConcurrentHandles(t *testing.T) {
	router := newTestRouter(t, []Strategy{
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "ok", Confidence: 0.5}},
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answer := router.Handle(context.Background(), "hello")
			assert.Equal(t, KindFallback, answer.Kind)
		}()
	}
	wg.Wait()
}

func TestRouter_ConfidenceClamped(t *testing.T) {
	router := newTestRouter(t, []Strategy{
		&stubStrategy{
			kind:     KindCache,
			triggers: TriggerSet{"fire": 2},
			answer:   &Answer{Text: "overconfident", Confidence: 1.7},
		},
		&stubStrategy{kind: KindFallback, answer: &Answer{Text: "fb", Confidence: 0.3}},
	})

	answer := router.Handle(context.Background(), "fire")
	assert.Equal(t, 1.0, answer.Confidence)
}

func TestRouter_Explain(t *testing.T) {
	router := newTestRouter(t, testStrategies())
	router.SetAvailable(KindRetrieval, false)

	explanation := router.Explain("latest garbage schedule 2025")

	assert.Equal(t, "latest garbage schedule 2025", explanation.Query)
	assert.Equal(t, []string{"latest", "garbage", "schedule", "2025"}, explanation.Keywords)
	require.Len(t, explanation.Scores, 4)

	byKind := make(map[Kind]StrategyScore, len(explanation.Scores))
	for _, s := range explanation.Scores {
		byKind[s.Kind] = s
	}
	assert.False(t, byKind[KindRetrieval].Available)
	assert.True(t, byKind[KindCache].Available)
	assert.InDelta(t, DefaultCacheThreshold, byKind[KindCache].Threshold, 1e-9)
	assert.Greater(t, byKind[KindRetrieval].Score, byKind[KindCache].Score)
	assert.NotEmpty(t, explanation.Candidates)
}

func TestRouter_Availability(t *testing.T) {
	router := newTestRouter(t, testStrategies())
	router.SetAvailable(KindKnowledge, false)

	availability := router.Availability()
	require.Len(t, availability, 4)
	assert.True(t, availability[KindCache])
	assert.False(t, availability[KindKnowledge])

	// Flags for unregistered or invalid kinds are ignored.
	router.SetAvailable(Kind(99), true)
	assert.False(t, router.Available(Kind(99)))
}

func TestRouter_HistoryPassedThrough(t *testing.T) {
	fallback := &capturingFallback{reply: "with context"}
	router := newTestRouter(t, []Strategy{fallback})

	history := []Exchange{{Question: "q1", Reply: "a1"}}
	answer := router.HandleConversation(context.Background(), "gibberish zzz", history)

	assert.Equal(t, history, fallback.history)
	assert.Equal(t, "with context", answer.Text)
}

// capturingFallback records the history attached to the query it receives.
type capturingFallback struct {
	reply   string
	history []Exchange
}

func (c *capturingFallback) Kind() Kind           { return KindFallback }
func (c *capturingFallback) Triggers() TriggerSet { return nil }

func (c *capturingFallback) Attempt(_ context.Context, q Query) (*Answer, error) {
	c.history = q.History
	return &Answer{Text: c.reply, Kind: KindFallback, Confidence: 0.5}, nil
}
