package strategy

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
)

// Fallback confidences. Canned replies answer their pattern exactly;
// backend replies are generated and trusted less; the default reply is a
// last resort and marked degraded.
const (
	cannedConfidence    = 0.6
	backendConfidence   = 0.5
	defaultConfidence   = 0.3
	DefaultContextTurns = 4
)

// defaultReply is returned when nothing else produced an answer.
const defaultReply = "I could not find specific information for that. " +
	"Try asking about a civic service (water, property tax, certificates), " +
	"an emergency number, or a government procedure."

// fallbackMarkers catch conversational queries that carry no civic
// keywords at all.
var fallbackMarkers = engine.TriggerSet{
	"hello":        2,
	"hey":          2,
	"greetings":    2,
	"thanks":       2,
	"thank":        2,
	"goodbye":      2,
	"bye":          2,
	"capabilities": 2,
	"help":         1,
	"assist":       1,
	"yourself":     1,
}

// Completer is the generative backend surface the fallback defers to.
// backend.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FallbackOptions tune the fallback strategy.
type FallbackOptions struct {
	// ContextTurns is how many recent history exchanges to include in
	// the backend prompt. Zero means DefaultContextTurns.
	ContextTurns int
}

// Fallback is the terminal strategy: canned replies for conversational
// patterns, a generative backend when one is configured, and a fixed
// degraded default otherwise. It never declines.
type Fallback struct {
	backend      Completer
	contextTurns int
	logger       *zap.Logger
}

// NewFallback creates the fallback strategy. A nil backend disables
// generative replies; the strategy still answers with canned or default
// text.
func NewFallback(backend Completer, opts FallbackOptions, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = DefaultContextTurns
	}
	return &Fallback{
		backend:      backend,
		contextTurns: opts.ContextTurns,
		logger:       logger,
	}
}

// Kind identifies the strategy.
func (s *Fallback) Kind() engine.Kind { return engine.KindFallback }

// Triggers returns the static conversational markers.
func (s *Fallback) Triggers() engine.TriggerSet {
	return mergeTriggers(fallbackMarkers, nil)
}

// Attempt always returns an Answer: canned, backend-generated, or the
// degraded default.
func (s *Fallback) Attempt(ctx context.Context, q engine.Query) (*engine.Answer, error) {
	if text, ok := cannedReply(q); ok {
		return &engine.Answer{Text: text, Confidence: cannedConfidence}, nil
	}

	if s.backend != nil {
		reply, err := s.backend.Complete(ctx, s.buildPrompt(q))
		if err == nil {
			return &engine.Answer{Text: reply, Confidence: backendConfidence}, nil
		}
		s.logger.Warn("backend completion failed, using default reply", zap.Error(err))
	}

	return &engine.Answer{
		Text:       defaultReply,
		Confidence: defaultConfidence,
		Degraded:   true,
	}, nil
}

// buildPrompt frames the query with recent conversation turns so the
// backend can resolve references like "what about zone 5".
func (s *Fallback) buildPrompt(q engine.Query) string {
	turns := q.History
	if len(turns) > s.contextTurns {
		turns = turns[len(turns)-s.contextTurns:]
	}

	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Reply)
	}
	fmt.Fprintf(&b, "User: %s", q.Raw)
	return b.String()
}

// cannedRule pairs match patterns with a reply. Words match whole tokens
// of the normalized text; phrases match as substrings. Rules are checked
// in order and the first match wins.
type cannedRule struct {
	words   []string
	phrases []string
	reply   string
}

var cannedRules = []cannedRule{
	{
		words:   []string{"hello", "hi", "hey", "vanakkam"},
		phrases: []string{"good morning", "good afternoon", "good evening"},
		reply: "Hello! I'm your Chennai civic assistant. I can help with " +
			"civic services, government procedures, emergency contacts, and more. " +
			"What can I help you with today?",
	},
	{
		phrases: []string{"who are you", "what are you", "about yourself", "introduce yourself"},
		reply: "I'm a civic assistant for Chennai residents. I answer questions " +
			"about municipal services, government procedures, helplines, and " +
			"civic amenities using curated directories, procedure guides, and " +
			"official documents.",
	},
	{
		words:   []string{"capabilities"},
		phrases: []string{"what can you do", "what do you help with"},
		reply: "I can help you with:\n" +
			"- Emergency contact numbers\n" +
			"- Civic service procedures (water, tax, certificates)\n" +
			"- Government office information\n" +
			"- Municipal service complaints\n" +
			"- Zone-specific contacts\n" +
			"- Latest civic updates and guidelines",
	},
	{
		words: []string{"thank", "thanks", "appreciate"},
		reply: "You're welcome! I'm here to help Chennai residents with civic " +
			"matters anytime. Feel free to ask if you have more questions about " +
			"municipal services or government procedures.",
	},
	{
		words:   []string{"bye", "goodbye", "exit", "quit"},
		phrases: []string{"see you"},
		reply: "Goodbye! I'm always here to help with your Chennai civic " +
			"needs. Have a great day!",
	},
	{
		words: []string{"help", "assist", "support", "guide"},
		reply: "You can ask me about:\n" +
			"- Emergency numbers (fire, police, ambulance)\n" +
			"- Water supply issues and CMWSSB services\n" +
			"- Property tax payment procedures\n" +
			"- Garbage collection schedules\n" +
			"- Birth and death certificate applications\n" +
			"- Municipal office contacts",
	},
	{
		words: []string{"emergency", "urgent"},
		reply: "For immediate emergencies call: Fire 101, Police 100, " +
			"Ambulance 108. For civic emergencies (water, flooding) call the " +
			"corporation helpline 1913. Ask me about a specific emergency " +
			"service for its direct number.",
	},
}

// cannedReply matches the query against the canned catalog.
func cannedReply(q engine.Query) (string, bool) {
	words := rawTokens(q.Normalized)
	for _, rule := range cannedRules {
		for _, w := range rule.words {
			if _, ok := words[w]; ok {
				return rule.reply, true
			}
		}
		for _, p := range rule.phrases {
			if strings.Contains(q.Normalized, p) {
				return rule.reply, true
			}
		}
	}
	return "", false
}

// rawTokens splits normalized text into a token set without the stopword
// and length filtering keywords get, since greetings like "hi" are
// exactly the tokens that filtering drops.
func rawTokens(normalized string) map[string]struct{} {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
