package engine

import (
	"strings"
	"unicode"
)

// Query is one normalized user question. Immutable once created; produced
// per user turn by NewQuery.
type Query struct {
	// Raw is the text exactly as the caller supplied it.
	Raw string
	// Normalized is the lowercased, whitespace-trimmed text used for
	// substring matching.
	Normalized string
	// Keywords are the deduplicated salient tokens in first-appearance
	// order. Stopwords and one/two-letter tokens are removed; numeric
	// tokens (helpline numbers, years) are always kept.
	Keywords []string
	// History carries recent conversation turns supplied by the caller.
	// Read only by the fallback strategy's prompt construction.
	History []Exchange
}

// NewQuery builds a Query from raw text. Deterministic: the same text
// always yields the same normalized form and keyword sequence.
func NewQuery(text string) Query {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return Query{
		Raw:        text,
		Normalized: normalized,
		Keywords:   extractKeywords(normalized),
	}
}

// extractKeywords tokenizes normalized text on non-alphanumeric runes,
// drops stopwords and short non-numeric tokens, and deduplicates while
// preserving first-appearance order.
func extractKeywords(normalized string) []string {
	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] {
			continue
		}
		if len(tok) < 3 && !isNumeric(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

// isNumeric reports whether the token is all ASCII digits. Numeric tokens
// such as "101" or "2025" carry routing signal and bypass the length filter.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stopwords are common English function words excluded from the keyword
// set. Question words are included: classification keys off content terms,
// and the knowledge strategy's action triggers (apply, obtain, register)
// carry the "how to" intent.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "i": true,
	"you": true, "he": true, "she": true, "it": true, "we": true, "they": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "me": true, "my": true, "your": true, "our": true,
	"please": true, "tell": true, "about": true, "there": true, "their": true,
	"want": true, "need": true, "some": true, "any": true,
}
