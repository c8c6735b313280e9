// Package sanitize normalizes identifiers used as vector collection
// names. Both chromem and Qdrant constrain collection names to
// ^[a-z0-9_]{1,64}$, and config values come from operators who type
// whatever they like.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MaxIdentifierLength is the longest collection name chromem and
	// Qdrant accept.
	MaxIdentifierLength = 64

	// hashSuffixLength is the room reserved for "_<8-char-hash>" on
	// truncated identifiers.
	hashSuffixLength = 9

	// DefaultIdentifier names the collection when sanitization leaves
	// nothing usable.
	DefaultIdentifier = "civic_docs"
)

// Identifier normalizes s into a valid collection name: lowercased,
// invalid runes replaced with underscores, runs of underscores
// collapsed, trimmed, and truncated with a hash suffix past
// MaxIdentifierLength. An empty or fully-invalid input becomes
// DefaultIdentifier.
//
//	"Civic Docs (2025)" -> "civic_docs_2025"
//	"water-board.FAQ"   -> "water_board_faq"
//	"" or "!!!"         -> "civic_docs"
func Identifier(s string) string {
	if s == "" {
		return DefaultIdentifier
	}

	s = strings.ToLower(s)

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return DefaultIdentifier
	}

	if len(sanitized) > MaxIdentifierLength {
		sanitized = truncateWithHash(sanitized)
	}

	return sanitized
}

// truncateWithHash shortens s to MaxIdentifierLength, keeping a hash of
// the full value so distinct long names stay distinct.
func truncateWithHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	hashSuffix := "_" + hex.EncodeToString(hash[:])[:8]

	truncated := s[:MaxIdentifierLength-hashSuffixLength]
	truncated = strings.TrimRight(truncated, "_")

	return truncated + hashSuffix
}
