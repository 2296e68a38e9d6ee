// Package textmatch implements the lexical matching used for trigger
// detection. Matching is deterministic and locale-stable so that the same
// question always fires the same facts.
package textmatch

import (
	"strings"
	"unicode"
)

// minNeedleLen guards against one-character needles matching everything.
const minNeedleLen = 2

// Normalize lowercases text for matching. strings.ToLower performs Unicode
// case mapping without locale-specific rules, which keeps results stable
// across platforms.
func Normalize(text string) string {
	return strings.ToLower(text)
}

// Tokenize splits text into the set of maximal letter/digit runs of length
// at least two. Any other rune is a separator.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	var b strings.Builder
	// The length rule counts runes, not bytes, so a single multibyte
	// character is still too short to be a token.
	runeCount := 0
	flush := func() {
		if runeCount >= minNeedleLen {
			tokens[b.String()] = struct{}{}
		}
		b.Reset()
		runeCount = 0
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runeCount++
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// Query is a player utterance prepared for repeated matching. Normalizing
// and tokenizing once keeps a detection pass linear in the case size.
type Query struct {
	normalized string
	tokens     map[string]struct{}
}

// NewQuery prepares text for matching.
func NewQuery(text string) Query {
	normalized := Normalize(text)
	return Query{
		normalized: normalized,
		tokens:     Tokenize(normalized),
	}
}

// Hits reports whether needle occurs in the query. The needle is lowercased
// and trimmed; needles shorter than two runes never match. A needle hits if
// it is a substring of the normalized query or a member of the query's token
// set. The token check lets short exact words match across word boundaries
// while phrase fragments still match via substring.
func (q Query) Hits(needle string) bool {
	needle = strings.TrimSpace(Normalize(needle))
	if len([]rune(needle)) < minNeedleLen {
		return false
	}
	if strings.Contains(q.normalized, needle) {
		return true
	}
	_, ok := q.tokens[needle]
	return ok
}

// Hits is the one-shot form of [Query.Hits].
func Hits(query, needle string) bool {
	return NewQuery(query).Hits(needle)
}
