// Package match computes textual similarity between item descriptions.
// The measure is a deliberately simple token-set overlap so that every match
// decision is explainable; no edit distance, no embeddings.
package match

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the score at or above which two descriptions are
// considered a match. Different catalogs warrant different thresholds, so it
// is configurable wherever a Matcher is built.
const DefaultThreshold = 0.5

// Tokenize lowercases s and splits it on any run of non-alphanumeric runes.
// "Cement concrete 1:2:4" tokenizes to [cement concrete 1 2 4].
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score returns the Jaccard similarity of the token sets of a and b in
// [0, 1]. It is symmetric, and Score(a, a) is 1 for any non-blank a, even
// one with no alphanumeric tokens. Distinct token-less strings score 0.
func Score(a, b string) float64 {
	setA := tokenSet(Tokenize(a))
	setB := tokenSet(Tokenize(b))
	if len(setA) == 0 && len(setB) == 0 {
		if a == b && strings.TrimSpace(a) != "" {
			return 1
		}
		return 0
	}

	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// Matcher bundles a similarity threshold with the score function.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a Matcher. A non-positive threshold falls back to
// DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured match threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match scores a against b and reports whether the score clears the
// threshold.
func (m *Matcher) Match(a, b string) (float64, bool) {
	s := Score(a, b)
	return s, s >= m.threshold
}

// Best returns the index and score of the candidate most similar to query,
// or (-1, 0) when candidates is empty. Ties keep the earliest candidate.
func (m *Matcher) Best(query string, candidates []string) (int, float64) {
	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		if s := Score(query, c); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best, bestScore
}
