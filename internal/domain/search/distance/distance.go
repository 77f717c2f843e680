// Package distance measures edit distance between normalized values.
package distance

import (
	"github.com/agnivade/levenshtein"

	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// DefaultMinQueryLength is the shortest query, in runes, eligible for correction
// when no minimum is configured.
const DefaultMinQueryLength = 3

// Levenshtein returns the unit-cost edit distance between the normalized forms of a and b.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(normalize.Normalize(a), normalize.Normalize(b))
}

// Threshold is the largest distance accepted for a query of n runes.
func Threshold(n int) int {
	return max(3, n/2)
}

// Accept reports whether a candidate at distance d is a correction for a query of n runes.
// Exact matches (d == 0) are not corrections.
func Accept(n, d int) bool {
	return d > 0 && d <= Threshold(n)
}

// Eligible reports whether query has at least minLen runes once normalized.
// A non-positive minLen falls back to DefaultMinQueryLength.
func Eligible(query string, minLen int) bool {
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	return Len(query) >= minLen
}

// Len is the rune length of the normalized query.
func Len(query string) int {
	return len([]rune(normalize.Normalize(query)))
}
