// Package fuzzy scores how closely a query matches a candidate string.
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Tiers holds the score awarded by each match tier.
type Tiers struct {
	Exact     float64 `mapstructure:"exact_score"`
	Substring float64 `mapstructure:"substring_score"`
	FuzzyCap  float64 `mapstructure:"fuzzy_cap"`
}

// DefaultTiers returns exact 100, substring 80 and a fuzzy ceiling of 60.
func DefaultTiers() Tiers {
	return Tiers{Exact: 100, Substring: 80, FuzzyCap: 60}
}

// Matcher compares strings case-insensitively.
// The zero value is not usable; construct with New.
type Matcher struct {
	tiers Tiers
}

// New returns a Matcher using the given tiers.
func New(t Tiers) *Matcher {
	return &Matcher{tiers: t}
}

// Score returns a similarity in [0, Exact].
// Equal strings score Exact, a candidate containing the query scores Substring,
// anything else scores ((maxLen - distance) / maxLen) * FuzzyCap.
func (m *Matcher) Score(query, candidate string) float64 {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	if q == c {
		return m.tiers.Exact
	}
	if strings.Contains(c, q) {
		return m.tiers.Substring
	}

	maxLen := utf8.RuneCountInString(q)
	if n := utf8.RuneCountInString(c); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(q, c)
	return float64(maxLen-dist) / float64(maxLen) * m.tiers.FuzzyCap
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
