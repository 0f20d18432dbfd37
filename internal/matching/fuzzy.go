package matching

import (
	"strings"
	"unicode/utf8"
)

// FuzzyMatcher compares free-form media names, tolerating separator and suffix drift.
//
// The thresholds are heuristics; callers may tune them from configuration.
type FuzzyMatcher struct {
	// MinSharedTokens is the shared-token count that alone makes two names equal.
	MinSharedTokens int
	// MinFirstTokenShared is the shared-token count required when the leading tokens agree.
	MinFirstTokenShared int
}

// DefaultFuzzyMatcher returns the stock thresholds: two shared tokens, or a shared leading token.
func DefaultFuzzyMatcher() FuzzyMatcher {
	return FuzzyMatcher{MinSharedTokens: 2, MinFirstTokenShared: 1}
}

// FuzzyEquals compares a and b with [DefaultFuzzyMatcher].
func FuzzyEquals(a, b string) bool {
	return DefaultFuzzyMatcher().Equal(a, b)
}

// Equal reports whether a and b name the same media. The first rule that decides wins:
//
//  1. either name empty: false
//  2. cleaned names (ASCII alphanumerics, lowercased) equal: true
//  3. one cleaned name contains the other: true
//  4. either name has no tokens: false
//  5. at least MinSharedTokens distinct tokens in common: true
//  6. equal first tokens and at least MinFirstTokenShared in common: true
//
// Shared tokens are counted over distinct tokens so that Equal(a, b) == Equal(b, a).
func (m FuzzyMatcher) Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	ca, cb := cleanName(a), cleanName(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return true
	}

	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}

	shared := sharedTokens(ta, tb)
	if shared >= m.MinSharedTokens {
		return true
	}
	return ta[0] == tb[0] && shared >= m.MinFirstTokenShared
}

func isAlnum(r rune) bool {
	return r < utf8.RuneSelf && ('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
}

func cleanName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isAlnum(r) })
}

func sharedTokens(a, b []string) int {
	seen := make(map[string]struct{}, len(a))
	for _, tok := range a {
		seen[tok] = struct{}{}
	}
	counted := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if _, ok := seen[tok]; !ok {
			continue
		}
		counted[tok] = struct{}{}
	}
	return len(counted)
}
