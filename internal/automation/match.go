package automation

import "strings"

// Match scores used when several elements carry the wanted text.
const (
	NoMatch        = 0
	SubstringMatch = 1
	ExactMatch     = 2
)

// NormalizeText lower-cases s and collapses runs of whitespace.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MatchScore rates how well the visible text haystack matches needle.
// It mirrors the scoring in locate.js so simulated and real backends
// resolve text the same way. An empty needle never matches.
func MatchScore(haystack, needle string) int {
	n := NormalizeText(needle)
	if n == "" {
		return NoMatch
	}
	h := NormalizeText(haystack)
	switch {
	case h == n:
		return ExactMatch
	case strings.Contains(h, n):
		return SubstringMatch
	default:
		return NoMatch
	}
}
