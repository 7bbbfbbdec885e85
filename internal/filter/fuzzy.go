package filter // import "jobwatch.app/internal/filter"

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// A candidate matches when the edit distance stays within this share of the
// longer normalized string.
const maxDistanceRatio = 0.4

var foldAccents = transform.Chain(norm.NFD,
	runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, trims it and strips diacritics, so that
// "Côte d'Ivoire" and "cote d'ivoire " normalize to the same string.
func Normalize(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Match reports whether candidate approximately matches query. Both sides
// are normalized first. A substring hit in either direction matches, so
// "Paris" matches "Paris, France". Otherwise the Levenshtein distance
// relative to the longer string decides.
func Match(query, candidate string) bool {
	q, c := Normalize(query), Normalize(candidate)
	if q == "" || c == "" {
		return false
	}
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return true
	}

	longer := len([]rune(q))
	if l := len([]rune(c)); l > longer {
		longer = l
	}
	d := fuzzy.LevenshteinDistance(q, c)
	return float64(d)/float64(longer) <= maxDistanceRatio
}

// MatchAny reports whether candidate approximately matches any of the
// queries.
func MatchAny(queries []string, candidate string) bool {
	for _, q := range queries {
		if Match(q, candidate) {
			return true
		}
	}
	return false
}
