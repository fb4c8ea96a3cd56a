// Package canon turns free-text player names into the lookup key used to
// match them against stored identities.
package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacriticals is U+0300..U+036F.
var combiningDiacriticals = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// Lowercasing can reintroduce combining marks (U+0130 lowers to i + U+0307),
// so the text is decomposed again before marks are dropped.
func newFolder() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Map(unicode.ToLower),
		norm.NFKD,
		runes.Remove(runes.In(combiningDiacriticals)),
	)
}

// Canonicalize returns the deduplication key for a display name, or "" when
// the name carries no letters or digits.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(newFolder(), s)
	if err != nil {
		folded = strings.ToLower(s)
	}

	folded = strings.Join(strings.Fields(folded), " ")
	return strings.TrimFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// IsCloseMatch reports whether a and b are within one insertion, deletion or
// substitution of each other. Only used to suggest identities, never to merge.
func IsCloseMatch(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(ra)-len(rb) > 1 {
		return false
	}

	i := 0
	for i < len(rb) && ra[i] == rb[i] {
		i++
	}
	if i == len(rb) {
		return true
	}

	if len(ra) == len(rb) {
		return string(ra[i+1:]) == string(rb[i+1:])
	}
	return string(ra[i+1:]) == string(rb[i:])
}
