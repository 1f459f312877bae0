package domain

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name matching modes.
const (
	NameMatchingExact     = "exact"
	NameMatchingCanonical = "canonical"
)

// NameMatcher compares province names across datasets. The zero value matches exactly.
type NameMatcher struct {
	canonical bool
}

// NewNameMatcher returns a matcher for the given mode.
func NewNameMatcher(mode string) (NameMatcher, error) {
	switch mode {
	case NameMatchingExact:
		return NameMatcher{}, nil
	case NameMatchingCanonical:
		return NameMatcher{canonical: true}, nil
	default:
		return NameMatcher{}, eris.Errorf("unknown name matching mode %q", mode)
	}
}

// ExactNames matches names byte-for-byte.
var ExactNames = NameMatcher{}

// CanonicalNames matches names after canonicalisation.
var CanonicalNames = NameMatcher{canonical: true}

// Key returns the comparison key for a name.
func (m NameMatcher) Key(name string) string {
	if !m.canonical {
		return name
	}
	return CanonicalName(name)
}

// Equal reports whether two names refer to the same province.
func (m NameMatcher) Equal(a, b string) bool {
	return m.Key(a) == m.Key(b)
}

// Find returns the first candidate equal to name.
func (m NameMatcher) Find(name string, candidates []string) (string, bool) {
	key := m.Key(name)
	for _, c := range candidates {
		if m.Key(c) == key {
			return c, true
		}
	}
	return "", false
}

// CanonicalName folds a name to a comparison key: diacritics stripped,
// whitespace collapsed, Unicode case-folded. "  Parañaque  City" and
// "paranaque city" share a key.
func CanonicalName(name string) string {
	// transform chains carry state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, name)
	if err != nil {
		out = name
	}
	out = strings.Join(strings.Fields(out), " ")
	return cases.Fold().String(out)
}
