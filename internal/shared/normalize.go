package shared

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	featuring  = regexp.MustCompile(`\sft.*|\bfeat.*`)
)

// Fold strips diacritics, then transliterates what is left to ASCII.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return unidecode.Unidecode(folded)
}

// CleanString normalizes a scraped title or artist.
//
// The result is ASCII-folded, lower-cased, has whitespace collapsed and
// drops any "ft" or "feat" credit and everything after it.
func CleanString(s string) string {
	s = strings.ToLower(Fold(s))
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	s = featuring.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NormalizeTrackKey builds a comparison key from a title and artist.
func NormalizeTrackKey(title, artist string) string {
	clean := func(s string) string {
		return strings.TrimSpace(whitespace.ReplaceAllString(strings.ToLower(Fold(s)), " "))
	}
	return clean(title) + "|" + clean(artist)
}
