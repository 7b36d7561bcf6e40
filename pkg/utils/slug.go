package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugPattern = regexp.MustCompile("[^a-z0-9]+")

// GenerateSlug reduces text to a lowercase ascii identifier suitable for
// stored file names: accents are decomposed and dropped, everything else
// non-alphanumeric collapses to single dashes.
func GenerateSlug(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	text, _, _ = transform.String(t, text)

	text = strings.ToLower(text)
	text = slugPattern.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")

	return text
}
