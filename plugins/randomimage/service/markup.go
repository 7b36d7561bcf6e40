package service

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BuildMarkup assembles the thumbnail embed for the chosen image. Width
// and float are omitted when unset; the caption slot is always present.
func BuildMarkup(name string, width int, float, caption string) string {
	parts := []string{name, "thumb"}
	if width > 0 {
		parts = append(parts, strconv.Itoa(width)+"px")
	}
	if float != "" {
		parts = append(parts, float)
	}
	parts = append(parts, caption)
	return "[[" + strings.Join(parts, "|") + "]]"
}

// StripMagnify removes the enlarge control the thumbnail markup carries;
// a random image links nowhere useful to enlarge. If the fragment does
// not parse it is returned untouched.
func StripMagnify(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("div.magnify").Remove()

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}
