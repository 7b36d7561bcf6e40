package service

import (
	"regexp"
	"strings"

	"lorewiki-backend/internal/title"
)

// captionPlaceholder keeps the caption box visibly empty instead of
// collapsing it.
const captionPlaceholder = "&nbsp;"

var (
	captionTagPattern    = regexp.MustCompile(`(?is)<randomcaption>(.*?)</randomcaption>`)
	captionMarkerPattern = regexp.MustCompile(`(?i)</?randomcaption>`)
)

// captionFor derives a caption from the image's description page. The
// raw stored text is read, not the rendered form, so the marker
// stripping that runs on normal renders cannot hide the tag from us.
// Any read failure falls through to the placeholder.
func (s *Service) captionFor(t title.Title) string {
	content, err := s.descriptionContent(t)
	if err != nil || content == "" {
		return captionPlaceholder
	}
	return ExtractCaption(content)
}

func (s *Service) descriptionContent(t title.Title) (string, error) {
	page, err := s.pages.GetByTitle(t)
	if err != nil {
		return "", err
	}
	revision, err := s.revisions.CurrentByPageID(page.ID)
	if err != nil {
		return "", err
	}
	return revision.Content, nil
}

// ExtractCaption picks a caption out of description text: an explicit
// <randomcaption> tag wins, then the text before the first newline,
// then the whole text. The fallbacks run on marker-stripped text so a
// bare or empty tag never leaks into the caption.
func ExtractCaption(content string) string {
	if m := captionTagPattern.FindStringSubmatch(content); m != nil {
		if caption := strings.TrimSpace(m[1]); caption != "" {
			return caption
		}
	}

	content = StripCaptionMarkers(content)

	if line, _, found := strings.Cut(content, "\n"); found {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	if text := strings.TrimSpace(content); text != "" {
		return text
	}
	return captionPlaceholder
}

// StripCaptionMarkers removes literal caption markers from page source.
// Registered as a render preprocessor so a description page viewed
// directly never shows the raw tag.
func StripCaptionMarkers(source string) string {
	return captionMarkerPattern.ReplaceAllString(source, "")
}
