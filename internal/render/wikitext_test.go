package render

import (
	"context"
	"strings"
	"testing"
)

func TestWikiLinkToExistingPage(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "go to [[Main Page]] now")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, `<a href="/wiki/Main_Page">Main Page</a>`) {
		t.Fatalf("link missing: %q", result.HTML)
	}
}

func TestWikiLinkToMissingPageGetsNewClass(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "[[No Such Page|look here]]")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, `class="new"`) {
		t.Fatalf("missing page should get the new class: %q", result.HTML)
	}
	if !strings.Contains(result.HTML, ">look here</a>") {
		t.Fatalf("custom label lost: %q", result.HTML)
	}
}

func TestFileEmbedThumb(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "[[File:Sunset.jpg|thumb|120px|left|An evening view]]")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := result.HTML
	for _, want := range []string{
		`class="thumb tleft"`,
		`class="thumbinner"`,
		`src="/uploads/sunset.jpg"`,
		`width="120"`,
		`class="magnify"`,
		`An evening view`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("thumb HTML missing %q in %q", want, html)
		}
	}
}

func TestFileEmbedDefaultsToRightFloatAndConfiguredWidth(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "[[File:Sunset.jpg|thumb|Caption]]")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, `class="thumb tright"`) {
		t.Fatalf("default float should be right: %q", result.HTML)
	}
	if !strings.Contains(result.HTML, `width="180"`) {
		t.Fatalf("default width should apply: %q", result.HTML)
	}
}

func TestFileEmbedMissingPageRendersRedLink(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "[[File:Ghost.png|thumb|Never uploaded]]")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(result.HTML, "thumbinner") {
		t.Fatalf("missing file must not produce a thumb: %q", result.HTML)
	}
	if !strings.Contains(result.HTML, `class="new"`) {
		t.Fatalf("missing file should link red: %q", result.HTML)
	}
}

func TestColonForcesLinkForm(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "see [[:File:Sunset.jpg]]")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(result.HTML, "<img") {
		t.Fatalf("colon prefix must suppress embedding: %q", result.HTML)
	}
	if !strings.Contains(result.HTML, ">File:Sunset.jpg</a>") {
		t.Fatalf("file link missing: %q", result.HTML)
	}
}

func TestMalformedConstructLeftAsWritten(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "broken [[###]] stays")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, "[[###]]") {
		t.Fatalf("unparseable construct should stay literal: %q", result.HTML)
	}
}

func TestParseEmbedParams(t *testing.T) {
	opts := parseEmbedParams([]string{"thumb", "120px", "LEFT", "The caption"})
	if !opts.thumb {
		t.Error("thumb not recognized")
	}
	if opts.width != 120 {
		t.Errorf("width = %d, want 120", opts.width)
	}
	if opts.float != "left" {
		t.Errorf("float = %q, want lower-cased left", opts.float)
	}
	if opts.caption != "The caption" {
		t.Errorf("caption = %q", opts.caption)
	}

	opts = parseEmbedParams([]string{"first words", "actual caption"})
	if opts.caption != "actual caption" {
		t.Errorf("last unrecognized parameter should win the caption, got %q", opts.caption)
	}

	opts = parseEmbedParams([]string{"0px", "-3px", "notpx"})
	if opts.width != 0 {
		t.Errorf("non-positive widths must be ignored, got %d", opts.width)
	}
	if opts.caption != "notpx" {
		t.Errorf("caption = %q", opts.caption)
	}
}
