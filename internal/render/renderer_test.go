package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lorewiki-backend/internal/title"
)

type fakePages struct {
	existing map[string]bool
}

func (f *fakePages) ExistsByTitle(t title.Title) (bool, error) {
	return f.existing[t.PrefixedDBKey()], nil
}

var _ PageChecker = (*fakePages)(nil)

type fakeFiles struct {
	urls map[string]string
}

func (f *fakeFiles) URLFor(t title.Title) (string, bool) {
	u, ok := f.urls[t.PrefixedDBKey()]
	return u, ok
}

var _ FileSource = (*fakeFiles)(nil)

func newTestRenderer() *Renderer {
	return New(Options{
		Pages: &fakePages{existing: map[string]bool{
			"Main_Page":       true,
			"File:Sunset.jpg": true,
			"File:Harbor.png": true,
		}},
		Files: &fakeFiles{urls: map[string]string{
			"File:Sunset.jpg": "/uploads/sunset.jpg",
			"File:Harbor.png": "/uploads/harbor.png",
		}},
		DefaultThumbWidth: 180,
		MaxDepth:          4,
	})
}

func TestRenderMarkdownCore(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "some **bold** words")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, "<strong>bold</strong>") {
		t.Fatalf("markdown not rendered: %q", result.HTML)
	}
	if result.NoCache {
		t.Fatal("plain render must be cacheable")
	}
}

func TestExtensionTagExpansion(t *testing.T) {
	r := newTestRenderer()

	r.Hooks().MustRegisterTag("greet", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		return `<span class="greet">` + attrs["name"] + "|" + body + `</span>`, nil
	})

	result, err := r.Render(context.Background(), `before <greet name="World">hi</greet> after`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, `<span class="greet">World|hi</span>`) {
		t.Fatalf("tag not expanded: %q", result.HTML)
	}

	// Self-closing form carries an empty body.
	result, err = r.Render(context.Background(), `x <greet name='Solo'/> y`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, `<span class="greet">Solo|</span>`) {
		t.Fatalf("self-closing tag not expanded: %q", result.HTML)
	}
}

func TestExtensionTagCaseInsensitive(t *testing.T) {
	r := newTestRenderer()

	r.Hooks().MustRegisterTag("stamp", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		return "<b>stamped</b>", nil
	})

	result, err := r.Render(context.Background(), `<STAMP>x</STAMP>`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(result.HTML, "stamped") {
		t.Fatalf("uppercase tag not matched: %q", result.HTML)
	}
}

func TestFailingTagHandlerDropsTag(t *testing.T) {
	r := newTestRenderer()

	r.Hooks().MustRegisterTag("boom", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		return "", errors.New("nope")
	})
	r.Hooks().MustRegisterTag("panicky", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		panic("handler bug")
	})

	result, err := r.Render(context.Background(), "a <boom>x</boom> b <panicky/> c")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(result.HTML, "boom") || strings.Contains(result.HTML, "panicky") {
		t.Fatalf("failed tags should vanish: %q", result.HTML)
	}
	if !strings.Contains(result.HTML, "a") || !strings.Contains(result.HTML, "c") {
		t.Fatalf("surrounding text should survive: %q", result.HTML)
	}
}

func TestUnregisteredTagStaysLiteral(t *testing.T) {
	r := newTestRenderer()

	result, err := r.Render(context.Background(), "see <widget>x</widget>")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// No handler, no expansion; the raw tag flows through to the HTML
	// where the sanitizer (absent here) would deal with it.
	if !strings.Contains(result.HTML, "<widget>x</widget>") {
		t.Fatalf("unknown tag should stay literal: %q", result.HTML)
	}
}

func TestDisableCachePropagatesFromFragment(t *testing.T) {
	r := newTestRenderer()

	r.Hooks().MustRegisterTag("volatile", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		ctx.DisableCache()
		return ctx.ExpandFragment("**inner**")
	})

	result, err := r.Render(context.Background(), "<volatile/>")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !result.NoCache {
		t.Fatal("DisableCache inside a hook must mark the result")
	}
	if !strings.Contains(result.HTML, "<strong>inner</strong>") {
		t.Fatalf("fragment expansion missing: %q", result.HTML)
	}
}

func TestExpandFragmentDepthLimit(t *testing.T) {
	r := newTestRenderer()

	var depthErr error
	r.Hooks().MustRegisterTag("recurse", func(ctx *Context, body string, attrs map[string]string) (string, error) {
		out, err := ctx.ExpandFragment("<recurse/>")
		if err != nil {
			depthErr = err
			return "", err
		}
		return out, nil
	})

	if _, err := r.Render(context.Background(), "<recurse/>"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !errors.Is(depthErr, ErrDepthExceeded) {
		t.Fatalf("expected depth error, got %v", depthErr)
	}
}

func TestParseTagAttributes(t *testing.T) {
	attrs := parseTagAttributes(` size="120" Float='LEFT' choices=A|B `)
	if attrs["size"] != "120" {
		t.Errorf("size = %q", attrs["size"])
	}
	if attrs["float"] != "LEFT" {
		t.Errorf("float = %q, attribute names should lower-case, values stay", attrs["float"])
	}
	if attrs["choices"] != "A|B" {
		t.Errorf("choices = %q", attrs["choices"])
	}
}
