package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/logger"
)

// ErrDepthExceeded is returned by ExpandFragment when nested expansion
// goes past the configured limit.
var ErrDepthExceeded = errors.New("render: expansion depth exceeded")

// PageChecker answers link-existence queries; satisfied by the page
// repository.
type PageChecker interface {
	ExistsByTitle(t title.Title) (bool, error)
}

// FileSource resolves File-namespace titles to servable URLs. ok is false
// when no page by that title exists at all; a File page without a stored
// asset resolves to its placeholder URL.
type FileSource interface {
	URLFor(t title.Title) (url string, ok bool)
}

type Options struct {
	Pages             PageChecker
	Files             FileSource
	Hooks             *HookRegistry
	Policy            *bluemonday.Policy
	DefaultThumbWidth int
	MaxDepth          int
}

// Renderer turns page source into sanitized HTML. Source is Markdown
// extended with wiki constructs: registered extension tags, [[links]] and
// [[File:...]] embeds are expanded first, then the remainder goes through
// goldmark, then the sanitizer.
type Renderer struct {
	pages             PageChecker
	files             FileSource
	hooks             *HookRegistry
	md                goldmark.Markdown
	policy            *bluemonday.Policy
	defaultThumbWidth int
	maxDepth          int
}

func New(opts Options) *Renderer {
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NewHookRegistry()
	}

	width := opts.DefaultThumbWidth
	if width <= 0 {
		width = 180
	}

	depth := opts.MaxDepth
	if depth <= 0 {
		depth = 8
	}

	// Raw HTML passthrough is safe here: expanded constructs are the only
	// intended HTML source and the policy pass strips everything else.
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	return &Renderer{
		pages:             opts.Pages,
		files:             opts.Files,
		hooks:             hooks,
		md:                md,
		policy:            opts.Policy,
		defaultThumbWidth: width,
		maxDepth:          depth,
	}
}

func (r *Renderer) Hooks() *HookRegistry {
	return r.hooks
}

// Result is one finished render. NoCache marks output that must not enter
// the parser cache, propagated from any hook that called DisableCache.
type Result struct {
	HTML    string
	NoCache bool
}

type renderFlags struct {
	noCache bool
}

// Context carries per-render state into hooks. Child contexts created by
// ExpandFragment share the flags so cacheability decisions made deep in a
// fragment reach the top-level result.
type Context struct {
	ctx      context.Context
	renderer *Renderer
	depth    int
	flags    *renderFlags
}

// Context returns the request context the render was started with.
func (c *Context) Context() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

// DisableCache marks the whole render uncacheable.
func (c *Context) DisableCache() {
	c.flags.noCache = true
}

// DefaultThumbWidth exposes the renderer default for hooks that build
// file markup.
func (c *Context) DefaultThumbWidth() int {
	return c.renderer.defaultThumbWidth
}

// ExpandFragment renders a standalone piece of markup through the full
// pipeline and returns the HTML fragment.
func (c *Context) ExpandFragment(markup string) (string, error) {
	if c.depth+1 > c.renderer.maxDepth {
		return "", ErrDepthExceeded
	}
	child := &Context{ctx: c.ctx, renderer: c.renderer, depth: c.depth + 1, flags: c.flags}
	return c.renderer.renderToHTML(child, markup)
}

// Render converts source to sanitized HTML.
func (r *Renderer) Render(ctx context.Context, source string) (Result, error) {
	rc := &Context{ctx: ctx, renderer: r, flags: &renderFlags{}}
	html, err := r.renderToHTML(rc, source)
	if err != nil {
		return Result{}, err
	}
	return Result{HTML: html, NoCache: rc.flags.noCache}, nil
}

func (r *Renderer) renderToHTML(rc *Context, source string) (string, error) {
	for _, pre := range r.hooks.Preprocessors() {
		source = pre(source)
	}

	source = r.expandTags(rc, source)
	source = r.expandWikiConstructs(rc, source)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}

	out := buf.String()
	if r.policy != nil {
		out = r.policy.Sanitize(out)
	}
	return out, nil
}

var attrPattern = regexp.MustCompile(`([A-Za-z][-A-Za-z0-9_]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|(\S+))`)

// parseTagAttributes extracts attr="value" pairs; names are lower-cased,
// single quotes and bare values are tolerated.
func parseTagAttributes(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" && m[3] != "" {
			value = m[3]
		}
		if value == "" && m[4] != "" {
			value = m[4]
		}
		attrs[strings.ToLower(m[1])] = value
	}
	return attrs
}

// expandTags replaces registered extension tags with their handler output.
// Both <tag .../> and <tag ...>body</tag> forms match. A failing or
// panicking handler drops its tag from the output; the page still renders.
func (r *Renderer) expandTags(rc *Context, source string) string {
	names := r.hooks.TagNames()
	if len(names) == 0 {
		return source
	}

	alternation := strings.Join(names, "|")
	pattern, err := regexp.Compile(`(?is)<(` + alternation + `)((?:\s[^>]*)?)(?:/\s*>|>(.*?)</\s*(?:` + alternation + `)\s*>)`)
	if err != nil {
		logger.Error(err, "Failed to compile extension tag pattern", map[string]interface{}{"tags": names})
		return source
	}

	return pattern.ReplaceAllStringFunc(source, func(match string) string {
		sub := pattern.FindStringSubmatch(match)
		if sub == nil {
			return match
		}

		name := strings.ToLower(sub[1])
		handler, ok := r.hooks.Tag(name)
		if !ok {
			return match
		}

		body := sub[3]
		attrs := parseTagAttributes(sub[2])

		out, err := safeInvokeTag(handler, rc, body, attrs)
		if err != nil {
			logger.Warn("Extension tag failed", map[string]interface{}{
				"tag":   name,
				"error": err.Error(),
			})
			return ""
		}
		return out
	})
}

func safeInvokeTag(handler TagHandler, rc *Context, body string, attrs map[string]string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tag handler panic: %v", p)
		}
	}()
	return handler(rc, body, attrs)
}

// renderInlineFragment renders caption-sized markup and unwraps the
// enclosing paragraph goldmark adds.
func (r *Renderer) renderInlineFragment(rc *Context, markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	expanded := r.expandLinksOnly(markup)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(expanded), &buf); err != nil {
		return template.HTMLEscapeString(markup)
	}

	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out
}
