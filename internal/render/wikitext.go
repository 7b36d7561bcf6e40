package render

import (
	"html/template"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"lorewiki-backend/internal/title"
)

var linkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// expandWikiConstructs rewrites [[...]] constructs into HTML: File-space
// targets embed, everything else links. Constructs that fail title
// parsing are left as written.
func (r *Renderer) expandWikiConstructs(rc *Context, source string) string {
	return linkPattern.ReplaceAllStringFunc(source, func(match string) string {
		inner := match[2 : len(match)-2]
		parts := strings.Split(inner, "|")
		target := strings.TrimSpace(parts[0])

		// A leading colon forces link form: [[:File:X.png]] links to the
		// file page instead of embedding it.
		forceLink := strings.HasPrefix(target, ":")
		if forceLink {
			target = strings.TrimPrefix(target, ":")
		}

		t, err := title.Parse(target)
		if err != nil {
			return match
		}

		if t.Namespace() == title.NamespaceFile && !forceLink {
			return r.renderFileEmbed(rc, t, parts[1:])
		}

		label := t.PrefixedText()
		if len(parts) > 1 {
			if custom := strings.TrimSpace(strings.Join(parts[1:], "|")); custom != "" {
				label = custom
			}
		}
		return r.renderLink(t, label)
	})
}

// expandLinksOnly is the restricted pass used inside captions: every
// construct becomes a link, File embeds do not nest.
func (r *Renderer) expandLinksOnly(source string) string {
	return linkPattern.ReplaceAllStringFunc(source, func(match string) string {
		inner := match[2 : len(match)-2]
		parts := strings.Split(inner, "|")
		target := strings.TrimPrefix(strings.TrimSpace(parts[0]), ":")

		t, err := title.Parse(target)
		if err != nil {
			return match
		}

		label := t.PrefixedText()
		if len(parts) > 1 {
			if custom := strings.TrimSpace(strings.Join(parts[1:], "|")); custom != "" {
				label = custom
			}
		}
		return r.renderLink(t, label)
	})
}

func (r *Renderer) renderLink(t title.Title, label string) string {
	href := "/wiki/" + url.PathEscape(t.PrefixedDBKey())
	class := ""
	if r.pages != nil {
		if exists, err := r.pages.ExistsByTitle(t); err == nil && !exists {
			class = ` class="new"`
		}
	}
	return `<a href="` + href + `"` + class + `>` + template.HTMLEscapeString(label) + `</a>`
}

type embedOptions struct {
	thumb     bool
	frameless bool
	float     string
	width     int
	caption   string
}

// parseEmbedParams interprets [[File:...|...]] parameters: known option
// words are consumed, a trailing "px" number sets the width, and the last
// remaining parameter becomes the caption.
func parseEmbedParams(params []string) embedOptions {
	var opts embedOptions
	for _, raw := range params {
		p := strings.TrimSpace(raw)
		lower := strings.ToLower(p)
		switch lower {
		case "":
			continue
		case "thumb", "thumbnail", "frame":
			opts.thumb = true
		case "frameless":
			opts.frameless = true
		case "left", "right", "center", "none":
			opts.float = lower
		default:
			if w, ok := parsePixelWidth(lower); ok {
				opts.width = w
			} else {
				opts.caption = p
			}
		}
	}
	return opts
}

func parsePixelWidth(s string) (int, bool) {
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// renderFileEmbed builds the HTML for one file inclusion. The thumb form
// is the classic layout: outer float div, inner box, linked image, then a
// caption box leading with the magnify link. Missing pages degrade to a
// red link. The whole fragment stays on one line so the Markdown pass
// treats it as a single raw HTML block.
func (r *Renderer) renderFileEmbed(rc *Context, t title.Title, params []string) string {
	opts := parseEmbedParams(params)

	var src string
	ok := false
	if r.files != nil {
		src, ok = r.files.URLFor(t)
	}
	if !ok {
		return r.renderLink(t, t.PrefixedText())
	}

	width := opts.width
	if width <= 0 {
		width = r.defaultThumbWidth
	}

	href := "/wiki/" + url.PathEscape(t.PrefixedDBKey())
	alt := template.HTMLEscapeString(t.Text())
	escapedSrc := template.HTMLEscapeString(src)

	if !opts.thumb {
		img := `<a href="` + href + `" class="image"><img src="` + escapedSrc + `" width="` + strconv.Itoa(width) + `" alt="` + alt + `"></a>`
		switch opts.float {
		case "left":
			return `<div class="floatleft">` + img + `</div>`
		case "right":
			return `<div class="floatright">` + img + `</div>`
		case "center":
			return `<div class="center">` + img + `</div>`
		default:
			return img
		}
	}

	floatClass := "tright"
	center := false
	switch opts.float {
	case "left":
		floatClass = "tleft"
	case "center":
		floatClass = "tnone"
		center = true
	case "none":
		floatClass = "tnone"
	}

	caption := r.renderInlineFragment(rc, opts.caption)

	var b strings.Builder
	b.WriteString(`<div class="thumb ` + floatClass + `"><div class="thumbinner">`)
	b.WriteString(`<a href="` + href + `" class="image"><img src="` + escapedSrc + `" class="thumbimage" width="` + strconv.Itoa(width) + `" alt="` + alt + `"></a>`)
	b.WriteString(`<div class="thumbcaption"><div class="magnify"><a href="` + href + `" class="internal" title="Enlarge"></a></div>`)
	b.WriteString(caption)
	b.WriteString(`</div></div></div>`)

	out := b.String()
	if center {
		out = `<div class="center">` + out + `</div>`
	}
	return out
}
