package service

import (
	"strings"
	"testing"
)

func TestBuildMarkup(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		width   int
		float   string
		caption string
		want    string
	}{
		{
			name:    "all directives",
			title:   "File:Example.png",
			width:   100,
			float:   "left",
			caption: "Hi",
			want:    "[[File:Example.png|thumb|100px|left|Hi]]",
		},
		{
			name:    "defaults",
			title:   "File:Example.png",
			caption: "Hi",
			want:    "[[File:Example.png|thumb|Hi]]",
		},
		{
			name:    "width only",
			title:   "File:Example.png",
			width:   250,
			caption: "&nbsp;",
			want:    "[[File:Example.png|thumb|250px|&nbsp;]]",
		},
		{
			name:    "float only",
			title:   "File:Example.png",
			float:   "center",
			caption: "Hi",
			want:    "[[File:Example.png|thumb|center|Hi]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMarkup(tt.title, tt.width, tt.float, tt.caption); got != tt.want {
				t.Errorf("BuildMarkup = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripMagnify(t *testing.T) {
	in := `<div class="thumb tright"><div class="thumbinner">` +
		`<a href="/wiki/File:A.png" class="image"><img src="/uploads/a.png" class="thumbimage" width="180" alt="A.png"/></a>` +
		`<div class="thumbcaption"><div class="magnify"><a href="/wiki/File:A.png" class="internal" title="Enlarge"></a></div>Caption text</div>` +
		`</div></div>`

	out := StripMagnify(in)

	if strings.Contains(out, "magnify") {
		t.Errorf("magnify control survived: %q", out)
	}
	if !strings.Contains(out, "Caption text") {
		t.Errorf("caption lost: %q", out)
	}
	if !strings.Contains(out, `class="thumbimage"`) {
		t.Errorf("image lost: %q", out)
	}
	if strings.Contains(out, "<?xml") {
		t.Errorf("serialized output carries an XML declaration: %q", out)
	}
}

func TestStripMagnifyRemovesEveryMatch(t *testing.T) {
	in := `<p>before</p><div class="magnify">one</div><span>middle</span><div class="magnify">two</div><p>after</p>`

	out := StripMagnify(in)

	if strings.Contains(out, "magnify") || strings.Contains(out, "one") || strings.Contains(out, "two") {
		t.Errorf("a magnify element survived: %q", out)
	}
	for _, keep := range []string{"<p>before</p>", "<span>middle</span>", "<p>after</p>"} {
		if !strings.Contains(out, keep) {
			t.Errorf("sibling %q lost: %q", keep, out)
		}
	}
}

func TestStripMagnifyLeavesOtherClasses(t *testing.T) {
	in := `<div class="magnifier">not it</div><div class="thumbcaption">still here</div>`

	out := StripMagnify(in)

	if !strings.Contains(out, "not it") || !strings.Contains(out, "still here") {
		t.Errorf("unrelated elements removed: %q", out)
	}
}

func TestStripMagnifyPlainText(t *testing.T) {
	if out := StripMagnify("just words"); !strings.Contains(out, "just words") {
		t.Errorf("plain text mangled: %q", out)
	}
}
