package title

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Namespace identifies the content space a page lives in. The numeric
// values follow the conventional wiki numbering so imported content keeps
// its addressing.
type Namespace int

const (
	NamespaceMain Namespace = 0
	NamespaceFile Namespace = 6
)

var namespaceNames = map[Namespace]string{
	NamespaceMain: "",
	NamespaceFile: "File",
}

var namespacesByPrefix = map[string]Namespace{
	"file": NamespaceFile,
	// Legacy alias kept for imported links.
	"image": NamespaceFile,
}

// Name returns the canonical namespace prefix without the colon. The main
// namespace has no prefix and returns "".
func (n Namespace) Name() string {
	return namespaceNames[n]
}

// Known reports whether n is a namespace this wiki serves.
func (n Namespace) Known() bool {
	_, ok := namespaceNames[n]
	return ok
}

// ErrInvalidTitle is returned for titles that normalize to nothing or
// contain characters the wiki cannot address.
var ErrInvalidTitle = errors.New("invalid page title")

// invalidTitleChars are rejected outright; they collide with link and tag
// syntax or break URLs.
const invalidTitleChars = "#<>[]|{}"

// Title is a parsed, normalized page address: a namespace plus the
// canonical text form (spaces, first letter upper-cased, NFC).
type Title struct {
	ns   Namespace
	text string
}

// Parse interprets raw as an optionally namespace-prefixed title:
// "File:sunset.jpg", "file: Sunset.jpg" and "File:sunset_jpg.png" all
// normalize to the same address. Unknown prefixes are kept as part of a
// main-namespace title, so "Category theory: basics" stays one page.
func Parse(raw string) (Title, error) {
	text := normalizeText(raw)
	if text == "" {
		return Title{}, ErrInvalidTitle
	}

	ns := NamespaceMain
	if prefix, rest, ok := strings.Cut(text, ":"); ok {
		key := strings.ToLower(strings.TrimSpace(prefix))
		if mapped, known := namespacesByPrefix[key]; known {
			ns = mapped
			text = strings.TrimSpace(rest)
		}
	}

	return New(ns, text)
}

// New builds a title in an explicit namespace. The text must not carry a
// namespace prefix of its own.
func New(ns Namespace, text string) (Title, error) {
	if !ns.Known() {
		return Title{}, ErrInvalidTitle
	}
	text = normalizeText(text)
	if text == "" || strings.ContainsAny(text, invalidTitleChars) {
		return Title{}, ErrInvalidTitle
	}
	return Title{ns: ns, text: upperFirst(text)}, nil
}

// FromDBKey rebuilds a title from its stored form (underscored text).
func FromDBKey(ns Namespace, key string) (Title, error) {
	return New(ns, strings.ReplaceAll(key, "_", " "))
}

func (t Title) Namespace() Namespace { return t.ns }

// Text is the canonical display text without the namespace prefix.
func (t Title) Text() string { return t.text }

// DBKey is the storage form of the text: spaces become underscores.
func (t Title) DBKey() string {
	return strings.ReplaceAll(t.text, " ", "_")
}

// PrefixedText is the full display form, e.g. "File:Sunset over water.jpg".
func (t Title) PrefixedText() string {
	if name := t.ns.Name(); name != "" {
		return name + ":" + t.text
	}
	return t.text
}

// PrefixedDBKey is the full storage form, e.g. "File:Sunset_over_water.jpg".
func (t Title) PrefixedDBKey() string {
	if name := t.ns.Name(); name != "" {
		return name + ":" + t.DBKey()
	}
	return t.DBKey()
}

func (t Title) IsZero() bool { return t.text == "" }

func (t Title) String() string { return t.PrefixedText() }

// normalizeText applies the canonical text normalization: NFC, underscores
// to spaces, runs of whitespace collapsed, surrounding whitespace dropped.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
