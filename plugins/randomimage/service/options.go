package service

import (
	"strconv"
	"strings"
)

// Options are the recognized randomimage tag attributes. Zero values
// mean the attribute was absent or unusable.
type Options struct {
	Size    int
	Float   string
	Choices []string
}

var allowedFloats = map[string]bool{
	"left":   true,
	"right":  true,
	"center": true,
}

// ParseOptions reads tag attributes. Malformed values are dropped, not
// rejected: a bad size or float leaves that option unset and the tag
// still renders.
func ParseOptions(attrs map[string]string) Options {
	var opts Options

	if raw, ok := attrs["size"]; ok {
		if size, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && size > 0 {
			opts.Size = size
		}
	}

	if raw, ok := attrs["float"]; ok {
		float := strings.ToLower(strings.TrimSpace(raw))
		if allowedFloats[float] {
			opts.Float = float
		}
	}

	if raw, ok := attrs["choices"]; ok {
		for _, choice := range strings.Split(raw, "|") {
			if choice = strings.TrimSpace(choice); choice != "" {
				opts.Choices = append(opts.Choices, choice)
			}
		}
	}

	return opts
}
