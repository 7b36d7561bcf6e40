package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TagHandler renders one occurrence of a registered extension tag. body is
// the raw text between the opening and closing tag (empty for the
// self-closing form), attrs the parsed attributes with lower-cased names.
// The returned fragment replaces the tag in the page source; errors drop
// the tag from the output.
type TagHandler func(ctx *Context, body string, attrs map[string]string) (string, error)

// Preprocessor runs over raw page source before tag expansion. Hooks run
// in registration order.
type Preprocessor func(source string) string

type namedPreprocessor struct {
	name string
	fn   Preprocessor
}

// HookRegistry stores the extension hooks plugins contribute to the
// renderer: extension tags and source preprocessors.
type HookRegistry struct {
	mu            sync.RWMutex
	tags          map[string]TagHandler
	preprocessors []namedPreprocessor
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{tags: make(map[string]TagHandler)}
}

// RegisterTag associates a handler with a normalised tag name. Names must
// be plain identifiers; registering an existing name replaces the handler.
func (r *HookRegistry) RegisterTag(name string, handler TagHandler) error {
	if r == nil {
		return fmt.Errorf("hook registry is nil")
	}

	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return fmt.Errorf("tag name is empty")
	}
	if !isTagName(name) {
		return fmt.Errorf("tag name %q is not a valid identifier", name)
	}
	if handler == nil {
		return fmt.Errorf("handler is nil for tag %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tags == nil {
		r.tags = make(map[string]TagHandler)
	}
	r.tags[name] = handler
	return nil
}

// MustRegisterTag registers the handler and panics if registration fails.
func (r *HookRegistry) MustRegisterTag(name string, handler TagHandler) {
	if err := r.RegisterTag(name, handler); err != nil {
		panic(err)
	}
}

func (r *HookRegistry) UnregisterTag(name string) {
	if r == nil {
		return
	}

	name = strings.TrimSpace(strings.ToLower(name))

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, name)
}

// Tag retrieves the handler for the provided tag name if one exists.
func (r *HookRegistry) Tag(name string) (TagHandler, bool) {
	if r == nil {
		return nil, false
	}

	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.tags[name]
	return handler, ok
}

// TagNames returns the registered tag names in sorted order.
func (r *HookRegistry) TagNames() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterPreprocessor appends a named source hook. The name exists so the
// owner can unregister it later.
func (r *HookRegistry) RegisterPreprocessor(name string, fn Preprocessor) error {
	if r == nil {
		return fmt.Errorf("hook registry is nil")
	}

	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return fmt.Errorf("preprocessor name is empty")
	}
	if fn == nil {
		return fmt.Errorf("preprocessor is nil for %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.preprocessors {
		if existing.name == name {
			return fmt.Errorf("preprocessor %s is already registered", name)
		}
	}
	r.preprocessors = append(r.preprocessors, namedPreprocessor{name: name, fn: fn})
	return nil
}

func (r *HookRegistry) UnregisterPreprocessor(name string) {
	if r == nil {
		return
	}

	name = strings.TrimSpace(strings.ToLower(name))

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.preprocessors {
		if existing.name == name {
			r.preprocessors = append(r.preprocessors[:i], r.preprocessors[i+1:]...)
			return
		}
	}
}

// Preprocessors returns the hooks in registration order.
func (r *HookRegistry) Preprocessors() []Preprocessor {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fns := make([]Preprocessor, 0, len(r.preprocessors))
	for _, p := range r.preprocessors {
		fns = append(fns, p.fn)
	}
	return fns
}

func isTagName(name string) bool {
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return name != ""
}
