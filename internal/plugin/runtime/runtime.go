package runtime

import "sync"

// Feature defines the activation lifecycle for a compiled-in plugin.
type Feature interface {
	Activate() error
	Deactivate() error
}

// Runtime tracks constructed features and their activation state.
// Activate and Deactivate are idempotent; re-activating an active feature
// is a no-op so reconciliation loops can call them freely.
type Runtime struct {
	mu       sync.Mutex
	features map[string]Feature
	active   map[string]bool
}

func New() *Runtime {
	return &Runtime{
		features: make(map[string]Feature),
		active:   make(map[string]bool),
	}
}

// Register adds a feature implementation for the provided slug.
func (r *Runtime) Register(slug string, feature Feature) {
	if r == nil || feature == nil {
		return
	}

	r.mu.Lock()
	if r.features == nil {
		r.features = make(map[string]Feature)
	}
	r.features[slug] = feature
	r.mu.Unlock()
}

// Activate enables the feature identified by slug if it exists and is not
// already active.
func (r *Runtime) Activate(slug string) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	feature, ok := r.features[slug]
	alreadyActive := r.active[slug]
	r.mu.Unlock()
	if !ok || feature == nil || alreadyActive {
		return nil
	}

	if err := feature.Activate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.active == nil {
		r.active = make(map[string]bool)
	}
	r.active[slug] = true
	r.mu.Unlock()
	return nil
}

// Deactivate disables the feature identified by slug if it is active.
func (r *Runtime) Deactivate(slug string) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	feature, ok := r.features[slug]
	isActive := r.active[slug]
	r.mu.Unlock()
	if !ok || feature == nil || !isActive {
		return nil
	}

	if err := feature.Deactivate(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.active, slug)
	r.mu.Unlock()
	return nil
}

// IsActive reports the runtime activation state for slug.
func (r *Runtime) IsActive(slug string) bool {
	if r == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[slug]
}

// FeatureFunc adapts plain functions to the Feature interface.
type FeatureFunc struct {
	ActivateFunc   func() error
	DeactivateFunc func() error
}

func (f FeatureFunc) Activate() error {
	if f.ActivateFunc == nil {
		return nil
	}
	return f.ActivateFunc()
}

func (f FeatureFunc) Deactivate() error {
	if f.DeactivateFunc == nil {
		return nil
	}
	return f.DeactivateFunc()
}
