package registry

import (
	"sort"
	"strings"
	"sync"

	"lorewiki-backend/internal/plugin/host"
	pluginruntime "lorewiki-backend/internal/plugin/runtime"
)

// Factory builds a plugin feature bound to the given host. Plugins call
// Register from init(), so every compiled-in plugin is known before the
// application starts reconciling stored activation state.
type Factory func(host.Host) (pluginruntime.Feature, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

func Register(slug string, factory Factory) {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" || factory == nil {
		return
	}

	mu.Lock()
	factories[cleaned] = factory
	mu.Unlock()
}

func FactoryFor(slug string) (Factory, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" {
		return nil, false
	}

	mu.RLock()
	factory, ok := factories[cleaned]
	mu.RUnlock()
	return factory, ok
}

func All() map[string]Factory {
	mu.RLock()
	defer mu.RUnlock()

	result := make(map[string]Factory, len(factories))
	for slug, factory := range factories {
		result[slug] = factory
	}
	return result
}

// Slugs lists registered plugin slugs in sorted order.
func Slugs() []string {
	mu.RLock()
	defer mu.RUnlock()

	slugs := make([]string, 0, len(factories))
	for slug := range factories {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
