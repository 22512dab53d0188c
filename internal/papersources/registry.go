package papersources

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/helixir/article-explorer/internal/domain"
)

// Registry maps provider names to search sources. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SearchSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SearchSource),
	}
}

// Register adds a source under its lower-cased name, replacing any previous one.
func (r *Registry) Register(source SearchSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[strings.ToLower(source.Name())] = source
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (SearchSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("search provider %q: %w", name, domain.ErrNotFound)
	}
	return source, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
