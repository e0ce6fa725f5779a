package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds creators, loaders and publish plugins by identifier.
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
	loaders  map[string]Loader
	plugins  map[string]Plugin
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		creators: make(map[string]Creator),
		loaders:  make(map[string]Loader),
		plugins:  make(map[string]Plugin),
	}
}

// RegisterCreator adds a creator keyed by its identifier.
func (r *Registry) RegisterCreator(c Creator) error {
	if c == nil {
		return errors.New("nil creator")
	}
	id := strings.TrimSpace(c.Identifier())
	if id == "" {
		return errors.New("creator identifier is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.creators[id]; exists {
		return fmt.Errorf("creator %q already registered", id)
	}
	r.creators[id] = c
	return nil
}

// RegisterLoader adds a loader keyed by name.
func (r *Registry) RegisterLoader(l Loader) error {
	if l == nil {
		return errors.New("nil loader")
	}
	name := strings.TrimSpace(l.Name())
	if name == "" {
		return errors.New("loader name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("loader %q already registered", name)
	}
	r.loaders[name] = l
	return nil
}

// RegisterPlugin adds a publish plugin keyed by name. The plugin must
// implement at least one publish capability.
func (r *Registry) RegisterPlugin(p Plugin) error {
	if p == nil {
		return errors.New("nil plugin")
	}
	name := strings.TrimSpace(p.Name())
	if name == "" {
		return errors.New("plugin name is required")
	}
	switch p.(type) {
	case ContextCollector, InstanceCollector, Validator, Extractor, Integrator:
	default:
		return fmt.Errorf("plugin %q implements no publish capability", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	return nil
}

// Creator returns the creator with the given identifier.
func (r *Registry) Creator(id string) (Creator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creators[id]
	return c, ok
}

// Creators returns all creators sorted by identifier.
func (r *Registry) Creators() []Creator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Creator, 0, len(r.creators))
	for _, c := range r.creators {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Creator) int { return strings.Compare(a.Identifier(), b.Identifier()) })
	return out
}

// Loader returns the loader with the given name.
func (r *Registry) Loader(name string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Plugins returns publish plugins sorted by order; plugins with equal order
// keep registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	slices.SortStableFunc(out, func(a, b Plugin) int { return cmp.Compare(a.Order(), b.Order()) })
	return out
}
