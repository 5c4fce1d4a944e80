package step

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a step instance from its params.
type Factory func(*Params) (Step, error)

// Registry maintains known step factories keyed by module name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a step factory. Returns an error if the module already exists.
func (r *Registry) Register(module string, factory Factory) error {
	if module == "" {
		return fmt.Errorf("step: module name is required")
	}
	if factory == nil {
		return fmt.Errorf("step: factory is required for %s", module)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[module]; exists {
		return fmt.Errorf("step: %s already registered", module)
	}
	r.factories[module] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(module string, factory Factory) {
	if err := r.Register(module, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs the step named by params.Module.
func (r *Registry) Resolve(params *Params) (Step, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[params.Module]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("step %s: unknown module %s", params.Name, params.Module)
	}
	s, err := factory(params)
	if err != nil {
		return nil, err
	}
	if err := s.Info().Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Modules returns a sorted list of registered module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
