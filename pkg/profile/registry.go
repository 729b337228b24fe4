package profile

import (
	"fmt"
	"sync"

	"github.com/aretw0/slicer/pkg/domain"
)

// Registry manages the available profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	order    []string
}

// NewRegistry creates a registry holding the given profiles.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default creates a registry with the built-in profiles.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a profile to the registry.
// If a profile with the same name exists, it is overwritten in place.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

// Get looks up a profile by name.
func (r *Registry) Get(name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	return p, nil
}

// All returns the profiles in registration order.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.profiles[name])
	}
	return out
}

// Names returns the profile names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
