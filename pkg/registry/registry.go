package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
)

// Registry maps provider IDs to their implementations.
// It is filled at startup, frozen, and then only read.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
	frozen    bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]ports.Provider),
	}
}

// Register adds a provider to the registry.
// Registering an ID twice, or after Freeze, is a ConfigurationError.
func (r *Registry) Register(p ports.Provider) error {
	if p == nil || p.ID() == "" {
		return &domain.ConfigurationError{Subject: "provider", Reason: "provider must have an id"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &domain.ConfigurationError{Subject: "provider", ID: p.ID(), Reason: "registry is frozen"}
	}
	if _, exists := r.providers[p.ID()]; exists {
		return &domain.ConfigurationError{Subject: "provider", ID: p.ID(), Reason: "provider id already registered"}
	}
	r.providers[p.ID()] = p
	return nil
}

// MustRegister is Register for wiring code that cannot continue on failure.
func (r *Registry) MustRegister(p ports.Provider) {
	if err := r.Register(p); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}

// Resolve looks up a provider by ID.
func (r *Registry) Resolve(id string) (ports.Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.NotFoundError{Kind: "provider", ID: id}
	}
	return p, nil
}

// IDs returns the registered provider IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Freeze forbids further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}
