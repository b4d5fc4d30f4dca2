// Package archive defines the capability set shared by archive-source adapters
// and a registry that routes targets to them.
package archive

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/cnosuke/mcp-wayback/types"
)

var (
	// ErrNoAdapter is returned when no registered adapter accepts a target.
	ErrNoAdapter = errors.New("no adapter can handle target")
	// ErrDuplicateAdapter is returned when registering a name twice.
	ErrDuplicateAdapter = errors.New("adapter already registered")
)

// Adapter is an archive source able to run a test lookup for a target.
type Adapter interface {
	Name() string
	CanHandle(target string) bool
	Test(ctx context.Context, target string) (*types.TestOutcome, error)
}

// Registry holds adapters in registration order.
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.adapters {
		if existing.Name() == a.Name() {
			return errors.Wrapf(ErrDuplicateAdapter, "register %q", a.Name())
		}
	}
	r.adapters = append(r.adapters, a)
	return nil
}

func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Route returns the first adapter that can handle target.
func (r *Registry) Route(target string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if a.CanHandle(target) {
			return a, nil
		}
	}
	return nil, ErrNoAdapter
}
