package turnstile

import (
	"fmt"
	"sync"

	"github.com/berkan-cetinkaya/turnstile/internal/lang"
)

// Factory builds a control for one form.
type Factory func(cfg Config, opts map[string]any) (Control, error)

// Registry lists the verification methods a host can offer.
type Registry struct {
	mu        sync.RWMutex
	names     []string
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a method. A name registered twice keeps only its latest
// factory and moves to the end of the list.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	r.names = append(r.names, name)
	r.factories[name] = factory
}

// Known returns the registered names in registration order.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

func (r *Registry) New(name string, cfg Config, opts map[string]any) (Control, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown verification control %q", name)
	}
	return factory(cfg, opts)
}

// Install adds Turnstile to r and loads its strings.
func Install(r *Registry) {
	r.Register(Name, func(cfg Config, opts map[string]any) (Control, error) {
		return New(cfg, WithVerificationOptions(opts)), nil
	})
	lang.Load()
}
