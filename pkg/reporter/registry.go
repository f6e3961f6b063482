package reporter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a fresh reporter for one run.
type Factory func(opts Options) (Reporter, error)

// Registry maps format names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in formats.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{
		Console: func(opts Options) (Reporter, error) { return NewConsole(opts), nil },
		JSON:    func(opts Options) (Reporter, error) { return NewJSON(opts), nil },
		HTML:    func(opts Options) (Reporter, error) { return NewHTML(opts) },
		TAP:     func(opts Options) (Reporter, error) { return NewTAP(opts), nil },
	}}
}

// Register adds a format. Names are unique and built-ins cannot be replaced.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return errors.New("register reporter: empty name")
	}
	if f == nil {
		return fmt.Errorf("register reporter %q: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register reporter %q: already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Generate builds the reporter named by opts.Reporter. An empty name
// selects the console reporter.
func (r *Registry) Generate(opts Options) (Reporter, error) {
	name := opts.Reporter
	if name == "" {
		name = Console
	}
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownReporterError{Name: name, Known: r.Names()}
	}
	rep, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("creating %s reporter: %w", name, err)
	}
	return rep, nil
}

// Names lists the registered formats in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a format to the default registry.
func Register(name string, f Factory) error {
	return defaultRegistry.Register(name, f)
}

// Generate builds a reporter from the default registry.
func Generate(opts Options) (Reporter, error) {
	return defaultRegistry.Generate(opts)
}

// Names lists the formats of the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
