package types

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Registry manages the available target tables
type Registry struct {
	factories map[string]func() *Table
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]func() *Table),
	}
}

// DefaultRegistry returns a registry holding the builtin targets and their aliases
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("cpp", CPP)
	r.Register("c++", CPP)
	r.Register("python", Python)
	r.Register("py", Python)
	return r
}

// Register adds a table factory under a target name. Names are case-insensitive.
func (r *Registry) Register(target string, factory func() *Table) {
	r.factories[strings.ToLower(target)] = factory
}

// Get builds the table of a target
func (r *Registry) Get(target string) (*Table, error) {
	factory, exists := r.factories[strings.ToLower(target)]
	if !exists {
		return nil, errors.Errorf("unsupported target: %s", target)
	}
	return factory(), nil
}

// Targets returns the registered target names, sorted
func (r *Registry) Targets() []string {
	targets := make([]string, 0, len(r.factories))
	for target := range r.factories {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}
