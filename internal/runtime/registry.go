// Package runtime is the boundary to the host component runtime: a
// dispatch table from unit name to an invokable render function. Compiled
// units are data, not dynamically compiled code, so reloading a name is a
// plain map overwrite and can never fail.
package runtime

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/dmitriid/svx/internal/domain"
)

// Component is one loaded render unit.
type Component struct {
	Name       string
	Kind       domain.DocumentKind
	Source     string
	Diagnostic bool

	template string
}

// Render writes the component output. Expression bodies in the template
// are opaque to the compiler and pass through verbatim; a diagnostic
// component renders its escaped error text instead.
func (c *Component) Render(w io.Writer) error {
	_, err := io.WriteString(w, c.template)
	return err
}

type Registry struct {
	mu         sync.RWMutex
	components map[string]*Component
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[string]*Component)}
}

// Load registers a compiled unit, replacing any previous definition of the
// same name.
func (r *Registry) Load(unit domain.CompiledUnit) error {
	if unit.Name == "" {
		return fmt.Errorf("cannot load unit with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[unit.Name] = &Component{
		Name:       unit.Name,
		Kind:       unit.Kind,
		Source:     unit.Source,
		Diagnostic: unit.Diagnostic,
		template:   unit.Template,
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
