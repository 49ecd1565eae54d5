package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/smartcoll/internal/ir"
	"github.com/roach88/smartcoll/internal/value"
)

// Source supplies the items a view is computed from.
// *collection.Collection satisfies Source.
type Source interface {
	Name() string
	Items() []value.Value
}

// Func computes a view from the current items.
type Func func(items []value.Value) []value.Value

// AllView is registered on every Registry.
const AllView = "all"

var (
	// ErrNameRequired is returned when a view is added without a name.
	ErrNameRequired = errors.New("name required")
	// ErrFuncRequired is returned when a view is added without a function.
	ErrFuncRequired = errors.New("function required")
)

// Registry holds the named views of one source.
type Registry struct {
	src   Source
	names []string
	views map[string]Func
}

// NewRegistry creates a registry with the "all" view.
func NewRegistry(src Source) *Registry {
	r := &Registry{src: src, views: make(map[string]Func)}
	// Cannot fail: name and function are set.
	_ = r.Add(AllView, func(items []value.Value) []value.Value { return items })
	return r
}

// FromSpecs creates a registry with a Where view per spec.
func FromSpecs(src Source, specs []ir.ViewSpec) (*Registry, error) {
	r := NewRegistry(src)
	for _, s := range specs {
		if err := r.Add(s.Name, Where(s.Where)); err != nil {
			return nil, fmt.Errorf("view %q: %w", s.Name, err)
		}
	}
	return r, nil
}

// Add registers fn under name, replacing any view with the same name.
func (r *Registry) Add(name string, fn Func) error {
	if name == "" {
		return ErrNameRequired
	}
	if fn == nil {
		return ErrFuncRequired
	}
	if _, ok := r.views[name]; !ok {
		r.names = append(r.names, name)
	}
	r.views[name] = fn
	return nil
}

// Get computes the named view from the source's current items.
func (r *Registry) Get(name string) ([]value.Value, error) {
	fn, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("view %q not found", name)
	}
	return fn(r.src.Items()), nil
}

// Names returns view names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Where returns a view selecting the items that match pattern. A nil
// pattern selects every item.
func Where(pattern value.Value) Func {
	return func(items []value.Value) []value.Value {
		if pattern == nil {
			return items
		}
		match := matching(pattern)
		return lo.Filter(items, func(v value.Value, _ int) bool { return match(v) })
	}
}
