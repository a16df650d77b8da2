package capability

import (
	"fmt"
	"sort"

	"github.com/wayfind-ai/wayfind/internal/types"
)

// Registry is the read-only catalog of capabilities available to planning
// runs. It is constructed once at startup via NewRegistry and never mutated
// afterwards, so concurrent reads from independent runs need no locking.
type Registry struct {
	byName  map[string]Capability
	ordered []string
}

// NewRegistry builds a registry from the given capabilities.
// Returns an error if any capability is invalid or a name is duplicated.
func NewRegistry(caps []Capability) (*Registry, error) {
	if len(caps) == 0 {
		return nil, types.NewError(types.CATALOG_VALIDATION_FAILED,
			"registry requires at least one capability")
	}

	r := &Registry{
		byName:  make(map[string]Capability, len(caps)),
		ordered: make([]string, 0, len(caps)),
	}

	for _, c := range caps {
		if err := c.Validate(); err != nil {
			return nil, types.WrapError(types.CATALOG_VALIDATION_FAILED,
				"invalid capability", err)
		}
		if _, exists := r.byName[c.Name]; exists {
			return nil, types.NewError(types.CATALOG_VALIDATION_FAILED,
				fmt.Sprintf("duplicate capability name %q", c.Name))
		}
		r.byName[c.Name] = c
		r.ordered = append(r.ordered, c.Name)
	}

	return r, nil
}

// List returns all capabilities in registration order.
// The returned slice is a copy and safe to modify.
func (r *Registry) List() []Capability {
	result := make([]Capability, 0, len(r.ordered))
	for _, name := range r.ordered {
		result = append(result, r.byName[name])
	}
	return result
}

// ByCategory returns all capabilities with the given category tag, in
// registration order. The returned slice is a copy and safe to modify.
func (r *Registry) ByCategory(tag Category) []Capability {
	var result []Capability
	for _, name := range r.ordered {
		if c := r.byName[name]; c.Category == tag {
			result = append(result, c)
		}
	}
	return result
}

// Get returns the capability with the given name.
func (r *Registry) Get(name string) (Capability, error) {
	c, ok := r.byName[name]
	if !ok {
		return Capability{}, types.NewError(types.CAPABILITY_NOT_FOUND,
			fmt.Sprintf("capability %q is not registered", name))
	}
	return c, nil
}

// Has reports whether a capability with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// PreconditionsHold reports whether the named capability's precondition holds
// for the given state. Unknown capabilities never hold.
func (r *Registry) PreconditionsHold(state StateView, name string) bool {
	c, ok := r.byName[name]
	if !ok {
		return false
	}
	return c.Applicable(state)
}

// Categories returns the distinct categories present in the registry,
// sorted for deterministic output.
func (r *Registry) Categories() []Category {
	seen := make(map[Category]bool)
	for _, c := range r.byName {
		seen[c.Category] = true
	}
	result := make([]Category, 0, len(seen))
	for c := range seen {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
