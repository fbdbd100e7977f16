package load

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ID identifies a declared type within a Registry.
type ID int

// NoID is returned when a type has no parent or owner.
const NoID ID = -1

// Registry is the arena of declared types of one generation pass.
// Named types are indexed by name; inline types only have a slot.
type Registry struct {
	types   []*Type
	parents []ID
	owners  []ID
	index   map[string]ID
}

// NewRegistry builds a registry from the given types. Duplicate names,
// references to unknown types and parent cycles are errors.
func NewRegistry(types ...*Type) (*Registry, error) {
	r := &Registry{index: make(map[string]ID, len(types))}
	var errs []error
	for _, t := range types {
		if t == nil {
			continue
		}
		if t.Name == "" {
			errs = append(errs, errors.New("top-level type without a name"))
			continue
		}
		if _, ok := r.index[t.Name]; ok {
			errs = append(errs, fmt.Errorf("type %q: declared twice", t.Name))
			continue
		}
		r.index[t.Name] = r.add(t, NoID)
	}
	for _, t := range types {
		if t == nil || t.Name == "" {
			continue
		}
		r.addInline(t.ID, t.Fields)
		r.addInline(t.ID, t.Meta)
		for _, tr := range t.Traits {
			r.addInline(t.ID, tr.Fields)
		}
	}
	for id, t := range r.types {
		if t.Parent == "" {
			continue
		}
		pid, ok := r.index[t.Parent]
		if !ok {
			errs = append(errs, fmt.Errorf("type %q: unknown parent %q", t.Name, t.Parent))
			continue
		}
		r.parents[id] = pid
	}
	for id, t := range r.types {
		errs = append(errs, r.checkRefs(t)...)
		if cycle := r.cycle(ID(id)); cycle != nil {
			errs = append(errs, fmt.Errorf("type %q: parent cycle %s", t.Name, strings.Join(cycle, " -> ")))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(t *Type, owner ID) ID {
	id := ID(len(r.types))
	t.ID = id
	r.types = append(r.types, t)
	r.parents = append(r.parents, NoID)
	r.owners = append(r.owners, owner)
	return id
}

func (r *Registry) addInline(owner ID, fields []*Field) {
	for _, f := range fields {
		if f.Inline == nil {
			continue
		}
		id := r.add(f.Inline, owner)
		r.addInline(id, f.Inline.Fields)
	}
}

func (r *Registry) checkRefs(t *Type) []error {
	var errs []error
	check := func(fields []*Field) {
		for _, f := range fields {
			if f.Ref == "" {
				continue
			}
			if _, ok := r.index[f.Ref]; !ok {
				errs = append(errs, fmt.Errorf("type %q: field %q references unknown type %q", t.Name, f.Name, f.Ref))
			}
		}
	}
	check(t.Fields)
	check(t.Meta)
	for _, tr := range t.Traits {
		check(tr.Fields)
	}
	return errs
}

// cycle returns the names along a parent cycle starting at id, or nil.
func (r *Registry) cycle(id ID) []string {
	seen := map[ID]bool{id: true}
	path := []string{r.types[id].Name}
	for p := r.parents[id]; p != NoID; p = r.parents[p] {
		path = append(path, r.types[p].Name)
		if seen[p] {
			return path
		}
		seen[p] = true
	}
	return nil
}

// Len returns the number of slots, inline types included.
func (r *Registry) Len() int { return len(r.types) }

// Type returns the type stored at id.
func (r *Registry) Type(id ID) *Type { return r.types[id] }

// Lookup returns the id of the named type.
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.index[name]
	return id, ok
}

// Parent returns the declared parent of id.
func (r *Registry) Parent(id ID) (ID, bool) {
	p := r.parents[id]
	return p, p != NoID
}

// Owner returns the type declaring the inline type id.
func (r *Registry) Owner(id ID) (ID, bool) {
	o := r.owners[id]
	return o, o != NoID
}

// Chain returns the ancestors of id and id itself, root first.
func (r *Registry) Chain(id ID) []ID {
	chain := []ID{id}
	for p := r.parents[id]; p != NoID; p = r.parents[p] {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain
}

// Named returns the ids of all named types, sorted by name.
func (r *Registry) Named() []ID {
	ids := make([]ID, 0, len(r.index))
	for _, id := range r.index {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int {
		return strings.Compare(r.types[a].Name, r.types[b].Name)
	})
	return ids
}
