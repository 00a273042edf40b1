package store

import (
	"fmt"
	"maps"
	"slices"
)

type field struct {
	value any
	dep   *Dep
}

// State is a fixed set of named mutable fields. Reads inside a getter or
// watch register a dependency; writes that change a value notify dependents.
type State struct {
	rt     *Runtime
	fields map[string]*field
	names  []string
}

func newState(rt *Runtime, initial map[string]any) *State {
	s := &State{
		rt:     rt,
		fields: make(map[string]*field, len(initial)),
		names:  slices.Sorted(maps.Keys(initial)),
	}
	for _, name := range s.names {
		s.fields[name] = &field{
			value: initial[name],
			dep:   newDep(rt, name),
		}
	}
	return s
}

func (s *State) field(name string) *field {
	f, ok := s.fields[name]
	if !ok {
		panic(fmt.Errorf("%w %q", ErrUnknownField, name))
	}
	return f
}

// Get returns the value of name and records it as a dependency of the
// current evaluation. It panics if name is not a field.
func (s *State) Get(name string) any {
	f := s.field(name)
	f.dep.Depend()
	return f.value
}

// Lookup is Get without the panic on unknown names.
func (s *State) Lookup(name string) (any, bool) {
	f, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	f.dep.Depend()
	return f.value, true
}

// Peek reads name without recording a dependency.
func (s *State) Peek(name string) any {
	return s.field(name).value
}

// Set replaces the value of name. Writing a value equal to the current one
// does nothing.
func (s *State) Set(name string, value any) error {
	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	s.rt.checkOwner()

	if s.rt.equal(f.value, value) {
		s.rt.metrics.write(false, 0)
		return nil
	}
	f.value = value
	s.rt.metrics.write(true, len(f.dep.subscribers))
	f.dep.Notify()
	return nil
}

// Update sets name to fn applied to its current value.
func (s *State) Update(name string, fn func(old any) any) error {
	f, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	return s.Set(name, fn(f.value))
}

func (s *State) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

func (s *State) Names() []string {
	return slices.Clone(s.names)
}

// Node exposes the dependency node backing name, or nil.
func (s *State) Node(name string) *Dep {
	if f, ok := s.fields[name]; ok {
		return f.dep
	}
	return nil
}
