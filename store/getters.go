package store

import (
	"fmt"
	"maps"
	"slices"
)

// GetterFunc computes a derived value. It must only read s and g.
type GetterFunc func(s *State, g *Getters) any

type getter struct {
	fn          GetterFunc
	dep         *Dep
	value       any
	initialized bool
	evaluations int
}

// Getters is the read-only view over a store's memoized computed values.
// A getter is evaluated on first read and again on the first read after one
// of its dependencies changed.
type Getters struct {
	rt      *Runtime
	state   *State
	getters map[string]*getter
	names   []string
}

func newGetters(rt *Runtime, state *State, defs map[string]GetterFunc) (*Getters, error) {
	g := &Getters{
		rt:      rt,
		state:   state,
		getters: make(map[string]*getter, len(defs)),
		names:   slices.Sorted(maps.Keys(defs)),
	}
	for _, name := range g.names {
		fn := defs[name]
		if fn == nil {
			return nil, fmt.Errorf("%w %q", ErrNilGetter, name)
		}
		g.getters[name] = &getter{
			fn:  fn,
			dep: newDep(rt, name),
		}
	}
	return g, nil
}

func (g *Getters) getter(name string) *getter {
	gt, ok := g.getters[name]
	if !ok {
		panic(fmt.Errorf("%w %q", ErrUnknownField, name))
	}
	return gt
}

// Get returns the value of the getter name, recomputing it first if it has
// never run or is dirty. It panics if name is not a getter.
func (g *Getters) Get(name string) any {
	return g.read(name, g.getter(name))
}

func (g *Getters) Lookup(name string) (any, bool) {
	gt, ok := g.getters[name]
	if !ok {
		return nil, false
	}
	return g.read(name, gt), true
}

func (g *Getters) read(name string, gt *getter) any {
	gt.dep.Depend()
	if !gt.initialized || gt.dep.isDirty {
		g.evaluate(name, gt)
	}
	return gt.value
}

func (g *Getters) evaluate(name string, gt *getter) {
	g.rt.enter(gt.dep)
	defer g.rt.leave()

	gt.dep.untrack()
	gt.evaluations++
	g.rt.metrics.evaluation(name)

	// a panicking definition leaves the getter clean but uninitialized, so
	// the next read retries and later writes still propagate through it
	gt.initialized = false
	gt.dep.isDirty = false
	gt.value = gt.fn(g.state, g)
	gt.initialized = true
}

func (g *Getters) Has(name string) bool {
	_, ok := g.getters[name]
	return ok
}

func (g *Getters) Names() []string {
	return slices.Clone(g.names)
}

func (g *Getters) Node(name string) *Dep {
	if gt, ok := g.getters[name]; ok {
		return gt.dep
	}
	return nil
}

// Evaluations reports how many times the definition of name has run.
func (g *Getters) Evaluations(name string) int {
	if gt, ok := g.getters[name]; ok {
		return gt.evaluations
	}
	return 0
}
