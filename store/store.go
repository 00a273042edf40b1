package store

import "fmt"

// Store pairs a State with the Getters derived from it.
type Store struct {
	rt      *Runtime
	state   *State
	getters *Getters
}

// NewStore builds a store on rt. Field and getter names share one namespace.
func (rt *Runtime) NewStore(state map[string]any, getters map[string]GetterFunc) (*Store, error) {
	for name := range getters {
		if _, ok := state[name]; ok {
			return nil, fmt.Errorf("%w %q", ErrDuplicateName, name)
		}
	}

	s := newState(rt, state)
	g, err := newGetters(rt, s, getters)
	if err != nil {
		return nil, err
	}
	return &Store{
		rt:      rt,
		state:   s,
		getters: g,
	}, nil
}

// New builds a store on the default runtime.
func New(state map[string]any, getters map[string]GetterFunc) (*Store, error) {
	return DefaultRuntime().NewStore(state, getters)
}

func (s *Store) State() *State {
	return s.state
}

func (s *Store) Getters() *Getters {
	return s.getters
}

func (s *Store) Runtime() *Runtime {
	return s.rt
}

// Get reads a field or a getter by name.
func (s *Store) Get(name string) any {
	if s.getters.Has(name) {
		return s.getters.Get(name)
	}
	return s.state.Get(name)
}

// Set writes a field. Getter names are rejected with ErrReadOnly.
func (s *Store) Set(name string, value any) error {
	if s.getters.Has(name) {
		return fmt.Errorf("%w: cannot assign %q", ErrReadOnly, name)
	}
	return s.state.Set(name, value)
}

// Flush drains the pending handlers of the store's runtime, including those
// queued by other stores on the same runtime.
func (s *Store) Flush() error {
	return s.rt.Flush()
}

func (s *Store) Watch(fn func() error) (*Watcher, error) {
	return s.rt.Watch(fn)
}

// Reader is implemented by State, Getters and Store.
type Reader interface {
	Get(name string) any
}

// As reads name from r and asserts it to T. A nil value yields the zero T.
func As[T any](r Reader, name string) T {
	v := r.Get(name)
	if v == nil {
		var zero T
		return zero
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Errorf("%w: %q is %T, not %T", ErrTypeMismatch, name, v, zero))
	}
	return t
}
