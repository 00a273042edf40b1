package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField   = errors.New("store: unknown field")
	ErrReadOnly       = errors.New("store: getters are read-only")
	ErrDuplicateName  = errors.New("store: name used by both a field and a getter")
	ErrNilGetter      = errors.New("store: nil getter function")
	ErrCycle          = errors.New("store: cyclic dependency")
	ErrFlushLimit     = errors.New("store: flush exceeded handler run limit")
	ErrTypeMismatch   = errors.New("store: type mismatch")
	ErrWrongGoroutine = errors.New("store: runtime used from a goroutine that does not own it")
)

// CycleError is raised (as a panic value) when a node re-enters its own
// evaluation. Path lists the nodes on the evaluation stack from the first
// occurrence of the repeated node to the node itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// HandlerPanicError wraps a value recovered from a dirty handler during Flush.
type HandlerPanicError struct {
	Handler string
	Value   any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("store: handler %s panicked: %v", e.Handler, e.Value)
}

// Unwrap exposes the panic value when it was an error, so that a CycleError
// raised inside a watch can still be matched with errors.Is.
func (e *HandlerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
