package store

import "reflect"

// EqualFunc reports whether a write of next over prev changes nothing.
type EqualFunc func(prev, next any) bool

// StrictEqual compares by value for comparable types and by identity for
// reference types. Two values of different dynamic types are never equal.
func StrictEqual(prev, next any) (equal bool) {
	if prev == nil || next == nil {
		return prev == nil && next == nil
	}
	tp, tn := reflect.TypeOf(prev), reflect.TypeOf(next)
	if tp != tn {
		return false
	}

	if tp.Comparable() {
		// structs and arrays holding interfaces can still panic on ==
		defer func() {
			if recover() != nil {
				equal = false
			}
		}()
		return prev == next
	}

	vp, vn := reflect.ValueOf(prev), reflect.ValueOf(next)
	switch tp.Kind() {
	case reflect.Slice:
		return vp.Pointer() == vn.Pointer() && vp.Len() == vn.Len() && vp.Cap() == vn.Cap() && vp.IsNil() == vn.IsNil()
	case reflect.Map:
		return vp.Pointer() == vn.Pointer()
	case reflect.Func:
		return vp.IsNil() && vn.IsNil()
	default:
		return false
	}
}
