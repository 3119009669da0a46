// Package memsize measures the total memory footprint of a value: its own
// representation plus the heap allocations it owns, computed recursively
// without iterating large containers of fixed-size elements.
//
// The engine walks values through reflection. Types classified as Plain
// (see ClassOf) are sized in constant time; containers of Plain elements
// are sized by multiplication instead of per-element recursion. Hash maps
// and registered tree containers are never walked at all: their footprint
// comes from a size formula over the runtime's known storage layout, a
// deliberate approximation that trades allocator-exact byte counts for
// O(1) cost.
//
// Measurement is pure computation over a value the caller keeps alive for
// the duration of the call. It never fails and never allocates on behalf
// of the measured value.
package memsize

import "reflect"

// Flags controls how the engine walks a value. The zero value is the
// conservative default: pointers are counted as opaque words and
// containers report their logical occupancy.
type Flags uint32

const (
	// FollowPointers recurses into pointer targets. Every followed
	// target is recorded in the call's allocation tracker, so an
	// allocation reachable through several pointers contributes its
	// payload once; each additional handle still costs its own word.
	FollowPointers Flags = 1 << iota

	// Capacity charges containers for their allocated capacity instead
	// of their logical length. Slack capacity holds no live elements,
	// so it is always charged at the element's representation size,
	// never recursed into.
	Capacity
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// Measurable is the escape hatch out of the reflective walk. A type that
// knows its own footprint better than reflection does implements it and
// reports the total memory of the described object: its representation
// plus all heap it owns. For pointer receivers the report covers the
// pointed-to object; the engine charges the handle word itself.
//
// Overrides are opaque to the engine: it trusts the returned total, does
// not share the call's allocation tracker with it, and always consults it
// before any pointer-follow policy. A pointer type implementing Measurable
// is therefore measured through its implementation even when
// FollowPointers is not set.
type Measurable interface {
	MemSize(flags Flags) uintptr
}

var measurableType = reflect.TypeOf((*Measurable)(nil)).Elem()

// Of returns the total footprint of v in bytes: the representation size
// of its dynamic type plus all owned heap memory under the given flags.
// A nil interface measures zero.
func Of(v any, flags Flags) uintptr {
	if v == nil {
		return 0
	}
	return OfValue(reflect.ValueOf(v), flags, NewTracker())
}

// OfValue measures a reflected value against an existing allocation
// tracker. It is the entry point for callers that need several
// measurements to share one deduplication scope, such as a renderer
// computing mutually consistent per-field sizes.
func OfValue(rv reflect.Value, flags Flags, tr *Tracker) uintptr {
	return rv.Type().Size() + heapSize(rv, flags, tr)
}
