package memsize

import (
	"reflect"

	"github.com/genc-murat/memscope/internal/layout"
)

// heapSize returns the owned heap contribution of rv, excluding the
// value's own representation (already charged by the caller).
func heapSize(rv reflect.Value, flags Flags, tr *Tracker) uintptr {
	t := rv.Type()

	if m, direct, ok := asMeasurable(rv); ok {
		total := m.MemSize(flags)
		if direct && t.Kind() == reflect.Pointer {
			// The node is a handle; the override covers the target.
			return total
		}
		if total > t.Size() {
			return total - t.Size()
		}
		return 0
	}
	if t == rbTreeType {
		return redBlackTreeHeap(rv)
	}
	if ClassOf(t) == Plain {
		return 0
	}

	switch t.Kind() {
	case reflect.Struct:
		var sum uintptr
		for i := 0; i < rv.NumField(); i++ {
			sum += heapSize(rv.Field(i), flags, tr)
		}
		return sum

	case reflect.Array:
		// Arrays of Plain elements were short-circuited above.
		var sum uintptr
		for i := 0; i < rv.Len(); i++ {
			sum += heapSize(rv.Index(i), flags, tr)
		}
		return sum

	case reflect.Slice:
		return sliceHeap(rv, flags, tr)

	case reflect.String:
		// String capacity is not observable; length either way.
		return uintptr(rv.Len())

	case reflect.Pointer:
		return pointerHeap(rv, flags, tr)

	case reflect.Map:
		// A map value is a shared handle; the header and group table
		// behind it are charged once per call.
		if rv.IsNil() {
			return 0
		}
		addr := rv.Pointer()
		if tr.Seen(addr) {
			return 0
		}
		tr.Mark(addr)
		return layout.MapHeapSize(t.Key().Size(), t.Elem().Size(), uintptr(rv.Len()))

	case reflect.Interface:
		return interfaceHeap(rv, flags, tr)

	default:
		// Channels, functions and unsafe pointers are opaque handles:
		// their word is part of the representation and whatever they
		// reach is not owned by the measured value.
		return 0
	}
}

// sliceHeap sizes the backing array of a slice. For Plain elements it is
// a multiplication; for Recursive elements every live element is visited
// and slack capacity, if charged, contributes only its representation
// size since it holds no elements.
func sliceHeap(rv reflect.Value, flags Flags, tr *Tracker) uintptr {
	if rv.IsNil() {
		return 0
	}
	et := rv.Type().Elem()
	length := uintptr(rv.Len())
	capacity := uintptr(rv.Cap())

	if ClassOf(et) == Plain {
		if flags.Has(Capacity) {
			return capacity * et.Size()
		}
		return length * et.Size()
	}

	var sum uintptr
	for i := 0; i < rv.Len(); i++ {
		sum += et.Size() + heapSize(rv.Index(i), flags, tr)
	}
	if flags.Has(Capacity) {
		sum += (capacity - length) * et.Size()
	}
	return sum
}

// pointerHeap applies the follow policy: without FollowPointers a pointer
// is an opaque word. With it, the target is charged once per call; every
// further pointer to the same allocation costs only its own word.
func pointerHeap(rv reflect.Value, flags Flags, tr *Tracker) uintptr {
	if rv.IsNil() {
		return 0
	}
	if rv.Type() == rbTreePtrType {
		// Tree containers are handle types: the handle owns the node
		// storage, so it is followed regardless of flags. Shared
		// handles to one tree still count the storage once.
		addr := rv.Pointer()
		if tr.Seen(addr) {
			return 0
		}
		tr.Mark(addr)
		return rv.Type().Elem().Size() + redBlackTreeHeap(rv.Elem())
	}
	if !flags.Has(FollowPointers) {
		return 0
	}
	addr := rv.Pointer()
	if tr.Seen(addr) {
		return 0
	}
	tr.Mark(addr)
	elem := rv.Elem()
	return elem.Type().Size() + heapSize(elem, flags, tr)
}

// interfaceHeap charges the boxed payload of a non-nil interface value.
// Boxing implies ownership, so the payload is always visited. Payloads
// that are themselves pointer-shaped live directly in the interface data
// word and add no box of their own; their targets still obey the pointer
// follow policy. Copies of one interface value share a single box, so it
// is deduplicated by its data word the way pointer targets are.
func interfaceHeap(rv reflect.Value, flags Flags, tr *Tracker) uintptr {
	if rv.IsNil() {
		return 0
	}
	elem := rv.Elem()
	if isPointerShaped(elem.Kind()) {
		return heapSize(elem, flags, tr)
	}
	if rv.CanInterface() {
		// Unexported interface fields cannot be read back as a value;
		// their box is not identifiable and is charged per handle.
		word := layout.InterfaceDataWord(rv.Interface())
		if tr.Seen(word) {
			return 0
		}
		tr.Mark(word)
	}
	return elem.Type().Size() + heapSize(elem, flags, tr)
}

func isPointerShaped(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// Override resolves the Measurable escape hatch for rv the way the
// engine does. handle is true when rv is a pointer whose override covers
// the pointed-to object rather than rv itself. Renderers use this to
// price overridden nodes identically to the engine.
func Override(rv reflect.Value) (m Measurable, handle, ok bool) {
	m, direct, ok := asMeasurable(rv)
	handle = ok && direct && rv.Kind() == reflect.Pointer
	return m, handle, ok
}

// asMeasurable resolves the Measurable escape hatch for rv, trying the
// value itself and then, for addressable values, its address. The direct
// result is true when rv's own type implements the interface, which lets
// the engine tell a measured handle from a measured object. Unexported
// fields cannot be surfaced through an interface and fall back to the
// reflective walk.
func asMeasurable(rv reflect.Value) (m Measurable, direct, ok bool) {
	t := rv.Type()
	if t.Implements(measurableType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false, false
		}
		if rv.CanInterface() {
			return rv.Interface().(Measurable), true, true
		}
		return nil, false, false
	}
	if rv.CanAddr() && reflect.PointerTo(t).Implements(measurableType) {
		addr := rv.Addr()
		if addr.CanInterface() {
			return addr.Interface().(Measurable), false, true
		}
	}
	return nil, false, false
}
