package memtree

import (
	"reflect"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/genc-murat/memscope/internal/layout"
	"github.com/genc-murat/memscope/pkg/memsize"
)

var (
	rbTreeType    = reflect.TypeOf(redblacktree.Tree{})
	rbTreePtrType = reflect.TypeOf((*redblacktree.Tree)(nil))
)

// Node is one rendered line: its position in the tree, labels, computed
// byte size and, under the Layout flag, the physical padding that follows
// the field it describes.
type Node struct {
	// Label is the field name, empty for the root, pointer targets and
	// boxed payloads.
	Label string

	// TypeName is the display name of the node's static type.
	TypeName string

	// Variant, when non-empty, marks a synthetic line naming the
	// dynamic type of an interface value; such lines carry no size.
	Variant string

	// Size is the node's total footprint in bytes.
	Size uintptr

	// Padding is the number of padding bytes the compiler inserted
	// after this field, filled only under the Layout flag.
	Padding uintptr

	// Branches records, per ancestor level, whether the chain through
	// that level is complete; the last entry is this node's own
	// last-sibling position. Empty for the root. It drives connector
	// glyph selection and doubles as the node's depth.
	Branches []bool
}

type walker struct {
	sizeFlags memsize.Flags
	flags     Flags
	tracker   *memsize.Tracker
	nodes     []Node
	branches  []bool
	err       error
}

// visit appends the node for rv and its subtree, returning the subtree's
// total size and the node's index.
func (w *walker) visit(rv reflect.Value, label string) (uintptr, int) {
	t := rv.Type()
	idx := len(w.nodes)
	w.nodes = append(w.nodes, Node{
		Label:    label,
		TypeName: t.String(),
		Branches: append([]bool(nil), w.branches...),
	})

	var size uintptr
	switch {
	case w.isOverride(rv):
		size = w.overrideSize(rv)
	case isContainer(t):
		size = memsize.OfValue(rv, w.sizeFlags, w.tracker)
	case t.Kind() == reflect.Struct:
		size = w.visitStruct(rv)
	case t.Kind() == reflect.Pointer:
		size = w.visitPointer(rv)
	case t.Kind() == reflect.Interface:
		size = w.visitInterface(rv)
	default:
		size = memsize.OfValue(rv, w.sizeFlags, w.tracker)
	}

	w.nodes[idx].Size = size
	return size, idx
}

// child visits rv one level deeper, last marking it as the final sibling
// at that level.
func (w *walker) child(rv reflect.Value, label string, last bool) (uintptr, int) {
	w.branches = append(w.branches, last)
	size, idx := w.visit(rv, label)
	w.branches = w.branches[:len(w.branches)-1]
	return size, idx
}

// visitStruct expands fields in offset order, which for Go is also
// declaration order, attaching padding gaps under the Layout flag.
func (w *walker) visitStruct(rv reflect.Value) uintptr {
	t := rv.Type()
	size := t.Size()
	n := t.NumField()
	for i := 0; i < n; i++ {
		f := t.Field(i)
		childSize, childIdx := w.child(rv.Field(i), f.Name, i == n-1)
		if childSize > f.Type.Size() {
			size += childSize - f.Type.Size()
		}
		if w.flags.Has(Layout) {
			w.nodes[childIdx].Padding = fieldGap(t, i)
		}
	}
	return size
}

func (w *walker) visitPointer(rv reflect.Value) uintptr {
	size := rv.Type().Size()
	if rv.IsNil() || !w.sizeFlags.Has(memsize.FollowPointers) {
		return size
	}
	addr := rv.Pointer()
	if w.tracker.Seen(addr) {
		// Already counted through another handle; the line shows the
		// word cost only and the target is not repeated.
		return size
	}
	w.tracker.Mark(addr)
	childSize, _ := w.child(rv.Elem(), "", true)
	return size + childSize
}

// visitInterface emits the synthetic variant line for a non-nil
// interface and then its payload: struct payloads have their fields
// inlined as siblings of the variant line, anything else becomes a
// single unlabeled child.
func (w *walker) visitInterface(rv reflect.Value) uintptr {
	size := rv.Type().Size()
	if rv.IsNil() {
		return size
	}
	elem := rv.Elem()
	et := elem.Type()

	if !isPointerShaped(et.Kind()) && rv.CanInterface() {
		word := layout.InterfaceDataWord(rv.Interface())
		if w.tracker.Seen(word) {
			// Box already counted through another handle; name the
			// variant but do not repeat its payload.
			w.addVariant(et.String(), true)
			return size
		}
		w.tracker.Mark(word)
	}

	if et.Kind() == reflect.Struct && !isContainer(et) && !w.isOverride(elem) {
		n := et.NumField()
		w.addVariant(et.String(), n == 0)
		size += et.Size()
		for i := 0; i < n; i++ {
			f := et.Field(i)
			childSize, childIdx := w.child(elem.Field(i), f.Name, i == n-1)
			if childSize > f.Type.Size() {
				size += childSize - f.Type.Size()
			}
			if w.flags.Has(Layout) {
				w.nodes[childIdx].Padding = fieldGap(et, i)
			}
		}
		return size
	}

	w.addVariant(et.String(), false)
	childSize, _ := w.child(elem, "", true)
	if isPointerShaped(et.Kind()) {
		// The payload word is the interface data word; do not charge
		// it twice.
		return size + childSize - et.Size()
	}
	return size + childSize
}

func (w *walker) addVariant(name string, last bool) {
	branches := append(append([]bool(nil), w.branches...), last)
	w.nodes = append(w.nodes, Node{Variant: name, Branches: branches})
}

func (w *walker) isOverride(rv reflect.Value) bool {
	_, _, ok := memsize.Override(rv)
	return ok
}

func (w *walker) overrideSize(rv reflect.Value) uintptr {
	if w.flags.Has(Layout) && w.err == nil {
		w.err = ErrOpaqueLayout
	}
	m, handle, _ := memsize.Override(rv)
	total := m.MemSize(w.sizeFlags)
	if handle {
		return rv.Type().Size() + total
	}
	if total < rv.Type().Size() {
		return rv.Type().Size()
	}
	return total
}

// fieldGap returns the padding between field i and the next field, or
// the trailing padding to the struct's total size for the last field.
func fieldGap(t reflect.Type, i int) uintptr {
	f := t.Field(i)
	end := f.Offset + f.Type.Size()
	var next uintptr
	if i+1 < t.NumField() {
		next = t.Field(i + 1).Offset
	} else {
		next = t.Size()
	}
	return next - end
}

// isContainer reports types rendered as a single line with a formula- or
// walk-computed size instead of child expansion.
func isContainer(t reflect.Type) bool {
	if t == rbTreeType || t == rbTreePtrType {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.String, reflect.Map, reflect.Array,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func isPointerShaped(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}
