// Package memtree renders the memory footprint of a value as an
// annotated tree: one line per field with its byte size, connector
// glyphs for structure, and optional percentages, humanized magnitudes,
// colors and physical padding annotations.
//
// Rendering is a two-phase pipeline. Phase one walks the value, mirroring
// the measurement recursion of pkg/memsize while sharing a single
// allocation tracker so every displayed size is consistent with pointer
// deduplication. Phase two formats the resulting node sequence into text.
// For a fixed value shape and flag combination the output is stable down
// to the byte, which makes it suitable for snapshot comparisons.
//
// Container elements are never expanded into child lines, whatever the
// flags; this keeps output size bounded by the shape of the type rather
// than the data.
package memtree

import (
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/genc-murat/memscope/pkg/memsize"
)

// Flags controls rendering. The zero value prints grouped byte counts in
// declaration order with no decoration.
type Flags uint32

const (
	// Capacity sizes containers by allocated capacity instead of
	// logical length, as memsize.Capacity does.
	Capacity Flags = 1 << iota

	// Humanize scales byte counts to their largest decimal unit.
	Humanize

	// Percent appends each node's share of the root size.
	Percent

	// Color styles the size column by magnitude bucket.
	Color

	// Layout annotates fields with the padding the compiler inserted
	// after them, derived from exact field offsets.
	Layout
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

var (
	// ErrNilValue is returned when asked to render a nil interface.
	ErrNilValue = errors.New("memtree: cannot render a nil value")

	// ErrOpaqueLayout is returned when Layout is requested for a value
	// containing a type measured through its Measurable override: the
	// override yields a size but no field offsets, and guessing a
	// layout would silently misrepresent physical structure.
	ErrOpaqueLayout = errors.New("memtree: physical layout requested for an opaque type")
)

// Fprint renders v to w. sizeFlags governs the measurement policy
// underneath the displayed sizes; flags governs presentation.
func Fprint(w io.Writer, v any, sizeFlags memsize.Flags, flags Flags) error {
	return FprintDepth(w, v, sizeFlags, flags, -1)
}

// FprintDepth renders v to w, expanding at most maxDepth levels below
// the root. A negative maxDepth means no limit. Sizes are unaffected by
// truncation; hidden levels stay included in their ancestors' totals.
func FprintDepth(w io.Writer, v any, sizeFlags memsize.Flags, flags Flags, maxDepth int) error {
	nodes, err := Nodes(v, sizeFlags, flags)
	if err != nil {
		return err
	}
	if maxDepth >= 0 {
		kept := nodes[:0]
		for _, n := range nodes {
			if len(n.Branches) <= maxDepth {
				kept = append(kept, n)
			}
		}
		nodes = kept
	}
	return formatNodes(w, nodes, flags)
}

// Sprint renders v to a string.
func Sprint(v any, sizeFlags memsize.Flags, flags Flags) (string, error) {
	var builder strings.Builder
	if err := Fprint(&builder, v, sizeFlags, flags); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Nodes runs phase one only: the pre-order display-node sequence for v,
// parent before children, with sizes mutually consistent under one
// allocation tracker. The returned slice is owned by the caller.
func Nodes(v any, sizeFlags memsize.Flags, flags Flags) ([]Node, error) {
	if v == nil {
		return nil, ErrNilValue
	}
	if flags.Has(Capacity) {
		sizeFlags |= memsize.Capacity
	}
	w := &walker{
		sizeFlags: sizeFlags,
		flags:     flags,
		tracker:   memsize.NewTracker(),
	}
	w.visit(reflect.ValueOf(v), "")
	if w.err != nil {
		return nil, w.err
	}
	return w.nodes, nil
}
