// Package layout hand-maintains structural replicas of Go runtime data
// structures whose true layout is not introspectable, together with the
// size formulas derived from them. The replicas must track the runtime
// version the module targets; map_test.go pins their sizes so a runtime
// change shows up as a test failure instead of a silent drift.
package layout

import "unsafe"

// PointerSize is the word size of the target platform.
const PointerSize = unsafe.Sizeof(uintptr(0))

const (
	// GroupSlots is the number of key/value slots per map group
	// (internal/runtime/maps, Go 1.24 Swiss-table maps).
	GroupSlots = 8

	// Maps grow when they exceed 7/8 of their slot capacity.
	maxLoadNum = 7
	maxLoadDen = 8
)

// mapHeader mirrors internal/runtime/maps.Map. It is never instantiated
// with live data; it exists only so unsafe.Sizeof reports the real
// header allocation cost.
type mapHeader struct {
	used              uint64
	seed              uintptr
	dirPtr            unsafe.Pointer
	dirLen            int
	globalDepth       uint8
	globalShift       uint8
	writing           uint8
	tombstonePossible bool
	clearSeq          uint64
}

// MapHeaderSize is the heap cost of the map header allocation. Every
// non-nil map carries one, even when it holds no entries.
const MapHeaderSize = unsafe.Sizeof(mapHeader{})

// MapGroups returns the number of slot groups a map holding count entries
// has allocated: the smallest power of two whose usable capacity
// (GroupSlots slots per group, 7/8 maximum load) is at least count.
// Zero entries means no group allocation at all; the runtime defers it
// until the first insert.
func MapGroups(count uintptr) uintptr {
	if count == 0 {
		return 0
	}
	groups := uintptr(1)
	for groups*GroupSlots*maxLoadNum/maxLoadDen < count {
		groups <<= 1
	}
	return groups
}

// MapGroupSize returns the byte size of one slot group for the given key
// and value sizes: a control word of one byte per slot followed by the
// slot array. Alignment padding between small keys and values is ignored,
// which is part of the documented approximation bound.
func MapGroupSize(keySize, valSize uintptr) uintptr {
	return GroupSlots + GroupSlots*(keySize+valSize)
}

// MapHeapSize returns the approximate heap footprint of a non-nil map
// holding count entries of the given key and value sizes: the header
// allocation plus the group table.
//
// This is a formula over the replica above, not an allocator walk. It is
// exact for the common case of a map grown purely by insertion; it does
// not model the growth directory of very large maps, indirect storage of
// keys or values over 128 bytes, or slack left behind by deletion. Those
// effects are bounded by the table doubling policy, so the estimate stays
// within a factor of two of the allocator-reported size.
func MapHeapSize(keySize, valSize, count uintptr) uintptr {
	return MapHeaderSize + MapGroups(count)*MapGroupSize(keySize, valSize)
}
