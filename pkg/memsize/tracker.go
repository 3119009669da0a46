package memsize

import mapset "github.com/deckarep/golang-set/v2"

// Tracker is the per-call set of already-counted allocation identities.
// It guarantees each distinct heap allocation contributes its payload at
// most once per measurement call, however many pointers lead to it.
//
// A Tracker is scoped to exactly one top-level measurement or render
// call. It is deliberately unsynchronized; concurrent calls use separate
// instances. Identities are opaque keys, never dereferenced.
type Tracker struct {
	seen mapset.Set[uintptr]
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: mapset.NewThreadUnsafeSet[uintptr]()}
}

// Seen reports whether id was already marked in this call.
func (t *Tracker) Seen(id uintptr) bool {
	return t.seen.Contains(id)
}

// Mark records id as counted.
func (t *Tracker) Mark(id uintptr) {
	t.seen.Add(id)
}

// Len returns the number of distinct allocations marked so far.
func (t *Tracker) Len() int {
	return t.seen.Cardinality()
}
