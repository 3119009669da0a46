// Package deque provides a growable double-ended queue backed by a ring
// buffer, with constant-time access at both ends and a memory footprint
// that can be measured without walking elements of fixed-size types.
package deque

import (
	"reflect"
	"unsafe"

	"github.com/genc-murat/memscope/pkg/memsize"
)

const minCapacity = 8

// Deque is a double-ended queue of T. The zero value is ready to use.
type Deque[T any] struct {
	buf  []T
	head int
	size int
}

// New returns an empty deque with at least the given capacity reserved.
func New[T any](capacity int) *Deque[T] {
	d := &Deque[T]{}
	if capacity > 0 {
		d.buf = make([]T, roundUp(capacity))
	}
	return d
}

// Len returns the number of elements.
func (d *Deque[T]) Len() int { return d.size }

// Cap returns the current buffer capacity.
func (d *Deque[T]) Cap() int { return len(d.buf) }

// PushBack appends v at the tail.
func (d *Deque[T]) PushBack(v T) {
	d.grow()
	d.buf[d.index(d.size)] = v
	d.size++
}

// PushFront prepends v at the head.
func (d *Deque[T]) PushFront(v T) {
	d.grow()
	d.head = d.index(len(d.buf) - 1)
	d.buf[d.head] = v
	d.size++
}

// PopFront removes and returns the head element. The second result is
// false when the deque is empty.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = d.index(1)
	d.size--
	return v, true
}

// PopBack removes and returns the tail element. The second result is
// false when the deque is empty.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	i := d.index(d.size - 1)
	v := d.buf[i]
	d.buf[i] = zero
	d.size--
	return v, true
}

// Front returns the head element without removing it.
func (d *Deque[T]) Front() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	return d.buf[d.head], true
}

// Back returns the tail element without removing it.
func (d *Deque[T]) Back() (T, bool) {
	var zero T
	if d.size == 0 {
		return zero, false
	}
	return d.buf[d.index(d.size-1)], true
}

// At returns the i-th element from the head. It panics when i is out of
// range, matching slice indexing.
func (d *Deque[T]) At(i int) T {
	if i < 0 || i >= d.size {
		panic("deque: index out of range")
	}
	return d.buf[d.index(i)]
}

// MemSize reports the footprint of the deque object: its bookkeeping
// struct plus the ring buffer, excluding any handle word the caller holds
// it by. Buffers of Plain element types are sized by multiplication;
// otherwise every live element is measured and slack slots, when the
// Capacity flag is set, contribute their representation size only.
func (d *Deque[T]) MemSize(flags memsize.Flags) uintptr {
	if d == nil {
		return 0
	}
	total := unsafe.Sizeof(*d)
	et := reflect.TypeOf((*T)(nil)).Elem()

	if memsize.ClassOf(et) == memsize.Plain {
		n := uintptr(d.size)
		if flags.Has(memsize.Capacity) {
			n = uintptr(len(d.buf))
		}
		return total + n*et.Size()
	}

	for i := 0; i < d.size; i++ {
		total += memsize.Of(d.At(i), flags)
	}
	if flags.Has(memsize.Capacity) {
		total += uintptr(len(d.buf)-d.size) * et.Size()
	}
	return total
}

func (d *Deque[T]) index(offset int) int {
	if len(d.buf) == 0 {
		return 0
	}
	return (d.head + offset) & (len(d.buf) - 1)
}

func (d *Deque[T]) grow() {
	if d.size < len(d.buf) {
		return
	}
	next := minCapacity
	if len(d.buf) > 0 {
		next = len(d.buf) * 2
	}
	buf := make([]T, next)
	for i := 0; i < d.size; i++ {
		buf[i] = d.buf[d.index(i)]
	}
	d.buf = buf
	d.head = 0
}

func roundUp(n int) int {
	c := minCapacity
	for c < n {
		c <<= 1
	}
	return c
}
