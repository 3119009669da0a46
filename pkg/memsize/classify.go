package memsize

import (
	"reflect"
	"sync"
)

// Class is the size classification of a type. It decides whether the
// engine may size a container of that element type by multiplication or
// must visit every element.
type Class uint8

const (
	// Plain types have a fixed representation and own no heap memory.
	// A container of Plain elements is sized in constant time.
	Plain Class = iota

	// Recursive types may own heap memory and must be visited
	// per value.
	Recursive
)

func (c Class) String() string {
	if c == Plain {
		return "Plain"
	}
	return "Recursive"
}

var (
	classCache     sync.Map // reflect.Type -> Class
	plainOverrides sync.Map // reflect.Type -> struct{}
)

// RegisterPlain declares that t owns no heap memory and may be sized by
// its representation alone, overriding the derived classification. The
// engine trusts the declaration: registering a type that does own heap
// memory silently under-counts and cannot be detected. Intended for
// opaque handle types whose pointers do not confer ownership.
//
// Register before the first measurement touching t: classifications of
// composite types already derived from the old answer are not
// recomputed.
func RegisterPlain(t reflect.Type) {
	plainOverrides.Store(t, struct{}{})
	classCache.Delete(t)
}

// ClassOf returns the classification of t, deriving it on first use and
// caching it per type identity. A type is Plain iff it is a fixed-width
// scalar, an array of a Plain type, a struct whose every field is Plain,
// or was registered with RegisterPlain.
func ClassOf(t reflect.Type) Class {
	if c, ok := classCache.Load(t); ok {
		return c.(Class)
	}
	c := classify(t)
	classCache.Store(t, c)
	return c
}

func classify(t reflect.Type) Class {
	if _, ok := plainOverrides.Load(t); ok {
		return Plain
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return Plain
	case reflect.Array:
		return ClassOf(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if ClassOf(t.Field(i).Type) == Recursive {
				return Recursive
			}
		}
		return Plain
	default:
		// Pointers, slices, strings, maps, channels, functions and
		// interfaces all reach beyond their own representation.
		return Recursive
	}
}
