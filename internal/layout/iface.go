package layout

import "unsafe"

// eface mirrors the runtime's two-word interface representation: the
// type word followed by the data word. Like mapHeader it is never
// populated; it only fixes the field offsets.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// InterfaceDataWord returns the data word of an interface value: the
// address of the boxed payload, or the payload itself when it is
// pointer-shaped. Converting a non-empty interface to any copies both
// words unchanged, so the result identifies the box regardless of the
// interface type the caller held.
func InterfaceDataWord(i any) uintptr {
	return uintptr((*eface)(unsafe.Pointer(&i)).data)
}
