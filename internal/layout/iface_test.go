package layout

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestInterfaceDataWord(t *testing.T) {
	var buf [64]byte
	for i := range buf {
		buf[i] = byte(i)
	}

	t.Run("copies share the box", func(t *testing.T) {
		var a any = buf
		b := a
		assert.NotZero(t, InterfaceDataWord(a))
		assert.Equal(t, InterfaceDataWord(a), InterfaceDataWord(b))
	})

	t.Run("pointer payload is the word itself", func(t *testing.T) {
		p := &buf
		assert.Equal(t, uintptr(unsafe.Pointer(p)), InterfaceDataWord(any(p)))
	})

	t.Run("separate boxes differ", func(t *testing.T) {
		var a any = buf
		var b any = buf
		assert.NotEqual(t, InterfaceDataWord(a), InterfaceDataWord(b))
	})
}
