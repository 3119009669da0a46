//go:build go1.24

package memsize

import (
	"testing"
	"weak"

	"github.com/stretchr/testify/assert"

	"github.com/genc-murat/memscope/internal/layout"
)

func TestWeakPointerNeverPullsPayload(t *testing.T) {
	type holder struct {
		Ref weak.Pointer[[1024]byte]
	}

	payload := &[1024]byte{}
	v := holder{Ref: weak.Make(payload)}

	bare := Of(v, 0)
	followed := Of(v, FollowPointers)

	assert.Equal(t, layout.PointerSize, bare)
	assert.Equal(t, bare, followed, "weak handles cost their own word under any flags")
}
