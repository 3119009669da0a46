package memtree_test

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genc-murat/memscope/pkg/memsize"
	"github.com/genc-murat/memscope/pkg/memtree"
)

func TestMain(m *testing.M) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		// Expected output below is pinned for 64-bit platforms.
		return
	}
	m.Run()
}

func TestRenderScalarRoot(t *testing.T) {
	got, err := memtree.Sprint(int64(7), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "8 B ⏺: int64\n", got)
}

func TestRenderNil(t *testing.T) {
	_, err := memtree.Sprint(nil, 0, 0)
	assert.ErrorIs(t, err, memtree.ErrNilValue)
}

func TestRenderStructTree(t *testing.T) {
	type inner struct {
		Name string
		N    int64
	}
	type outer struct {
		In    inner
		Count int32
	}

	v := outer{In: inner{Name: "abcd", N: 1}, Count: 2}
	got, err := memtree.Sprint(v, 0, 0)
	require.NoError(t, err)

	want := "" +
		"36 B ⏺: memtree_test.outer\n" +
		"28 B ├╴In: memtree_test.inner\n" +
		"20 B │ ├╴Name: string\n" +
		" 8 B │ ╰╴N: int64\n" +
		" 4 B ╰╴Count: int32\n"
	assert.Equal(t, want, got)
}

func TestRenderIdempotent(t *testing.T) {
	type sample struct {
		Words []string
		Total int
	}
	v := sample{Words: []string{"a", "bb"}, Total: 3}

	first, err := memtree.Sprint(v, memsize.FollowPointers, memtree.Percent)
	require.NoError(t, err)
	second, err := memtree.Sprint(v, memsize.FollowPointers, memtree.Percent)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderPercent(t *testing.T) {
	type twoKids struct {
		A [100]byte
		B [300]byte
	}

	got, err := memtree.Sprint(twoKids{}, 0, memtree.Percent)
	require.NoError(t, err)

	want := "" +
		"400 B 100.00% ⏺: memtree_test.twoKids\n" +
		"100 B  25.00% ├╴A: [100]uint8\n" +
		"300 B  75.00% ╰╴B: [300]uint8\n"
	assert.Equal(t, want, got)
}

func TestRenderLayoutPadding(t *testing.T) {
	type padded struct {
		A int64
		B int8
	}

	t.Run("trailing gap annotated", func(t *testing.T) {
		got, err := memtree.Sprint(padded{}, 0, memtree.Layout)
		require.NoError(t, err)

		want := "" +
			"16 B ⏺: memtree_test.padded\n" +
			" 8 B ├╴A: int64\n" +
			" 1 B ╰╴B: int8 [7B]\n"
		assert.Equal(t, want, got)
	})

	t.Run("interior gap annotated", func(t *testing.T) {
		type interior struct {
			A int8
			B int64
			C int8
		}
		got, err := memtree.Sprint(interior{}, 0, memtree.Layout)
		require.NoError(t, err)

		want := "" +
			"24 B ⏺: memtree_test.interior\n" +
			" 1 B ├╴A: int8 [7B]\n" +
			" 8 B ├╴B: int64\n" +
			" 1 B ╰╴C: int8 [7B]\n"
		assert.Equal(t, want, got)
	})

	t.Run("total size unchanged by layout flag", func(t *testing.T) {
		plain, err := memtree.Nodes(padded{}, 0, 0)
		require.NoError(t, err)
		layout, err := memtree.Nodes(padded{}, 0, memtree.Layout)
		require.NoError(t, err)
		assert.Equal(t, plain[0].Size, layout[0].Size)
	})

	t.Run("no annotation without gaps", func(t *testing.T) {
		type tight struct {
			A int64
			B int64
		}
		got, err := memtree.Sprint(tight{}, 0, memtree.Layout)
		require.NoError(t, err)
		assert.NotContains(t, got, "[")
	})
}

func TestRenderContainersAreLeaves(t *testing.T) {
	type bag struct {
		Xs []int64
		M  map[string]int
	}
	v := bag{Xs: []int64{1, 2, 3}, M: map[string]int{"a": 1}}

	nodes, err := memtree.Nodes(v, 0, 0)
	require.NoError(t, err)

	// Root plus exactly one node per field; no element expansion.
	require.Len(t, nodes, 3)
	assert.Equal(t, "Xs", nodes[1].Label)
	assert.Equal(t, uintptr(24+24), nodes[1].Size)
	assert.Equal(t, "M", nodes[2].Label)
}

func TestRenderVariant(t *testing.T) {
	type point struct {
		X int32
		Y int32
	}
	type shape struct {
		S any
	}

	got, err := memtree.Sprint(shape{S: point{X: 1, Y: 2}}, 0, 0)
	require.NoError(t, err)

	want := "" +
		"24 B ⏺: memtree_test.shape\n" +
		"24 B ╰╴S: interface {}\n" +
		"       ├╴Variant: memtree_test.point\n" +
		" 4 B   ├╴X: int32\n" +
		" 4 B   ╰╴Y: int32\n"
	assert.Equal(t, want, got)
}

func TestRenderPointerDedup(t *testing.T) {
	type pair struct {
		A *[128]byte
		B *[128]byte
	}
	shared := &[128]byte{}
	v := pair{A: shared, B: shared}

	got, err := memtree.Sprint(v, memsize.FollowPointers, 0)
	require.NoError(t, err)

	want := "" +
		"144 B ⏺: memtree_test.pair\n" +
		"136 B ├╴A: *[128]uint8\n" +
		"128 B │ ╰╴[128]uint8\n" +
		"  8 B ╰╴B: *[128]uint8\n"
	assert.Equal(t, want, got)

	t.Run("sizes agree with the engine", func(t *testing.T) {
		nodes, err := memtree.Nodes(v, memsize.FollowPointers, 0)
		require.NoError(t, err)
		assert.Equal(t, memsize.Of(v, memsize.FollowPointers), nodes[0].Size)
	})
}

func TestRenderHumanize(t *testing.T) {
	type blob struct {
		Buf []byte
	}
	v := blob{Buf: make([]byte, 10000)}

	got, err := memtree.Sprint(v, 0, memtree.Humanize)
	require.NoError(t, err)

	want := "" +
		"10.02 kB ⏺: memtree_test.blob\n" +
		"10.02 kB ╰╴Buf: []uint8\n"
	assert.Equal(t, want, got)
}

func TestRenderCapacityFlag(t *testing.T) {
	type buffered struct {
		Buf []int64
	}
	v := buffered{Buf: make([]int64, 10, 1000)}

	logical, err := memtree.Nodes(v, 0, 0)
	require.NoError(t, err)
	capacity, err := memtree.Nodes(v, 0, memtree.Capacity)
	require.NoError(t, err)

	assert.Equal(t, uintptr(24+80), logical[0].Size)
	assert.Equal(t, uintptr(24+8000), capacity[0].Size)
}

func TestRenderColor(t *testing.T) {
	big := struct {
		Buf []byte
	}{Buf: make([]byte, 2_000_000)}

	colored, err := memtree.Sprint(big, 0, memtree.Color)
	require.NoError(t, err)
	plain, err := memtree.Sprint(big, 0, 0)
	require.NoError(t, err)

	assert.Contains(t, colored, "\x1b[")
	assert.NotContains(t, plain, "\x1b[")
}

type opaqueBlob struct {
	data []byte
}

func (o opaqueBlob) MemSize(flags memsize.Flags) uintptr {
	return unsafe.Sizeof(o) + uintptr(cap(o.data))
}

func TestRenderOpaqueLayout(t *testing.T) {
	type wrapped struct {
		Blob opaqueBlob
	}
	v := wrapped{Blob: opaqueBlob{data: make([]byte, 64)}}

	t.Run("layout on opaque types is an error", func(t *testing.T) {
		_, err := memtree.Sprint(v, 0, memtree.Layout)
		assert.ErrorIs(t, err, memtree.ErrOpaqueLayout)
	})

	t.Run("renders fine without layout", func(t *testing.T) {
		got, err := memtree.Sprint(v, 0, 0)
		require.NoError(t, err)
		assert.Contains(t, got, "Blob: memtree_test.opaqueBlob")
	})
}

func TestFprintDepth(t *testing.T) {
	type leaf struct {
		N int64
	}
	type mid struct {
		L leaf
	}
	type top struct {
		M mid
	}

	var sb strings.Builder
	require.NoError(t, memtree.FprintDepth(&sb, top{}, 0, 0, 1))
	got := sb.String()

	assert.Contains(t, got, "M: memtree_test.mid")
	assert.NotContains(t, got, "leaf")

	t.Run("truncation keeps ancestor totals", func(t *testing.T) {
		full, err := memtree.Sprint(top{}, 0, 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(full, "8 B ⏺: memtree_test.top"))
		assert.True(t, strings.HasPrefix(got, "8 B ⏺: memtree_test.top"))
	})
}

func TestRenderSharedInterfaceBox(t *testing.T) {
	type pair struct {
		A any
		B any
	}
	box := func() any {
		var buf [64]byte
		for i := range buf {
			buf[i] = byte(i)
		}
		return buf
	}()
	v := pair{A: box, B: box}

	nodes, err := memtree.Nodes(v, 0, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 6)

	assert.Equal(t, memsize.Of(v, 0), nodes[0].Size)
	assert.Equal(t, unsafe.Sizeof(v)+64, nodes[0].Size)

	variants, payloads := 0, 0
	for _, n := range nodes {
		if n.Variant == "[64]uint8" {
			variants++
		}
		if n.Variant == "" && n.TypeName == "[64]uint8" {
			payloads++
		}
	}
	assert.Equal(t, 2, variants, "both handles name the dynamic type")
	assert.Equal(t, 1, payloads, "the shared box expands once")

	t.Run("second handle shows its words only", func(t *testing.T) {
		assert.Equal(t, unsafe.Sizeof(any(nil))+64, nodes[1].Size)
		assert.Equal(t, unsafe.Sizeof(any(nil)), nodes[4].Size)
	})
}
