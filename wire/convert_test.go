package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/internal/memtest"
)

func newEnv(t *testing.T) (Env, *memtest.Allocator) {
	t.Helper()
	mem := memtest.NewMemory(64 * 1024)
	alloc := memtest.NewAllocator(mem)
	return Env{Memory: mem, Alloc: alloc}, alloc
}

func TestBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"nil", nil},
		{"single", []byte{0}},
		{"binary", []byte{0xff, 0x00, 0x7f, 0x80}},
		{"large", bytes.Repeat([]byte("abc"), 4000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, alloc := newEnv(t)
			s, err := LowerBytes(env, tt.in)
			require.NoError(t, err)
			require.Equal(t, uint32(len(tt.in)), s.Len)

			out, err := LiftBytes(env, s)
			require.NoError(t, err)
			require.NotNil(t, out, "lifted buffer should be non-nil")
			assert.True(t, bytes.Equal(out, tt.in), "round trip mismatch")
			assert.Equal(t, len(out), cap(out))
			assert.Zero(t, alloc.Live(), "guest allocations leaked")
		})
	}
}

func TestEmptySliceNeedsNoAllocation(t *testing.T) {
	env, alloc := newEnv(t)
	s, err := LowerBytes(env, nil)
	require.NoError(t, err)
	assert.Equal(t, Slice{}, s)
	assert.Zero(t, alloc.Allocs)

	// A zero length descriptor with a garbage pointer must not fault.
	out, err := LiftBytes(env, Slice{Ptr: math.MaxUint32, Len: 0})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Zero(t, alloc.Frees+alloc.BadFrees, "empty lift should not free")
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"", "Test", "héllo wörld", "日本語", "\x00nul"} {
		env, alloc := newEnv(t)
		s, err := LowerString(env, in)
		require.NoError(t, err, "LowerString(%q)", in)
		out, err := LiftString(env, s)
		require.NoError(t, err, "LiftString(%q)", in)
		assert.Equal(t, in, out)
		assert.Zero(t, alloc.Live(), "%q leaked", in)
	}
}

func TestLiftStringRejectsInvalidUTF8(t *testing.T) {
	env, alloc := newEnv(t)
	ptr := alloc.Place([]byte{'o', 'k', 0xff})
	_, err := LiftString(env, Slice{Ptr: ptr, Len: 3})
	require.True(t, errors.IsKind(err, errors.KindEncoding), "err = %v, want encoding error", err)
	assert.Zero(t, alloc.Live(), "buffer should be freed even when validation fails")
}

func TestLiftOutOfBounds(t *testing.T) {
	env, alloc := newEnv(t)
	_, err := LiftBytes(env, Slice{Ptr: 64*1024 - 2, Len: 4})
	require.True(t, errors.IsKind(err, errors.KindOutOfBounds), "err = %v, want out of bounds", err)
	assert.Zero(t, alloc.Frees+alloc.BadFrees, "failed lift must not free")
}

func TestLowerAllocationFailure(t *testing.T) {
	env, alloc := newEnv(t)
	alloc.Fail = true
	_, err := LowerString(env, "x")
	assert.True(t, errors.IsKind(err, errors.KindAllocation), "err = %v, want allocation error", err)
}

func TestBorrowBytes(t *testing.T) {
	env, alloc := newEnv(t)
	ptr := alloc.Place([]byte("borrowed"))
	s := Slice{Ptr: ptr, Len: 8}

	view, anchor, err := BorrowBytes(env, s)
	require.NoError(t, err)
	assert.Equal(t, "borrowed", string(view))

	// The view aliases guest memory.
	require.NoError(t, env.Memory.Write(ptr, []byte("B")))
	assert.Equal(t, byte('B'), view[0], "borrowed view should alias guest memory")

	require.True(t, alloc.Owns(ptr), "buffer freed before anchor release")
	anchor.Release()
	anchor.Release()
	assert.True(t, anchor.Released())
	assert.Equal(t, 1, alloc.Frees, "want exactly one free")
	assert.Zero(t, alloc.BadFrees)
}

func TestBorrowString(t *testing.T) {
	env, alloc := newEnv(t)
	ptr := alloc.Place([]byte("Test"))

	s, anchor, err := BorrowString(env, Slice{Ptr: ptr, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, "Test", s)
	anchor.Release()
	assert.Zero(t, alloc.Live(), "anchor release should free")

	bad := alloc.Place([]byte{0xc3})
	_, anchor, err = BorrowString(env, Slice{Ptr: bad, Len: 1})
	require.True(t, errors.IsKind(err, errors.KindEncoding), "err = %v, want encoding", err)
	assert.Nil(t, anchor, "failed borrow should not return an anchor")
	assert.Zero(t, alloc.Live(), "failed borrow should still release the buffer")
}

func TestBorrowMutKeepsOwnership(t *testing.T) {
	env, alloc := newEnv(t)
	ptr := alloc.Place([]byte("abcd"))

	view, anchor, err := BorrowMut(env, Slice{Ptr: ptr, Len: 4})
	require.NoError(t, err)
	copy(view, "wxyz")
	anchor.Release()

	require.True(t, alloc.Owns(ptr), "mutable borrow must not free the guest buffer")
	got, _ := env.Memory.Read(ptr, 4)
	assert.Equal(t, "wxyz", string(got), "writes should land in place")
}

func TestBorrowLentNeverFrees(t *testing.T) {
	env, alloc := newEnv(t)
	ptr := alloc.Place([]byte("Test"))

	s, anchor, err := BorrowLentString(env, Slice{Ptr: ptr, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, "Test", s)
	anchor.Release()
	require.True(t, alloc.Owns(ptr), "lent buffer must stay with the guest")
	require.Zero(t, alloc.Frees)

	bad := alloc.Place([]byte{0xff, 0xfe})
	_, _, err = BorrowLentString(env, Slice{Ptr: bad, Len: 2})
	require.True(t, errors.IsKind(err, errors.KindEncoding), "err = %v, want encoding", err)
	assert.True(t, alloc.Owns(bad), "invalid lent string must not be freed")
}

func TestNilAnchorRelease(t *testing.T) {
	var a *Anchor
	a.Release()
	assert.False(t, a.Released())
}

func TestTypedSlices(t *testing.T) {
	env, alloc := newEnv(t)

	t.Run("int32", func(t *testing.T) {
		in := []int32{0, -1, math.MinInt32, math.MaxInt32}
		s, err := LowerSlice(env, in)
		require.NoError(t, err)
		assert.Equal(t, uint32(4), s.Len)
		assert.Zero(t, s.Ptr%4, "elements should be 4 aligned")
		out, err := LiftSlice[int32](env, s)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("float64", func(t *testing.T) {
		in := []float64{math.Pi, -0, math.Inf(-1)}
		s, err := LowerSlice(env, in)
		require.NoError(t, err)
		raw, _ := env.Memory.ReadU64(s.Ptr)
		assert.Equal(t, math.Float64bits(math.Pi), raw, "first element not little-endian f64")
		out, err := LiftSlice[float64](env, s)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("uint64 empty", func(t *testing.T) {
		s, err := LowerSlice[uint64](env, nil)
		require.NoError(t, err)
		require.Zero(t, s.Len)
		out, err := LiftSlice[uint64](env, s)
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	assert.Zero(t, alloc.Live(), "allocations leaked")
	assert.Zero(t, alloc.BadFrees, "frees with wrong size")
}
