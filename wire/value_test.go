package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeWords(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		for _, v := range []int32{0, 1, -1, math.MinInt32, math.MaxInt32} {
			assert.Equal(t, v, Decode[int32](Encode(v)))
		}
		assert.Equal(t, uint64(0xFFFFFFFF), Encode(int32(-1)), "i32 -1 should occupy the low 32 bits only")
	})

	t.Run("uint32", func(t *testing.T) {
		for _, v := range []uint32{0, 1, math.MaxUint32} {
			assert.Equal(t, v, Decode[uint32](Encode(v)))
		}
	})

	t.Run("int64", func(t *testing.T) {
		for _, v := range []int64{0, -1, math.MinInt64, math.MaxInt64} {
			assert.Equal(t, v, Decode[int64](Encode(v)))
		}
	})

	t.Run("uint64", func(t *testing.T) {
		for _, v := range []uint64{0, math.MaxUint64} {
			assert.Equal(t, v, Decode[uint64](Encode(v)))
		}
	})

	t.Run("float32", func(t *testing.T) {
		for _, v := range []float32{0, -0.5, math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(-1))} {
			assert.Equal(t, v, Decode[float32](Encode(v)))
		}
		nan := Decode[float32](Encode(float32(math.NaN())))
		assert.True(t, math.IsNaN(float64(nan)), "float32 NaN should survive as NaN")
	})

	t.Run("float64", func(t *testing.T) {
		for _, v := range []float64{0, math.Pi, -math.MaxFloat64, math.Inf(1)} {
			assert.Equal(t, v, Decode[float64](Encode(v)))
		}
	})

	t.Run("ref", func(t *testing.T) {
		for _, v := range []Ref{NullRef, FailedRef, 42} {
			assert.Equal(t, v, Decode[Ref](Encode(v)))
		}
	})

	t.Run("kind", func(t *testing.T) {
		assert.Equal(t, KindNode, Decode[Kind](Encode(KindNode)))
		assert.Equal(t, KindUnknown, Decode[Kind](Encode(int32(99))), "out of range tag")
	})
}

func TestSliceWords(t *testing.T) {
	s := Slice{Ptr: 0x10000, Len: math.MaxUint32}
	p, l := s.Words()
	assert.Equal(t, s, SliceOf(p, l))
	assert.True(t, (Slice{Ptr: 5}).IsEmpty(), "zero length slice should be empty")
}

func TestRefFailed(t *testing.T) {
	tests := []struct {
		ref  Ref
		want bool
	}{
		{NullRef, false},
		{1, false},
		{FailedRef, true},
		{math.MinInt32, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ref.Failed(), "Ref(%d).Failed()", tt.ref)
	}
}

func TestKindString(t *testing.T) {
	want := []string{"unknown", "null", "object", "array", "string", "number", "bool", "node"}
	for i, name := range want {
		assert.Equal(t, name, Kind(i).String())
		assert.Equal(t, Kind(i), KindOf(int32(i)))
	}
	assert.Equal(t, "unknown", Kind(-3).String())
	assert.Equal(t, "unknown", Kind(8).String())
}
