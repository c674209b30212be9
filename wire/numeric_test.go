package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedNarrowing(t *testing.T) {
	tests := []struct {
		name string
		in   int
		wire int32
		back int
	}{
		{"zero", 0, 0, 0},
		{"negative", -7, -7, -7},
		{"max i32", math.MaxInt32, math.MaxInt32, math.MaxInt32},
		{"min i32", math.MinInt32, math.MinInt32, math.MinInt32},
		{"truncated", 1<<32 + 5, 5, 5},
		{"truncated sign", 1<<31 + 1, math.MinInt32 + 1, math.MinInt32 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ToI32(tt.in)
			require.Equal(t, tt.wire, w)
			assert.Equal(t, tt.back, FromI32[int](w))
		})
	}
}

func TestUnsignedNarrowing(t *testing.T) {
	tests := []struct {
		name string
		in   uint
		wire uint32
		back uint
	}{
		{"zero", 0, 0, 0},
		{"max u32", math.MaxUint32, math.MaxUint32, math.MaxUint32},
		{"high bit stays positive", 1 << 31, 1 << 31, 1 << 31},
		{"truncated", 1<<32 + 9, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ToU32(tt.in)
			require.Equal(t, tt.wire, w)
			assert.Equal(t, tt.back, FromU32[uint](w))
		})
	}
}

func TestSmallIntegers(t *testing.T) {
	assert.Equal(t, int8(-128), FromI32[int8](ToI32(int8(-128))))
	assert.Equal(t, int8(44), FromI32[int8](300))
	assert.Equal(t, uint16(65535), FromU32[uint16](ToU32(uint16(65535))))
}

func TestBoolWords(t *testing.T) {
	assert.Equal(t, int32(1), BoolToI32(true))
	assert.Equal(t, int32(0), BoolToI32(false))
	for _, w := range []int32{1, -1, 2, math.MaxInt32} {
		assert.True(t, BoolFromI32(w), "BoolFromI32(%d)", w)
	}
	assert.False(t, BoolFromI32(0))
}

func TestLen32(t *testing.T) {
	n, ok := Len32(12)
	assert.True(t, ok)
	assert.Equal(t, uint32(12), n)

	_, ok = Len32(-1)
	assert.False(t, ok, "negative length should not fit")
	_, ok = Len32(uint64(math.MaxUint32) + 1)
	assert.False(t, ok, "length above 4GiB should not fit")
}
