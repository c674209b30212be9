package store

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/wire"
)

func TestReservedRefs(t *testing.T) {
	s := New()

	assert.Equal(t, wire.KindNull, s.KindOf(wire.NullRef))
	assert.Equal(t, wire.NullRef, s.Copy(wire.NullRef))
	s.Destroy(wire.NullRef)

	assert.Equal(t, wire.KindUnknown, s.KindOf(wire.FailedRef))
	s.Destroy(wire.FailedRef)
	assert.Equal(t, wire.FailedRef, s.CreateError())

	st := s.Stats()
	assert.Zero(t, st.InvalidReleases)
	assert.Equal(t, uint64(1), st.Failures)
	assert.Zero(t, st.Live)
}

func TestCreateAndRead(t *testing.T) {
	s := New()

	str := s.CreateString([]byte("Test"))
	require.Equal(t, wire.KindString, s.KindOf(str))
	require.Equal(t, int32(4), s.StringLen(str))
	buf := make([]byte, 4)
	s.ReadString(str, buf)
	assert.Equal(t, "Test", string(buf))

	short := make([]byte, 2)
	s.ReadString(str, short)
	assert.Equal(t, "Te", string(short))

	i := s.CreateInt(-42)
	assert.Equal(t, wire.KindNumber, s.KindOf(i))
	assert.Equal(t, int64(-42), s.ReadInt(i))
	assert.Equal(t, float64(-42), s.ReadFloat(i))
	assert.True(t, s.ReadBool(i))

	f := s.CreateFloat(2.75)
	assert.Equal(t, int64(2), s.ReadInt(f))
	assert.Equal(t, 2.75, s.ReadFloat(f))

	b := s.CreateBool(true)
	assert.Equal(t, wire.KindBool, s.KindOf(b))
	assert.True(t, s.ReadBool(b))
	assert.Equal(t, int64(1), s.ReadInt(b))

	assert.Equal(t, 4, s.Live())
	assert.Zero(t, s.StringLen(i), "string_len of a number")
}

func TestCoercion(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		i    int64
		f    float64
		b    bool
	}{
		{"int", NewInt(7), 7, 7, true},
		{"zero", NewInt(0), 0, 0, false},
		{"float", NewFloat(-3.9), -3, -3.9, true},
		{"nan", NewFloat(math.NaN()), 0, math.NaN(), true},
		{"huge", NewFloat(1e300), math.MaxInt64, 1e300, true},
		{"true", NewBool(true), 1, 1, true},
		{"numeric string", NewString(" 12 "), 12, 12, false},
		{"float string", NewString("1.5"), 1, 1.5, false},
		{"text", NewString("abc"), 0, 0, false},
		{"null", NewNull(), 0, 0, false},
		{"array", NewArray(), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.i, tt.v.Int())
			if math.IsNaN(tt.f) {
				assert.True(t, math.IsNaN(tt.v.Float()))
			} else {
				assert.Equal(t, tt.f, tt.v.Float())
			}
			assert.Equal(t, tt.b, tt.v.Bool())
		})
	}
}

func TestCopySharesAndDestroysIndependently(t *testing.T) {
	s := New()
	h1 := s.CreateString([]byte("shared"))
	h2 := s.Copy(h1)
	require.NotEqual(t, h1, h2)

	v, ok := s.Get(h1)
	require.True(t, ok)
	assert.Equal(t, int32(2), v.Refs())

	s.Destroy(h1)
	assert.Equal(t, wire.KindUnknown, s.KindOf(h1))
	require.Equal(t, wire.KindString, s.KindOf(h2), "copy must survive destroy of the original")
	buf := make([]byte, s.StringLen(h2))
	s.ReadString(h2, buf)
	assert.Equal(t, "shared", string(buf))

	s.Destroy(h2)
	assert.Zero(t, s.Live())
	assert.Zero(t, v.Refs())
}

func TestDoubleDestroyIsCounted(t *testing.T) {
	s := New()
	var events []Event
	s.Subscribe(ObserverFunc(func(e Event) { events = append(events, e) }))

	h := s.CreateInt(1)
	s.Destroy(h)
	s.Destroy(h)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Destroyed)
	assert.Equal(t, uint64(1), st.InvalidReleases)
	require.Len(t, events, 3)
	assert.Equal(t, EventCreated, events[0].Type)
	assert.Equal(t, EventDestroyed, events[1].Type)
	assert.Equal(t, EventInvalidRelease, events[2].Type)
	assert.Equal(t, wire.FailedRef, s.Copy(h))
}

func TestSlotReuse(t *testing.T) {
	s := New()
	a := s.CreateInt(1)
	s.Destroy(a)
	b := s.CreateBool(false)
	assert.Equal(t, a, b, "freed slots are reused")
	assert.Equal(t, wire.KindBool, s.KindOf(b))
}

func TestObjectOps(t *testing.T) {
	s := New()
	obj := s.CreateObject()
	require.Zero(t, s.ObjectLen(obj))

	v := s.CreateString([]byte("value"))
	s.ObjectSet(obj, []byte("k"), v)
	assert.Equal(t, wire.KindUnknown, s.KindOf(v), "set consumes the value handle")
	assert.Equal(t, int32(1), s.ObjectLen(obj))

	got := s.ObjectGet(obj, []byte("k"))
	require.Equal(t, wire.KindString, s.KindOf(got))
	buf := make([]byte, s.StringLen(got))
	s.ReadString(got, buf)
	assert.Equal(t, "value", string(buf))
	s.Destroy(got)

	assert.Equal(t, wire.NullRef, s.ObjectGet(obj, []byte("missing")))

	s.ObjectRemove(obj, []byte("k"))
	assert.Equal(t, wire.NullRef, s.ObjectGet(obj, []byte("k")))
	assert.Zero(t, s.ObjectLen(obj))

	s.Destroy(obj)
	assert.Zero(t, s.Live())
}

func TestObjectKeepsInsertionOrder(t *testing.T) {
	s := New()
	obj := s.CreateObject()
	for _, k := range []string{"z", "a", "m"} {
		s.ObjectSet(obj, []byte(k), s.CreateInt(int64(len(k))))
	}
	s.ObjectSet(obj, []byte("a"), s.CreateBool(true))

	keys := s.ObjectKeys(obj)
	require.Equal(t, wire.KindArray, s.KindOf(keys))
	require.Equal(t, int32(3), s.ArrayLen(keys))
	var got []string
	for i := int32(0); i < 3; i++ {
		k := s.ArrayGet(keys, i)
		buf := make([]byte, s.StringLen(k))
		s.ReadString(k, buf)
		got = append(got, string(buf))
		s.Destroy(k)
	}
	assert.Equal(t, []string{"z", "a", "m"}, got)

	values := s.ObjectValues(obj)
	second := s.ArrayGet(values, 1)
	assert.Equal(t, wire.KindBool, s.KindOf(second), "replacing a key keeps its position")

	s.Destroy(second)
	s.Destroy(values)
	s.Destroy(keys)
	s.Destroy(obj)
	assert.Zero(t, s.Live())
}

func TestContainerKeepsChildAlive(t *testing.T) {
	s := New()
	arr := s.CreateArray()
	child := s.CreateObject()
	keep := s.Copy(child)
	s.ArrayAppend(arr, child)

	cv, _ := s.Get(keep)
	assert.Equal(t, int32(2), cv.Refs(), "one slot plus array membership")

	s.Destroy(keep)
	assert.Equal(t, int32(1), cv.Refs())

	got := s.ArrayGet(arr, 0)
	assert.Equal(t, wire.KindObject, s.KindOf(got))
	s.Destroy(got)

	s.Destroy(arr)
	assert.Zero(t, cv.Refs(), "child freed with its last container")
}

func TestArrayOps(t *testing.T) {
	s := New()
	arr := s.CreateArray()
	for i := 0; i < 3; i++ {
		s.ArrayAppend(arr, s.CreateInt(int64(i)))
	}
	require.Equal(t, int32(3), s.ArrayLen(arr))

	s.ArraySet(arr, 1, s.CreateString([]byte("one")))
	mid := s.ArrayGet(arr, 1)
	assert.Equal(t, wire.KindString, s.KindOf(mid))
	s.Destroy(mid)

	s.ArraySet(arr, 3, s.CreateInt(3))
	assert.Equal(t, int32(4), s.ArrayLen(arr), "set at len appends")

	stray := s.CreateInt(99)
	s.ArraySet(arr, 10, stray)
	assert.Equal(t, int32(4), s.ArrayLen(arr))
	assert.Equal(t, wire.KindUnknown, s.KindOf(stray), "rejected value is still consumed")

	s.ArrayRemove(arr, 0)
	assert.Equal(t, int32(3), s.ArrayLen(arr))
	first := s.ArrayGet(arr, 0)
	assert.Equal(t, wire.KindString, s.KindOf(first))
	s.Destroy(first)

	assert.Equal(t, wire.NullRef, s.ArrayGet(arr, 3))
	assert.Equal(t, wire.NullRef, s.ArrayGet(arr, -1))
	s.ArrayRemove(arr, 42)

	s.ArrayAppend(arr, wire.NullRef)
	last := s.ArrayGet(arr, 3)
	assert.Equal(t, wire.KindNull, s.KindOf(last))
	s.Destroy(last)

	s.Destroy(arr)
	assert.Zero(t, s.Live())
}

func TestContainerOpsOnWrongKind(t *testing.T) {
	s := New()
	str := s.CreateString([]byte("x"))
	v := s.CreateInt(1)

	s.ObjectSet(str, []byte("k"), v)
	assert.Equal(t, wire.KindUnknown, s.KindOf(v), "value consumed even when target is not an object")
	assert.Zero(t, s.ObjectLen(str))
	assert.Zero(t, s.ArrayLen(str))
	assert.Equal(t, wire.NullRef, s.ObjectKeys(str))
	assert.Equal(t, wire.NullRef, s.ArrayGet(wire.NullRef, 0))
	assert.Equal(t, 1, s.Live())
}

type dropCounter struct{ n *int }

func (d dropCounter) Drop() { *d.n++ }

func TestDropperCalledOnLastRelease(t *testing.T) {
	s := New()
	var drops int
	h := s.Put(NewOpaque(dropCounter{&drops}))
	c := s.Copy(h)
	assert.Equal(t, wire.KindUnknown, s.KindOf(h))

	s.Destroy(h)
	assert.Zero(t, drops)
	s.Destroy(c)
	assert.Equal(t, 1, drops)
}

func TestCloseReportsLeaks(t *testing.T) {
	s := New()
	var drops int
	s.Put(NewNode(dropCounter{&drops}))
	s.CreateInt(1)
	h := s.CreateInt(2)
	s.Destroy(h)

	assert.Equal(t, 2, s.Close())
	assert.Equal(t, 1, drops)
	assert.Zero(t, s.Close())
	assert.Equal(t, wire.FailedRef, s.CreateInt(3), "closed store refuses new values")
}

func TestFailRecordsLastError(t *testing.T) {
	s := New()
	err := errors.New("parse failed")
	assert.Equal(t, wire.FailedRef, s.Fail(err))
	assert.Equal(t, err, s.LastError())
}

func TestCreateErrorKeepsLastError(t *testing.T) {
	s := New()
	err := errors.New("parse failed")
	s.Fail(err)
	assert.Equal(t, wire.FailedRef, s.CreateError())
	assert.Equal(t, err, s.LastError())
	assert.Equal(t, uint64(2), s.Stats().Failures)
}

func TestEach(t *testing.T) {
	s := New()
	a := s.CreateInt(1)
	b := s.CreateString([]byte("b"))
	var refs []wire.Ref
	s.Each(func(r wire.Ref, v *Value) { refs = append(refs, r) })
	assert.Equal(t, []wire.Ref{a, b}, refs)
}
