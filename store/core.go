package store

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/wire"
)

// The methods in this file are the value lifecycle, constructor, reader and
// container operations exported to guests as the "core" import module. They
// never fail visibly: absent results are the Null handle or the failure
// sentinel.

// Copy returns a new handle sharing the value behind ref.
func (s *Store) Copy(ref wire.Ref) wire.Ref {
	if ref == wire.NullRef {
		return wire.NullRef
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(ref)
	if !ok {
		s.log.Warn("copy of dead handle", zap.Int32("ref", int32(ref)))
		return wire.FailedRef
	}
	out := s.put(v)
	s.stats.Copied++
	s.notify(Event{Type: EventCopied, Ref: out, Kind: v.kind})
	return out
}

// Destroy releases ref. Destroying the Null handle or a failure sentinel is a
// no-op; destroying a dead handle is counted and logged.
func (s *Store) Destroy(ref wire.Ref) {
	if ref == wire.NullRef || ref.Failed() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.take(ref)
	if !ok {
		s.stats.InvalidReleases++
		s.notify(Event{Type: EventInvalidRelease, Ref: ref})
		s.log.Warn("destroy of dead handle", zap.Int32("ref", int32(ref)))
		return
	}
	s.stats.Destroyed++
	s.notify(Event{Type: EventDestroyed, Ref: ref, Kind: v.kind})
	v.unref()
}

// KindOf returns the kind behind ref. Dead handles and failures are Unknown.
func (s *Store) KindOf(ref wire.Ref) wire.Kind {
	if ref == wire.NullRef {
		return wire.KindNull
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(ref)
	if !ok {
		return wire.KindUnknown
	}
	return v.kind
}

func (s *Store) CreateArray() wire.Ref { return s.Put(NewArray()) }

func (s *Store) CreateObject() wire.Ref { return s.Put(NewObject()) }

func (s *Store) CreateString(b []byte) wire.Ref { return s.Put(NewBytes(b)) }

func (s *Store) CreateBool(b bool) wire.Ref { return s.Put(NewBool(b)) }

func (s *Store) CreateInt(i int64) wire.Ref { return s.Put(NewInt(i)) }

func (s *Store) CreateFloat(f float64) wire.Ref { return s.Put(NewFloat(f)) }

// CreateError returns the failure sentinel.
func (s *Store) CreateError() wire.Ref { return s.Fail(nil) }

// StringLen returns the byte length of a String value, or 0.
func (s *Store) StringLen(ref wire.Ref) int32 {
	v, ok := s.Get(ref)
	if !ok || v.kind != wire.KindString {
		return 0
	}
	n, _ := wire.Len32(len(v.str))
	return int32(n)
}

// ReadString copies a String value's bytes into dst, truncating to len(dst).
func (s *Store) ReadString(ref wire.Ref, dst []byte) {
	v, ok := s.Get(ref)
	if !ok || v.kind != wire.KindString {
		return
	}
	copy(dst, v.str)
}

// ReadInt coerces the value to an integer.
func (s *Store) ReadInt(ref wire.Ref) int64 {
	v, ok := s.Get(ref)
	if !ok {
		return 0
	}
	return v.Int()
}

// ReadFloat coerces the value to a float.
func (s *Store) ReadFloat(ref wire.Ref) float64 {
	v, ok := s.Get(ref)
	if !ok {
		return 0
	}
	return v.Float()
}

// ReadBool coerces the value to a bool.
func (s *Store) ReadBool(ref wire.Ref) bool {
	v, ok := s.Get(ref)
	if !ok {
		return false
	}
	return v.Bool()
}

func (s *Store) container(ref wire.Ref, kind wire.Kind, op string) (*Value, bool) {
	v, ok := s.get(ref)
	if !ok || v.kind != kind {
		if ref != wire.NullRef {
			s.log.Warn("container operation on wrong kind",
				zap.String("op", op), zap.Int32("ref", int32(ref)), zap.Stringer("want", kind))
		}
		return nil, false
	}
	return v, true
}

// drop releases a consumed value that no container accepted.
func drop(v *Value) {
	if v.refs <= 0 {
		v.refs = 1
		v.unref()
	}
}

func (s *Store) ObjectLen(ref wire.Ref) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.container(ref, wire.KindObject, "object_len")
	if !ok {
		return 0
	}
	return int32(len(obj.obj.keys))
}

// ObjectGet returns a new handle to the value under key, or the Null handle.
func (s *Store) ObjectGet(ref wire.Ref, key []byte) wire.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.container(ref, wire.KindObject, "object_get")
	if !ok {
		return wire.NullRef
	}
	v, ok := obj.obj.vals[string(key)]
	if !ok {
		return wire.NullRef
	}
	return s.put(v)
}

// ObjectSet stores the value behind val under key. The handle val is consumed.
func (s *Store) ObjectSet(ref wire.Ref, key []byte, val wire.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	child := s.consume(val, "object_set")
	obj, ok := s.container(ref, wire.KindObject, "object_set")
	if !ok || obj == child {
		drop(child)
		return
	}
	obj.SetField(string(key), child)
}

func (s *Store) ObjectRemove(ref wire.Ref, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.container(ref, wire.KindObject, "object_remove")
	if !ok {
		return
	}
	obj.removeField(string(key))
}

// ObjectKeys returns a new Array of the object's keys as Strings.
func (s *Store) ObjectKeys(ref wire.Ref) wire.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.container(ref, wire.KindObject, "object_keys")
	if !ok {
		return wire.NullRef
	}
	arr := NewArray()
	for _, k := range obj.obj.keys {
		arr.Append(NewString(k))
	}
	return s.put(arr)
}

// ObjectValues returns a new Array sharing the object's values.
func (s *Store) ObjectValues(ref wire.Ref) wire.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.container(ref, wire.KindObject, "object_values")
	if !ok {
		return wire.NullRef
	}
	arr := NewArray()
	for _, k := range obj.obj.keys {
		arr.Append(obj.obj.vals[k])
	}
	return s.put(arr)
}

func (s *Store) ArrayLen(ref wire.Ref) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	arr, ok := s.container(ref, wire.KindArray, "array_len")
	if !ok {
		return 0
	}
	n, _ := wire.Len32(len(arr.arr))
	return int32(n)
}

// ArrayGet returns a new handle to element i, or the Null handle when i is
// out of range.
func (s *Store) ArrayGet(ref wire.Ref, i int32) wire.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	arr, ok := s.container(ref, wire.KindArray, "array_get")
	if !ok {
		return wire.NullRef
	}
	v := arr.Index(int(i))
	if v == nil {
		return wire.NullRef
	}
	return s.put(v)
}

// ArraySet replaces element i with the value behind val. Setting index len
// appends. The handle val is consumed in every case.
func (s *Store) ArraySet(ref wire.Ref, i int32, val wire.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	child := s.consume(val, "array_set")
	arr, ok := s.container(ref, wire.KindArray, "array_set")
	if !ok || arr == child {
		drop(child)
		return
	}
	if int(i) == len(arr.arr) {
		arr.Append(child)
		return
	}
	if !arr.setIndex(int(i), child) {
		s.log.Warn("array_set index out of range", zap.Int32("index", i), zap.Int("len", len(arr.arr)))
		drop(child)
	}
}

// ArrayAppend appends the value behind val. The handle val is consumed.
func (s *Store) ArrayAppend(ref wire.Ref, val wire.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	child := s.consume(val, "array_append")
	arr, ok := s.container(ref, wire.KindArray, "array_append")
	if !ok || arr == child {
		drop(child)
		return
	}
	arr.Append(child)
}

func (s *Store) ArrayRemove(ref wire.Ref, i int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	arr, ok := s.container(ref, wire.KindArray, "array_remove")
	if !ok {
		return
	}
	arr.removeIndex(int(i))
}
