package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/wire"
)

// EventType identifies a handle lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventCopied
	EventMoved
	EventDestroyed
	EventInvalidRelease
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventCopied:
		return "copied"
	case EventMoved:
		return "moved"
	case EventDestroyed:
		return "destroyed"
	case EventInvalidRelease:
		return "invalid_release"
	}
	return "unknown"
}

// Event describes one change to the handle table.
type Event struct {
	Ref  wire.Ref
	Kind wire.Kind
	Type EventType
}

// Observer receives handle lifecycle events. Observers are called with the
// store lock held and must not call back into the store.
type Observer interface {
	OnValueEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnValueEvent(e Event) { f(e) }

// Stats counts handle table activity.
type Stats struct {
	Created         uint64
	Copied          uint64
	Moved           uint64
	Destroyed       uint64
	InvalidReleases uint64
	Failures        uint64
	Live            int
}

// Store is the far side value store: a table of handle slots over reference
// counted Values. Ref 0 is the permanent Null value; negative refs are
// failures. Slots are recycled through a free list.
type Store struct {
	slots     []*Value
	freeList  []wire.Ref
	observers []Observer
	stats     Stats
	lastErr   error
	log       *zap.Logger
	mu        sync.Mutex
	closed    bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		slots:    make([]*Value, 0, 64),
		freeList: make([]wire.Ref, 0, 16),
		log:      Logger(),
	}
}

// Subscribe adds an observer for lifecycle events.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) notify(e Event) {
	for _, o := range s.observers {
		o.OnValueEvent(e)
	}
}

// put stores v in a new slot, taking a reference. Caller holds mu.
func (s *Store) put(v *Value) wire.Ref {
	if s.closed {
		return wire.FailedRef
	}
	v.refs++
	var ref wire.Ref
	if n := len(s.freeList); n > 0 {
		ref = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.slots[ref-1] = v
	} else {
		s.slots = append(s.slots, v)
		ref = wire.Ref(len(s.slots))
	}
	s.stats.Created++
	s.stats.Live++
	s.notify(Event{Type: EventCreated, Ref: ref, Kind: v.kind})
	return ref
}

// get resolves a live slot. Caller holds mu.
func (s *Store) get(ref wire.Ref) (*Value, bool) {
	if ref <= 0 || int(ref) > len(s.slots) {
		return nil, false
	}
	v := s.slots[ref-1]
	return v, v != nil
}

// take empties a slot and hands its reference to the caller. Caller holds mu.
func (s *Store) take(ref wire.Ref) (*Value, bool) {
	v, ok := s.get(ref)
	if !ok {
		return nil, false
	}
	s.slots[ref-1] = nil
	s.freeList = append(s.freeList, ref)
	s.stats.Live--
	return v, true
}

// consume takes ownership of a handle passed into a container operation. The
// Null handle and dead handles yield a fresh Null value.
func (s *Store) consume(ref wire.Ref, op string) *Value {
	if ref == wire.NullRef {
		return NewNull()
	}
	v, ok := s.take(ref)
	if !ok {
		s.log.Warn("consumed dead handle", zap.String("op", op), zap.Int32("ref", int32(ref)))
		return NewNull()
	}
	s.stats.Moved++
	s.notify(Event{Type: EventMoved, Ref: ref, Kind: v.kind})
	// The slot's reference moves into the container; the container adds its own.
	v.refs--
	return v
}

// Put stores v and returns a new handle that owns one reference to it.
func (s *Store) Put(v *Value) wire.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(v)
}

// Get resolves a handle without changing ownership.
func (s *Store) Get(ref wire.Ref) (*Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ref)
}

// Fail counts a failure, records a non-nil err as the most recent one and
// returns the failure sentinel. Only the sentinel crosses the boundary.
func (s *Store) Fail(err error) wire.Ref {
	s.mu.Lock()
	s.stats.Failures++
	if err != nil {
		s.lastErr = err
	}
	s.mu.Unlock()
	if err != nil {
		s.log.Debug("value collapsed to failure sentinel", zap.Error(err))
	}
	return wire.FailedRef
}

// LastError returns the most recent non-nil error passed to Fail.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stats returns a snapshot of the table counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Live returns the number of live handles.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Live
}

// Each calls fn for every live handle in ascending order.
func (s *Store) Each(fn func(wire.Ref, *Value)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.slots {
		if v != nil {
			fn(wire.Ref(i+1), v)
		}
	}
}

// Close drops every live handle and returns how many were still live.
// Subsequent constructors return the failure sentinel.
func (s *Store) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	leaked := 0
	for i, v := range s.slots {
		if v == nil {
			continue
		}
		leaked++
		s.slots[i] = nil
		v.unref()
	}
	if leaked > 0 {
		s.log.Warn("value store closed with live handles", zap.Int("leaked", leaked))
	}
	s.slots = nil
	s.freeList = nil
	s.stats.Live = 0
	return leaked
}
