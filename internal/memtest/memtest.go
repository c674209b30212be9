// Package memtest provides an in-process linear memory and a tracking
// allocator for exercising conversions without a wasm engine.
package memtest

import (
	"encoding/binary"
	"fmt"
)

// Memory is a fixed-size linear memory. Read returns views that alias the
// backing buffer, matching wazero.
type Memory struct {
	buf []byte
}

// NewMemory creates a zeroed memory of size bytes.
func NewMemory(size uint32) *Memory {
	return &Memory{buf: make([]byte, size)}
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return m.buf[offset:end:end], nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.buf)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(m.buf[offset:], data)
	return nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return m.Write(offset, b[:])
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return m.Write(offset, b[:])
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.buf))
}

// Allocator is a bump allocator over a Memory that records allocations and
// frees. Pointer 0 is never handed out.
type Allocator struct {
	mem  *Memory
	next uint32
	live map[uint32]uint32

	Allocs   int
	Frees    int
	BadFrees int
	Fail     bool
}

// NewAllocator creates an allocator over mem.
func NewAllocator(mem *Memory) *Allocator {
	return &Allocator{mem: mem, next: 8, live: make(map[uint32]uint32)}
}

func (a *Allocator) Alloc(size, align uint32) (uint32, error) {
	if a.Fail {
		return 0, fmt.Errorf("allocation disabled")
	}
	if align == 0 {
		align = 1
	}
	ptr := (a.next + align - 1) &^ (align - 1)
	if uint64(ptr)+uint64(size) > uint64(a.mem.Size()) {
		return 0, fmt.Errorf("out of memory: want %d bytes at %d", size, ptr)
	}
	a.next = ptr + size
	if size == 0 {
		a.next++
	}
	a.live[ptr] = size
	a.Allocs++
	return ptr, nil
}

// Free releases ptr. Frees of unknown pointers or with a mismatched size are
// counted in BadFrees.
func (a *Allocator) Free(ptr, size, align uint32) {
	got, ok := a.live[ptr]
	if !ok || got != size {
		a.BadFrees++
		return
	}
	delete(a.live, ptr)
	a.Frees++
}

// Live returns the number of outstanding allocations.
func (a *Allocator) Live() int {
	return len(a.live)
}

// Owns reports whether ptr is a live allocation.
func (a *Allocator) Owns(ptr uint32) bool {
	_, ok := a.live[ptr]
	return ok
}

// Place writes data into a fresh allocation and returns its pointer, as a guest
// would before handing a buffer to the host.
func (a *Allocator) Place(data []byte) uint32 {
	ptr, err := a.Alloc(uint32(len(data)), 1)
	if err != nil {
		panic(err)
	}
	if err := a.mem.Write(ptr, data); err != nil {
		panic(err)
	}
	return ptr
}
