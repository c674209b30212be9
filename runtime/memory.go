package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmbridge "github.com/wippyai/wasm-bridge"
	"github.com/wippyai/wasm-bridge/errors"
)

// Allocator exports, in lookup order.
const (
	cabiRealloc   = "cabi_realloc"
	legacyRealloc = "canonical_abi_realloc"
	simpleAlloc   = "alloc"
	libcAlloc     = "malloc"

	cabiFree   = "cabi_free"
	simpleFree = "dealloc"
	libcFree   = "free"
)

// guestMemory adapts wazero memory to wasmbridge.Memory.
type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, errNoMemory
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), uint64(length), uint64(m.mem.Size()))
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if m.mem == nil {
		return errNoMemory
	}
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), uint64(len(data)), uint64(m.mem.Size()))
	}
	return nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	if m.mem == nil {
		return 0, errNoMemory
	}
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), 4, uint64(m.mem.Size()))
	}
	return v, nil
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	if m.mem == nil {
		return 0, errNoMemory
	}
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), 8, uint64(m.mem.Size()))
	}
	return v, nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if m.mem == nil {
		return errNoMemory
	}
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), 4, uint64(m.mem.Size()))
	}
	return nil
}

func (m *guestMemory) WriteU64(offset uint32, value uint64) error {
	if m.mem == nil {
		return errNoMemory
	}
	if !m.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseRuntime, uint64(offset), 8, uint64(m.mem.Size()))
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

var errNoMemory = errors.NotFound(errors.PhaseRuntime, "export", "memory")

// allocStyle is the calling convention of the guest allocator export.
type allocStyle int

const (
	allocNone    allocStyle = iota
	allocSize               // alloc(size) -> ptr
	allocAligned            // alloc(size, align) -> ptr
	allocRealloc            // realloc(old, old_size, align, new_size) -> ptr
)

// guestAllocator calls the guest's own allocator exports. One stack buffer is
// reused under a mutex; the context is the one of the call in flight.
type guestAllocator struct {
	allocFn    api.Function
	freeFn     api.Function
	currentCtx context.Context
	stackBuf   [4]uint64
	stackMutex sync.Mutex
	style      allocStyle
	freeParams int
}

func newGuestAllocator(mod api.Module) *guestAllocator {
	a := &guestAllocator{}
	defs := mod.ExportedFunctionDefinitions()
	for _, name := range []string{cabiRealloc, legacyRealloc, simpleAlloc, libcAlloc} {
		def, ok := defs[name]
		if !ok {
			continue
		}
		switch len(def.ParamTypes()) {
		case 1:
			a.style = allocSize
		case 2:
			a.style = allocAligned
		case 4:
			a.style = allocRealloc
		default:
			continue
		}
		a.allocFn = mod.ExportedFunction(name)
		break
	}
	for _, name := range []string{cabiFree, simpleFree, libcFree} {
		def, ok := defs[name]
		if !ok || len(def.ParamTypes()) < 1 || len(def.ParamTypes()) > 3 {
			continue
		}
		a.freeFn = mod.ExportedFunction(name)
		a.freeParams = len(def.ParamTypes())
		break
	}
	if a.freeFn == nil && a.style == allocRealloc {
		// realloc(ptr, size, align, 0) releases ptr
		a.freeFn = a.allocFn
		a.freeParams = 4
	}
	if a.allocFn != nil && a.freeFn == nil {
		Logger().Debug("guest exports no free function; borrowed buffers are not released",
			zap.String("module", mod.Name()))
	}
	return a
}

func (a *guestAllocator) setContext(ctx context.Context) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()
	a.currentCtx = ctx
}

func (a *guestAllocator) ctx() context.Context {
	if a.currentCtx == nil {
		return context.Background()
	}
	return a.currentCtx
}

func (a *guestAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.allocFn == nil {
		return 0, errors.Allocation(errors.PhaseRuntime, size, fmt.Errorf("guest exports no allocator"))
	}

	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	var n int
	switch a.style {
	case allocSize:
		a.stackBuf[0] = uint64(size)
		n = 1
	case allocAligned:
		a.stackBuf[0] = uint64(size)
		a.stackBuf[1] = uint64(align)
		n = 2
	default:
		a.stackBuf[0] = 0
		a.stackBuf[1] = 0
		a.stackBuf[2] = uint64(align)
		a.stackBuf[3] = uint64(size)
		n = 4
	}
	if err := a.allocFn.CallWithStack(a.ctx(), a.stackBuf[:n]); err != nil {
		return 0, errors.Allocation(errors.PhaseRuntime, size, err)
	}
	ptr := uint32(a.stackBuf[0])
	if ptr == 0 {
		return 0, errors.Allocation(errors.PhaseRuntime, size, fmt.Errorf("guest allocator returned null"))
	}
	return ptr, nil
}

// Free hands ptr back to the guest. Without a free export it does nothing.
func (a *guestAllocator) Free(ptr, size, align uint32) {
	if a.freeFn == nil || ptr == 0 {
		return
	}

	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	a.stackBuf[0] = uint64(ptr)
	a.stackBuf[1] = uint64(size)
	a.stackBuf[2] = uint64(align)
	a.stackBuf[3] = 0
	if err := a.freeFn.CallWithStack(a.ctx(), a.stackBuf[:a.freeParams]); err != nil {
		Logger().Warn("guest free failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

var (
	_ wasmbridge.Memory      = (*guestMemory)(nil)
	_ wasmbridge.MemorySizer = (*guestMemory)(nil)
	_ wasmbridge.Allocator   = (*guestAllocator)(nil)
)
