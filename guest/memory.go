//go:build wasip1

package guest

import "unsafe"

// pinned keeps buffers handed to the host reachable until the guest takes
// them back or the host frees them.
var pinned = map[uintptr][]byte{}

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	buf := make([]byte, size)
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	pinned[ptr] = buf
	return uint32(ptr)
}

//go:wasmexport dealloc
func dealloc(ptr, size uint32) {
	delete(pinned, uintptr(ptr))
}

// Take claims a buffer the host lowered into the guest, typically an export
// argument. The buffer is unpinned and owned by the caller.
func Take(ptr, size uint32) []byte {
	buf, ok := pinned[uintptr(ptr)]
	if !ok {
		return nil
	}
	delete(pinned, uintptr(ptr))
	return buf[:size:size]
}

// TakeString is Take for text arguments.
func TakeString(ptr, size uint32) string {
	return string(Take(ptr, size))
}

func bytesPtr(b []byte) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.SliceData(b)), uint32(len(b))
}

func stringPtr(s string) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.StringData(s)), uint32(len(s))
}
