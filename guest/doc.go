// Package guest is the guest side of the bridge for Go programs built with
// GOOS=wasip1 GOARCH=wasm. It declares the host modules as wasm imports,
// implements handle.Core over the "core" imports and exports the allocator
// the host lowers arguments through.
//
// Build a reactor so the host can call exports after _initialize:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o guest.wasm .
//
// Byte buffers passed to the host are lent: the host reads them during the
// call and never frees them.
package guest
