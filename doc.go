// Package wasmbridge exchanges values between a Go host and wasm guests
// across a narrow ABI of 32-bit words.
//
// Nothing crosses the boundary except integers, floats and (pointer, length)
// pairs into guest linear memory. Structured values stay on the host in a
// value store and are named by opaque handles; the guest holds a handle,
// asks the host about it, and releases it exactly once.
//
// # Architecture Overview
//
//	wasmbridge/          Root package with core Memory and Allocator interfaces
//	├── wire/            Word contract: refs, kinds, slices, lowering and lifting
//	├── store/           Host value store: handle table over reference counted values
//	├── handle/          Owned handles with typed views and double-ended cursors
//	├── bind/            Boundary adapters between Go functions and wasm words
//	├── host/            Host modules: core, json, crypto, http, html, env
//	├── runtime/         wazero integration: loading, sessions, guest allocators
//	├── guest/           Guest side bindings built with GOOS=wasip1
//	├── errors/          Structured error types for debugging
//	└── cmd/bridge/      Command line runner with an interactive TUI
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, runtime.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	results, err := inst.Call(ctx, "run")
//
// # Failure Sentinels
//
// Constructors that cannot produce a value return a negative handle instead
// of trapping. The error behind the most recent sentinel is kept by the
// store and surfaces through handle.Result on the guest side.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. An Instance and its value
// store belong to one guest and should be driven by a single goroutine.
package wasmbridge
