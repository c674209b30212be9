// Package runtime runs guests against the host modules.
//
// # Quick Start
//
//	ctx := context.Background()
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
//	var greet func(context.Context, string) (wire.Ref, error)
//	if err := inst.Bind("greet", &greet); err != nil {
//	    log.Fatal(err)
//	}
//	ref, err := greet(ctx, "World")
//	s, _ := handle.Wrap(inst.Store(), ref)
//
// # Loading
//
// Load compiles a core module and verifies that every function it imports is
// provided by WASI or a registered host module; anything missing is reported
// at once as an errors.MissingImportsError. Compiled modules are cached by
// the BLAKE3 digest of the binary.
//
// # Sessions
//
// Each instance has a Session: its own value store, guest memory and the
// guest's allocator exports (cabi_realloc, alloc or malloc for allocation;
// cabi_free, dealloc or free for release). Host functions find the session
// of the calling instance by module name.
//
// # Configuration
//
// Config can be built in code or loaded from YAML:
//
//	memory_limit_pages: 256
//	http_timeout: 10s
//	user_agent: my-host/1.0
//	requests_per_second: 5
//	request_burst: 2
//	wasi: true
//
// Setting Config.Metrics registers a Prometheus collector exporting value
// store counters.
package runtime
