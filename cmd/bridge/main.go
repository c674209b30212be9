// Command bridge loads a core wasm guest against the host modules and calls
// its exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-bridge/runtime"
)

type options struct {
	wasm        string
	config      string
	funcName    string
	args        string
	memMiB      uint
	httpTimeout time.Duration
	list        bool
	verbose     bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.wasm, "wasm", "", "Path to core wasm module")
	flag.StringVar(&opts.config, "config", "", "YAML runtime config")
	flag.StringVar(&opts.funcName, "func", "", "Export to call")
	flag.StringVar(&opts.args, "arg", "", "Comma separated arguments, one per parameter")
	flag.UintVar(&opts.memMiB, "mem", 0, "Guest memory limit in MiB (0 keeps the config value)")
	flag.DurationVar(&opts.httpTimeout, "http-timeout", 0, "Timeout for guest HTTP requests")
	flag.BoolVar(&opts.list, "list", false, "List host functions, exports and imports and exit")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose development logging")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if opts.wasm == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridge -wasm <file.wasm> [-config bridge.yaml] [-func name] [-arg 1,2]")
		fmt.Fprintln(os.Stderr, "       bridge -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       bridge -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := buildConfig(opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts.wasm, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), opts, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return zcfg.Build()
}

func buildConfig(opts options, logger *zap.Logger) (runtime.Config, error) {
	cfg := runtime.DefaultConfig()
	if opts.config != "" {
		loaded, err := runtime.LoadConfig(opts.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.memMiB > 0 {
		pages, err := parsePages(opts.memMiB)
		if err != nil {
			return cfg, err
		}
		cfg.MemoryLimitPages = pages
	}
	if opts.httpTimeout > 0 {
		cfg.HTTPTimeout = opts.httpTimeout
	}
	cfg.Logger = logger
	return cfg, nil
}

func run(ctx context.Context, opts options, cfg runtime.Config) error {
	data, err := os.ReadFile(opts.wasm)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	mod, err := rt.Load(ctx, data)
	if err != nil {
		return err
	}

	fmt.Printf("Module: %s (%s)\n", opts.wasm, mod.Name())

	if opts.list {
		fmt.Println("\nHost functions:")
		for _, hf := range rt.Signatures() {
			fmt.Printf("  %s: %s\n", hf.Key, hf.Signature)
		}
		fmt.Println("\nImports:")
		for _, imp := range mod.Imports() {
			fmt.Printf("  %s\n", imp)
		}
		fmt.Println("\nExports:")
		for _, exp := range mod.Exports() {
			fmt.Printf("  %s\n", exp)
		}
		return nil
	}

	if opts.funcName == "" {
		fmt.Println("\nExports:")
		for _, exp := range mod.Exports() {
			fmt.Printf("  %s\n", exp)
		}
		return nil
	}

	var target *runtime.Export
	for _, exp := range mod.Exports() {
		if exp.Name == opts.funcName {
			target = &exp
			break
		}
	}
	if target == nil {
		return fmt.Errorf("export %q not found", opts.funcName)
	}

	words, err := encodeArgs(splitArgs(opts.args), target.Params)
	if err != nil {
		return err
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	fmt.Printf("\nCalling %s\n", target)
	results, err := inst.Call(ctx, target.Name, words...)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s\n", formatResults(results, target.Results, inst.Store()))

	if rows := liveHandles(inst.Store()); len(rows) > 0 {
		fmt.Println("\nLive handles:")
		for _, row := range rows {
			fmt.Printf("  %4d %-7s refs=%d %s\n", row.ref, row.kind, row.refs, row.value)
		}
	}
	return nil
}
