package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// instantiateWASI installs wasi_snapshot_preview1 so guests built for wasip1
// (fd_write, clock, random, proc_exit) link.
func instantiateWASI(ctx context.Context, rt wazero.Runtime) error {
	if rt.Module(wasi_snapshot_preview1.ModuleName) != nil {
		return nil
	}
	builder := rt.NewHostModuleBuilder(wasi_snapshot_preview1.ModuleName)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	_, err := builder.Instantiate(ctx)
	return err
}
