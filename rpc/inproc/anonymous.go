package inproc

import (
	"errors"
	"fmt"

	"github.com/procnet/inproc/rpc"
)

// Anonymous derives a started transport exposing an already-configured core
// without publishing any name. The derived server reuses the source's handler
// registry and compression registries; the executor choice is reproduced via
// its tag, so a source on the shared default pool yields a wrapper on the
// shared default pool without the wrapper pinning a reference to it.
//
// The wrapper acquires nothing beyond what the source core already holds, so
// failing to shut it down leaks no resources. That is a property of this
// wrapping, not license to skip cleanup elsewhere.
func Anonymous(core *rpc.Core) (*Server, error) {
	if core == nil {
		return nil, errors.New("cannot wrap a nil core")
	}

	b := forAnonymous(core.Handlers())
	choice := core.ExecutorChoice()
	switch {
	case choice.IsSharedDefault():
		// Leave unset; the builder default is the shared pool.
	case choice.IsDirect():
		b.DirectExecutor()
	default:
		e, _ := choice.Explicit()
		b.Executor(e)
	}
	b.CompressorRegistry(core.Compressors()).DecompressorRegistry(core.Decompressors())

	srv, err := b.Build()
	if err == nil {
		err = srv.Start()
	}
	if err != nil {
		// There is no partial-success state to recover into; report one
		// fatal condition.
		return nil, fmt.Errorf("failed to start anonymous in-process server: %w", err)
	}
	return srv, nil
}
