package inproc

import (
	"strings"
	"testing"

	"github.com/procnet/inproc/common/logging"
	"github.com/procnet/inproc/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequiresName(t *testing.T) {
	t.Parallel()

	_, err := ForName("").Build()
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestUseTransportSecurityAlwaysFails(t *testing.T) {
	t.Parallel()

	b := ForName("secure")
	require.ErrorIs(t, b.UseTransportSecurity("cert.pem", "key.pem"), ErrTransportSecurityUnsupported)

	// Other configuration state must not change the outcome.
	b = ForName("secure").DirectExecutor().CompressorRegistry(rpc.NewCompressorRegistry())
	require.ErrorIs(t, b.UseTransportSecurity("", ""), ErrTransportSecurityUnsupported)
}

func TestBuildLeavesServerCreated(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	srv, err := ForName("svc").Registry(reg).Build()
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	assert.Equal(t, StateCreated, srv.State())
	assert.False(t, srv.Core().Running())
	assert.Empty(t, reg.Names(), "Build must not touch the registry")
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	srv, err := ForName("svc").Registry(newTestRegistry(t)).Build()
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	core := srv.Core()
	assert.True(t, core.ExecutorChoice().IsSharedDefault())
	assert.Same(t, rpc.DefaultCompressorRegistry(), core.Compressors())
	assert.Same(t, rpc.DefaultDecompressorRegistry(), core.Decompressors())
	assert.NotNil(t, core.Handlers())
}

func TestBuildExplicitConfiguration(t *testing.T) {
	t.Parallel()

	handlers := rpc.NewHandlerRegistry(logging.NewLogger("test"))
	comp := rpc.NewCompressorRegistry()
	decomp := rpc.NewDecompressorRegistry()
	exec := inlineExecutor{}

	srv, err := ForName("svc").
		Registry(newTestRegistry(t)).
		HandlerRegistry(handlers).
		Executor(exec).
		CompressorRegistry(comp).
		DecompressorRegistry(decomp).
		Build()
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	core := srv.Core()
	assert.Same(t, handlers, core.Handlers())
	assert.Same(t, comp, core.Compressors())
	assert.Same(t, decomp, core.Decompressors())
	got, explicit := core.ExecutorChoice().Explicit()
	require.True(t, explicit)
	assert.Equal(t, exec, got)
}

func TestGenerateName(t *testing.T) {
	t.Parallel()

	a, b := GenerateName(), GenerateName()
	assert.True(t, strings.HasPrefix(a, "inproc-"))
	assert.NotEqual(t, a, b)
}

// inlineExecutor stands in for a caller-owned executor in configuration
// plumbing tests.
type inlineExecutor struct{}

func (inlineExecutor) Execute(task func()) { task() }
