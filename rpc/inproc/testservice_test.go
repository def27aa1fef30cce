package inproc

import (
	"context"
	"testing"

	"github.com/procnet/inproc/common/logging"
	"github.com/procnet/inproc/rpc"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	S string
}

type echoResult struct {
	String string
	Int    int
	Args   *echoArgs
}

type echoService struct {
	version string
}

func (s *echoService) Echo(str string, i int, args *echoArgs) echoResult {
	return echoResult{str, i, args}
}

func (s *echoService) Version() string {
	return s.version
}

func (s *echoService) CountTo(ctx context.Context, stream *rpc.Stream, n int) error {
	for i := 0; i < n; i++ {
		if err := stream.Send(i); err != nil {
			return err
		}
	}
	return nil
}

type blockService struct{}

func (blockService) Block(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(logging.NewLogger("test"))
}

// newTestServer builds an unstarted server with an echo service bound to the
// given registry.
func newTestServer(t *testing.T, reg *Registry, name, version string) *Server {
	t.Helper()
	srv, err := ForName(name).Registry(reg).Build()
	require.NoError(t, err)
	require.NoError(t, srv.Core().Handlers().RegisterName("test", &echoService{version: version}))
	t.Cleanup(srv.Shutdown)
	return srv
}

func startTestServer(t *testing.T, reg *Registry, name, version string) *Server {
	t.Helper()
	srv := newTestServer(t, reg, name, version)
	require.NoError(t, srv.Start())
	return srv
}
