package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/procnet/inproc/common/logging"
)

func newTestCore(t *testing.T, choice ExecutorChoice) *Core {
	t.Helper()
	logger := logging.NewLogger("test")
	core := NewCore(CoreConfig{Executor: choice}, logger)
	if err := core.Handlers().RegisterName("test", new(testService)); err != nil {
		t.Fatal(err)
	}
	return core
}

func newStartedCore(t *testing.T, choice ExecutorChoice) *Core {
	t.Helper()
	core := newTestCore(t, choice)
	if err := core.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(core.Stop)
	return core
}

// goExecutor runs every task on a fresh goroutine; tests that need the
// caller and the handler to make progress independently use it.
type goExecutor struct{}

func (goExecutor) Execute(task func()) { go task() }

type testService struct{}

type echoArgs struct {
	S string
}

type echoResult struct {
	String string
	Int    int
	Args   *echoArgs
}

type testError struct{}

func (testError) Error() string  { return "testError" }
func (testError) ErrorCode() int { return 444 }
func (testError) ErrorData() any { return "testError data" }

func (s *testService) NoArgsRets() {}

func (s *testService) Echo(str string, i int, args *echoArgs) echoResult {
	return echoResult{str, i, args}
}

func (s *testService) EchoWithCtx(ctx context.Context, str string, i int, args *echoArgs) echoResult {
	return echoResult{str, i, args}
}

func (s *testService) Block(ctx context.Context) error {
	<-ctx.Done()
	return errors.New("context canceled in testservice_block")
}

func (s *testService) Rets() (string, error) {
	return "", nil
}

func (s *testService) ReturnError() error {
	return testError{}
}

func (s *testService) Crash() string {
	panic("testservice crash")
}

func (s *testService) CountTo(ctx context.Context, stream *Stream, n int) error {
	for i := 0; i < n; i++ {
		if err := stream.Send(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *testService) StreamError(stream *Stream) error {
	return testError{}
}

func (s *testService) StreamBlock(ctx context.Context, stream *Stream) error {
	<-ctx.Done()
	return ctx.Err()
}
