package rpc

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The shared pool's workers are process-lifetime by design.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/procnet/inproc/rpc.(*sharedExecutor).worker"))
}
