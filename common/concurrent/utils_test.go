package concurrent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunPropagatesFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := Run(context.Background(),
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	)
	require.ErrorIs(t, err, boom)
}

func TestRunWithTimeout(t *testing.T) {
	t.Parallel()

	err := RunWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
