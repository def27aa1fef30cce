package concurrent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Func = func(context.Context) error

// Run calls each given function in a separate goroutine and waits for all of
// them to finish, returning the first error encountered. The context passed
// to the functions is canceled as soon as one of them fails; the functions
// must be able to handle context cancellation.
func Run(ctx context.Context, fs ...Func) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, f := range fs {
		f := f
		g.Go(func() error {
			return f(gCtx)
		})
	}
	return g.Wait()
}

// RunWithTimeout behaves like Run but additionally bounds the whole group by
// the given timeout. A non-positive timeout is ignored.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fs ...Func) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return Run(ctx, fs...)
}
