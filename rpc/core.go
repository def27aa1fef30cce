package rpc

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/procnet/inproc/common/logging"
	"github.com/rs/zerolog"
)

const defaultStreamBuffer = 16

const (
	coreCreated int32 = iota
	coreRunning
	coreStopped
)

// CoreConfig carries the pieces a core is assembled from. Zero fields fall
// back to the framework-wide defaults.
type CoreConfig struct {
	Handlers      *HandlerRegistry
	Executor      ExecutorChoice
	Compressors   *CompressorRegistry
	Decompressors *DecompressorRegistry

	// StreamBuffer is the per-stream message buffer; 0 means the default.
	StreamBuffer int
}

// Core is the call-dispatch engine behind an in-process transport. It owns
// the handler registry, the executor the handlers run on, and the set of
// active streams. Transports delegate every call to their core; the core is
// what a name resolves to, indirectly, on the client side.
type Core struct {
	handlers      *HandlerRegistry
	choice        ExecutorChoice
	executor      Executor
	compressors   *CompressorRegistry
	decompressors *DecompressorRegistry
	streamBuffer  int
	logger        zerolog.Logger

	stateMu sync.RWMutex
	state   int32
	callWG  sync.WaitGroup
	streams mapset.Set // of *Stream
}

// NewCore builds a core in its created state. Start must be called before it
// dispatches anything.
func NewCore(cfg CoreConfig, logger zerolog.Logger) *Core {
	handlers := cfg.Handlers
	if handlers == nil {
		handlers = NewHandlerRegistry(logger)
	}
	compressors := cfg.Compressors
	if compressors == nil {
		compressors = DefaultCompressorRegistry()
	}
	decompressors := cfg.Decompressors
	if decompressors == nil {
		decompressors = DefaultDecompressorRegistry()
	}
	streamBuffer := cfg.StreamBuffer
	if streamBuffer <= 0 {
		streamBuffer = defaultStreamBuffer
	}
	return &Core{
		handlers:      handlers,
		choice:        cfg.Executor,
		executor:      cfg.Executor.Resolve(),
		compressors:   compressors,
		decompressors: decompressors,
		streamBuffer:  streamBuffer,
		logger:        logger,
		streams:       mapset.NewSet(),
	}
}

// NewDefaultCore is a convenience for a core with fresh handlers and all
// defaults.
func NewDefaultCore() *Core {
	return NewCore(CoreConfig{}, logging.NewLogger("rpc"))
}

// Handlers returns the handler registry the core dispatches into.
func (c *Core) Handlers() *HandlerRegistry { return c.handlers }

// ExecutorChoice returns the executor selection the core was built with.
func (c *Core) ExecutorChoice() ExecutorChoice { return c.choice }

func (c *Core) Compressors() *CompressorRegistry { return c.compressors }

func (c *Core) Decompressors() *DecompressorRegistry { return c.decompressors }

// Running reports whether the core currently accepts calls.
func (c *Core) Running() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state == coreRunning
}

// Start makes the core accept calls. It fails if the core was already
// started or stopped; a stopped core cannot be restarted.
func (c *Core) Start() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state != coreCreated {
		return errors.New("core already started or stopped")
	}
	c.state = coreRunning
	return nil
}

// Stop stops accepting new calls, closes all active streams and waits for
// in-flight calls to drain. It is idempotent; stopping a never-started core
// just makes it permanently unusable.
func (c *Core) Stop() {
	c.stateMu.Lock()
	wasRunning := c.state == coreRunning
	c.state = coreStopped
	c.stateMu.Unlock()
	if !wasRunning {
		return
	}
	c.logger.Info().Msg("RPC core shutting down")
	for _, v := range c.streams.ToSlice() {
		if st, ok := v.(*Stream); ok {
			st.close(ErrServerStopped)
		}
	}
	c.callWG.Wait()
}

// admit reserves a drain slot for a call. The state check and the WaitGroup
// add happen under the same lock Stop flips the state under, so Stop cannot
// start waiting between the two.
func (c *Core) admit() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.state != coreRunning {
		return false
	}
	c.callWG.Add(1)
	return true
}

type callResult struct {
	v   any
	err error
}

// Dispatch performs a unary call: it resolves the method, schedules the
// handler on the executor and waits for the result or for ctx. The handler
// keeps running (and is drained on Stop) even when the caller gives up.
func (c *Core) Dispatch(ctx context.Context, method string, args []any, result any) error {
	if !c.admit() {
		return ErrServerStopped
	}
	cb := c.handlers.callback(method)
	if cb == nil {
		c.callWG.Done()
		return &methodNotFoundError{method}
	}
	if cb.isStream {
		c.callWG.Done()
		return &invalidRequestError{fmt.Sprintf("%s is a streaming method, use a stream call", method)}
	}

	start := time.Now()
	done := make(chan callResult, 1)
	c.executor.Execute(func() {
		defer c.callWG.Done()
		v, err := cb.call(ctx, method, args, nil, c.logger)
		done <- callResult{v, err}
	})

	select {
	case <-ctx.Done():
		// Prefer a result that is already in; the call did complete.
		select {
		case r := <-done:
			if r.err != nil {
				return r.err
			}
			return assignResult(r.v, result)
		default:
			return ctx.Err()
		}
	case r := <-done:
		c.logger.Trace().
			Str(logging.FieldRpcMethod, method).
			Interface(logging.FieldRpcParams, args).
			Dur(logging.FieldDuration, time.Since(start)).
			Msg("Served RPC call")
		if r.err != nil {
			return r.err
		}
		return assignResult(r.v, result)
	}
}

// OpenStream starts a server-streaming call and returns its receiving end.
// The handler is scheduled on the executor but never runs on the caller's
// goroutine: the caller has to be free to Recv while the handler sends, so a
// synchronous executor is handed the task from a goroutine of its own. When
// the handler returns, the stream closes with its error, or cleanly.
func (c *Core) OpenStream(ctx context.Context, method string, args []any) (*ClientStream, error) {
	if !c.admit() {
		return nil, ErrServerStopped
	}
	cb := c.handlers.callback(method)
	if cb == nil {
		c.callWG.Done()
		return nil, &methodNotFoundError{method}
	}
	if !cb.isStream {
		c.callWG.Done()
		return nil, &invalidRequestError{fmt.Sprintf("%s is not a streaming method", method)}
	}

	ctx, cancel := context.WithCancel(ctx)
	st := newStream(ctx, cancel, c.streamBuffer)
	c.streams.Add(st)
	if !c.Running() {
		// Stop may have snapshotted the stream set before the Add.
		st.close(ErrServerStopped)
	}
	go c.executor.Execute(func() {
		defer c.callWG.Done()
		defer c.streams.Remove(st)
		_, err := cb.call(ctx, method, args, st, c.logger)
		st.close(err)
	})
	return &ClientStream{st: st}, nil
}

// assignResult stores the handler's return value into the caller's result
// pointer, standing in for response decoding.
func assignResult(v, result any) error {
	if result == nil {
		return nil
	}
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("call result parameter must be a non-nil pointer")
	}
	elem := rv.Elem()
	if v == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	vv := reflect.ValueOf(v)
	switch {
	case vv.Type().AssignableTo(elem.Type()):
		elem.Set(vv)
	case vv.Type().ConvertibleTo(elem.Type()):
		elem.Set(vv.Convert(elem.Type()))
	default:
		return fmt.Errorf("cannot assign result of type %s to %s", vv.Type(), elem.Type())
	}
	return nil
}
