package rpc

import (
	"context"
	"io"
	"sync"
)

// Stream is the server side of a server-streaming call. The handler sends
// messages through it; its return closes the stream, propagating a non-nil
// error to the client and io.EOF otherwise.
type Stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan any

	closeOnce sync.Once
	closed    chan struct{}
	err       error // set once, before closed is closed
}

func newStream(ctx context.Context, cancel context.CancelFunc, buffer int) *Stream {
	return &Stream{ctx: ctx, cancel: cancel, ch: make(chan any, buffer), closed: make(chan struct{})}
}

// Context returns the call context. It is canceled when the client goes away
// or the server stops, so long-running handlers must watch it.
func (st *Stream) Context() context.Context { return st.ctx }

// Send delivers one message to the client. It blocks while the client is not
// ready and fails once the call is canceled or the server is stopping.
func (st *Stream) Send(v any) error {
	select {
	case <-st.closed:
		return ErrStreamClosed
	case <-st.ctx.Done():
		return st.ctx.Err()
	case st.ch <- v:
		return nil
	}
}

// close seals the stream with the given reason and cancels the call context
// so a handler ignoring the stream still gets unblocked.
func (st *Stream) close(err error) {
	st.closeOnce.Do(func() {
		st.err = err
		close(st.closed)
		st.cancel()
	})
}

// ClientStream is the receiving end of a server-streaming call.
type ClientStream struct {
	st *Stream
}

// Recv returns the next message. After the handler returns it yields the
// handler's error, or io.EOF on a clean end of stream. Messages sent before
// the stream closed are still delivered, in order.
func (cs *ClientStream) Recv() (any, error) {
	select {
	case v := <-cs.st.ch:
		return v, nil
	default:
	}
	select {
	case v := <-cs.st.ch:
		return v, nil
	case <-cs.st.closed:
		return cs.recvClosed()
	case <-cs.st.ctx.Done():
		// The context is also canceled as part of closing; prefer the close
		// reason when both are observable.
		select {
		case <-cs.st.closed:
			return cs.recvClosed()
		default:
			return nil, cs.st.ctx.Err()
		}
	}
}

func (cs *ClientStream) recvClosed() (any, error) {
	// Drain what the handler managed to buffer before closing.
	select {
	case v := <-cs.st.ch:
		return v, nil
	default:
	}
	if cs.st.err != nil {
		return nil, cs.st.err
	}
	return nil, io.EOF
}

// Close abandons the stream. The handler observes it as context cancellation
// and its own return then seals the stream. Close is idempotent and safe to
// call concurrently with Recv.
func (cs *ClientStream) Close() {
	cs.st.cancel()
}
