package rpc

import (
	"errors"
	"fmt"
)

const (
	defaultErrorCode     = -32000
	methodNotFoundCode   = -32601
	invalidParamsCode    = -32602
	internalErrorCode    = -32603
	invalidRequestCode   = -32600
	serverShutdownErrMsg = "server is shutting down or stopped"
)

// Error is an RPC error carrying a numeric code in addition to the message.
type Error interface {
	error
	ErrorCode() int
}

// DataError carries a structured payload in addition to the message.
type DataError interface {
	error
	ErrorData() any
}

// ErrServerStopped is reported when a call reaches a core that is not
// running, either because it was never started or because shutdown began.
var ErrServerStopped = errors.New(serverShutdownErrMsg)

// ErrStreamClosed is reported by Stream.Send after the stream was closed by
// the client, the handler, or server shutdown.
var ErrStreamClosed = errors.New("stream closed")

type methodNotFoundError struct{ method string }

func (e *methodNotFoundError) ErrorCode() int { return methodNotFoundCode }

func (e *methodNotFoundError) Error() string {
	return fmt.Sprintf("the method %s does not exist/is not available", e.method)
}

type invalidParamsError struct{ message string }

func (e *invalidParamsError) ErrorCode() int { return invalidParamsCode }

func (e *invalidParamsError) Error() string { return e.message }

type invalidRequestError struct{ message string }

func (e *invalidRequestError) ErrorCode() int { return invalidRequestCode }

func (e *invalidRequestError) Error() string { return e.message }

// internalError wraps a handler panic so a broken handler cannot take the
// calling goroutine down with it.
type internalError struct {
	method string
	reason any
}

func (e *internalError) ErrorCode() int { return internalErrorCode }

func (e *internalError) Error() string {
	return fmt.Sprintf("method %s crashed: %v", e.method, e.reason)
}
