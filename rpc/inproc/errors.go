package inproc

import "errors"

var (
	// ErrNotFound is reported when a lookup names no currently bound server.
	// A server whose shutdown has begun is reported the same way; the binding
	// is removed before the server drains.
	ErrNotFound = errors.New("no in-process server bound under this name")

	// ErrAlreadyBound is reported by Start when the name currently maps to
	// another running server. It is never resolved by queuing or retrying.
	ErrAlreadyBound = errors.New("name already bound to a running in-process server")

	// ErrTransportSecurityUnsupported is reported whenever transport security
	// is requested. The in-process transport has no channel to secure; this
	// is a permanent capability gap, not a missing feature.
	ErrTransportSecurityUnsupported = errors.New("transport security is not supported by the in-process transport")

	// ErrInvalidName rejects building a named server with an empty name.
	ErrInvalidName = errors.New("in-process server name must not be empty")

	// ErrAlreadyStarted is reported by Start on a server that is running.
	ErrAlreadyStarted = errors.New("in-process server already started")

	// ErrShutDown is reported by Start on a server that was shut down; the
	// shut-down state is terminal.
	ErrShutDown = errors.New("in-process server has been shut down")
)
