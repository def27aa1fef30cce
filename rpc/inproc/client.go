package inproc

import (
	"context"

	"github.com/procnet/inproc/common/logging"
	"github.com/procnet/inproc/rpc"
	"github.com/rs/zerolog"
)

// ClientOption configures a Client at Dial time.
type ClientOption func(*Client)

// WithRegistry makes the client resolve through the given registry instead
// of the process-wide default.
func WithRegistry(r *Registry) ClientOption {
	return func(c *Client) { c.registry = r }
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Client is the client-side counterpart of a named in-process server. It
// holds the name, never a server pointer: every call resolves the name
// through the registry, so a server restarted under the same name is picked
// up transparently, and the gap in between surfaces as ErrNotFound.
type Client struct {
	name     string
	registry *Registry
	logger   zerolog.Logger
}

// Dial creates a client for the given name. No resolution happens until the
// first call, mirroring lazy connection establishment of networked clients.
func Dial(name string, opts ...ClientOption) *Client {
	c := &Client{name: name, logger: logging.NewLogger("inproc-client")}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	return c
}

// Name returns the server name the client resolves.
func (c *Client) Name() string { return c.name }

// Call performs a unary call with the background context. A non-nil result
// must be a pointer the response value is stored into.
func (c *Client) Call(result any, method string, args ...any) error {
	return c.CallContext(context.Background(), result, method, args...)
}

// CallContext performs a unary call. Deadline and cancellation of ctx apply
// to the dispatched handler, not to the name resolution, which is immediate.
func (c *Client) CallContext(ctx context.Context, result any, method string, args ...any) error {
	srv, err := c.registry.Lookup(c.name)
	if err != nil {
		return err
	}
	return srv.dispatch(ctx, method, args, result)
}

// StreamContext opens a server-streaming call.
func (c *Client) StreamContext(ctx context.Context, method string, args ...any) (*rpc.ClientStream, error) {
	srv, err := c.registry.Lookup(c.name)
	if err != nil {
		return nil, err
	}
	return srv.openStream(ctx, method, args)
}

// Close exists for symmetry with networked clients; an in-process client
// holds no connection state.
func (c *Client) Close() {}
