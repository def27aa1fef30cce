package inproc

import (
	"github.com/google/uuid"
	"github.com/procnet/inproc/common/logging"
	"github.com/procnet/inproc/rpc"
	"github.com/rs/zerolog"
)

// ServerBuilder assembles the configuration of an in-process server. It is
// single-owner until Build transfers its values into the transport; no
// synchronization is needed or provided.
type ServerBuilder struct {
	name          string
	anonymous     bool
	handlers      *rpc.HandlerRegistry
	executor      rpc.ExecutorChoice
	compressors   *rpc.CompressorRegistry
	decompressors *rpc.DecompressorRegistry
	registry      *Registry
	logger        *zerolog.Logger
}

// ForName creates a builder for a server that clients reach under the given
// name. The name is validated at Build time; every other setting is optional
// and falls back to the framework-wide default.
func ForName(name string) *ServerBuilder {
	return &ServerBuilder{name: name, executor: rpc.UseSharedDefault()}
}

// forAnonymous seeds a builder for the anonymous path. The resulting server
// carries no name and is never published.
func forAnonymous(handlers *rpc.HandlerRegistry) *ServerBuilder {
	return &ServerBuilder{anonymous: true, handlers: handlers, executor: rpc.UseSharedDefault()}
}

// GenerateName returns a new unique server name, for use in tests and for
// servers that only exist to be dialed by their creator.
func GenerateName() string {
	return "inproc-" + uuid.NewString()
}

// HandlerRegistry sets the registry incoming calls are dispatched through.
// Unset, the server starts with a fresh, empty one reachable via Core().
func (b *ServerBuilder) HandlerRegistry(h *rpc.HandlerRegistry) *ServerBuilder {
	b.handlers = h
	return b
}

// Executor makes the server dispatch handlers on a caller-owned executor.
func (b *ServerBuilder) Executor(e rpc.Executor) *ServerBuilder {
	b.executor = rpc.UseExecutor(e)
	return b
}

// DirectExecutor makes the server run handlers synchronously on the calling
// goroutine.
func (b *ServerBuilder) DirectExecutor() *ServerBuilder {
	b.executor = rpc.UseDirect()
	return b
}

func (b *ServerBuilder) CompressorRegistry(r *rpc.CompressorRegistry) *ServerBuilder {
	b.compressors = r
	return b
}

func (b *ServerBuilder) DecompressorRegistry(r *rpc.DecompressorRegistry) *ServerBuilder {
	b.decompressors = r
	return b
}

// Registry sets the name registry the server publishes into; unset means the
// process-wide default.
func (b *ServerBuilder) Registry(r *Registry) *ServerBuilder {
	b.registry = r
	return b
}

func (b *ServerBuilder) Logger(logger zerolog.Logger) *ServerBuilder {
	b.logger = &logger
	return b
}

// UseTransportSecurity always fails: the in-process transport has no channel
// to secure. Rejecting loudly keeps a misconfigured deployment from silently
// running unsecured where a networked transport would have been.
func (b *ServerBuilder) UseTransportSecurity(certFile, keyFile string) error {
	return ErrTransportSecurityUnsupported
}

// Build validates the configuration and constructs the transport in its
// created state. Build neither starts the server nor touches the registry.
func (b *ServerBuilder) Build() (*Server, error) {
	if !b.anonymous && b.name == "" {
		return nil, ErrInvalidName
	}
	var logger zerolog.Logger
	if b.logger != nil {
		logger = *b.logger
	} else {
		logger = logging.NewLogger("inproc")
	}
	if !b.anonymous {
		logger = logger.With().Str(logging.FieldServerName, b.name).Logger()
	}

	core := rpc.NewCore(rpc.CoreConfig{
		Handlers:      b.handlers,
		Executor:      b.executor,
		Compressors:   b.compressors,
		Decompressors: b.decompressors,
	}, logger)

	registry := b.registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Server{name: b.name, registry: registry, core: core, logger: logger}, nil
}
