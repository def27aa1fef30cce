package inproc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/procnet/inproc/common/logging"
	"github.com/rs/zerolog"
)

// Registry is a table of currently bound in-process servers, the in-process
// stand-in for the network's rendezvous role: servers publish a name here and
// clients resolve it to a live server. All operations are safe under
// arbitrary concurrent callers and atomic with respect to each other.
type Registry struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	bound map[string]*Server
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger, bound: make(map[string]*Server)}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry used when a builder or
// client was not given an explicit one. Tests should inject a fresh Registry
// instead, so bindings cannot leak between test cases.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(logging.NewLogger("inproc"))
	})
	return defaultRegistry
}

// register inserts the name→server binding. The check and the insert happen
// in one critical section, so concurrent starts under the same name cannot
// both win.
func (r *Registry) register(name string, srv *Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bound[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyBound, name)
	}
	r.bound[name] = srv
	r.logger.Debug().Str(logging.FieldServerName, name).Msg("Bound in-process server")
	return nil
}

// Lookup resolves a name to the currently bound server or fails with
// ErrNotFound. It never blocks on a registration in progress: it observes
// either the prior binding or the new one. A draining server is
// indistinguishable from an absent one; its binding is gone the moment
// shutdown begins.
func (r *Registry) Lookup(name string) (*Server, error) {
	r.mu.RLock()
	srv, ok := r.bound[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return srv, nil
}

// unregister removes the binding only while it still points at srv, so a
// stale shutdown cannot evict a newer server that reused the name. It is
// idempotent when the binding is already gone.
func (r *Registry) unregister(name string, srv *Server) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.bound[name]; ok && cur == srv {
		delete(r.bound, name)
		r.logger.Debug().Str(logging.FieldServerName, name).Msg("Released in-process server name")
	}
}

// Names returns the currently bound names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bound))
	for name := range r.bound {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
