package inproc

import (
	"context"
	"fmt"
	"sync"

	"github.com/procnet/inproc/rpc"
	"github.com/rs/zerolog"
)

// State of an in-process transport. The progression is strictly
// created → started → shut down; shut down is terminal.
type State int32

const (
	StateCreated State = iota
	StateStarted
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateShutDown:
		return "shut down"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Server is an in-process transport wrapping a call-dispatch core. A named
// server is published in its registry while started; an anonymous one never
// is and can only be reached through the handle returned by its creator.
type Server struct {
	name     string // empty for anonymous servers
	registry *Registry
	core     *rpc.Core
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// Name returns the published name, or "" for an anonymous server.
func (s *Server) Name() string { return s.name }

// Anonymous reports whether the server has no published name.
func (s *Server) Anonymous() bool { return s.name == "" }

// Core returns the dispatch core, e.g. to register further handlers before
// Start.
func (s *Server) Core() *rpc.Core { return s.core }

func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start brings the server up. A named server is published in the registry
// first; on a name collision the server stays in its created state and
// ErrAlreadyBound is returned. Any underlying failure after that point rolls
// the binding back and is wrapped into a single start error.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStarted:
		return ErrAlreadyStarted
	case StateShutDown:
		return ErrShutDown
	}

	if s.name != "" {
		if err := s.registry.register(s.name, s); err != nil {
			return err
		}
	}
	if err := s.core.Start(); err != nil {
		if s.name != "" {
			s.registry.unregister(s.name, s)
		}
		return fmt.Errorf("failed to start in-process server: %w", err)
	}
	s.state = StateStarted
	s.logger.Info().Msg("In-process server started")
	return nil
}

// Shutdown releases the name and drains the core. The binding is removed
// before draining begins, so no new call can resolve to a draining server.
// Shutdown is idempotent; on a never-started server it only seals the state.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.state == StateShutDown {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = StateShutDown
	s.mu.Unlock()

	if s.name != "" {
		s.registry.unregister(s.name, s)
	}
	if prev == StateStarted {
		s.core.Stop()
		s.logger.Info().Msg("In-process server shut down")
	}
}

// dispatch forwards a unary call to the core. Only the client uses it, after
// resolving this server through the registry.
func (s *Server) dispatch(ctx context.Context, method string, args []any, result any) error {
	return s.core.Dispatch(ctx, method, args, result)
}

func (s *Server) openStream(ctx context.Context, method string, args []any) (*rpc.ClientStream, error) {
	return s.core.OpenStream(ctx, method, args)
}
