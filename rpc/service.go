package rpc

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
)

// serviceNameSeparator joins a service namespace and a method name into the
// full RPC method name, e.g. "clock_now".
const serviceNameSeparator = "_"

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	streamType  = reflect.TypeOf((*Stream)(nil))
)

// HandlerRegistry maps method names to the callbacks dispatching them. It is
// safe for concurrent use; registration and lookup may interleave freely.
type HandlerRegistry struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	services map[string]service
}

type service struct {
	name      string
	callbacks map[string]*callback
}

// callback is a registered method on a receiver.
type callback struct {
	fn       reflect.Value
	rcvr     reflect.Value
	argTypes []reflect.Type
	hasCtx   bool
	isStream bool
	errPos   int // position of the error return, or -1
	retPos   int // position of the value return, or -1
}

func NewHandlerRegistry(logger zerolog.Logger) *HandlerRegistry {
	return &HandlerRegistry{logger: logger, services: make(map[string]service)}
}

// RegisterName exposes every suitable exported method of receiver under the
// given namespace. A suitable method optionally takes a context.Context
// first, may take a *Stream next (making it server-streaming), and returns at
// most one value plus an optional trailing error. An error is returned when
// the receiver has no suitable methods.
func (r *HandlerRegistry) RegisterName(name string, receiver any) error {
	rcvrVal := reflect.ValueOf(receiver)
	if name == "" {
		return fmt.Errorf("no service name for type %s", rcvrVal.Type())
	}
	callbacks := suitableCallbacks(rcvrVal)
	if len(callbacks) == 0 {
		return fmt.Errorf("service %q doesn't have any suitable methods to expose", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[name]
	if !ok {
		svc = service{name: name, callbacks: make(map[string]*callback)}
		r.services[name] = svc
	}
	for mname, cb := range callbacks {
		svc.callbacks[mname] = cb
		r.logger.Trace().Str("method", name+serviceNameSeparator+mname).Msg("Registered RPC method")
	}
	return nil
}

// callback returns the handler for a full method name, or nil.
func (r *HandlerRegistry) callback(method string) *callback {
	before, after, found := strings.Cut(method, serviceNameSeparator)
	if !found {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[before].callbacks[after]
}

// Services returns the registered namespaces, sorted.
func (r *HandlerRegistry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// call invokes the callback with the given arguments. A panic in the handler
// is recovered into an internal error so a broken handler cannot kill the
// executor goroutine.
func (cb *callback) call(ctx context.Context, method string, args []any, stream *Stream, logger zerolog.Logger) (res any, errRes error) {
	if len(args) != len(cb.argTypes) {
		return nil, &invalidParamsError{fmt.Sprintf(
			"%s expects %d arguments, got %d", method, len(cb.argTypes), len(args))}
	}

	fullargs := make([]reflect.Value, 0, 3+len(args))
	fullargs = append(fullargs, cb.rcvr)
	if cb.hasCtx {
		fullargs = append(fullargs, reflect.ValueOf(ctx))
	}
	if cb.isStream {
		fullargs = append(fullargs, reflect.ValueOf(stream))
	}
	for i, arg := range args {
		av, err := conformArg(arg, cb.argTypes[i], method, i)
		if err != nil {
			return nil, err
		}
		fullargs = append(fullargs, av)
	}

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 2048)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Error().Str("method", method).Msgf("RPC method crashed: %v\n%s", r, buf)
			res, errRes = nil, &internalError{method: method, reason: r}
		}
	}()
	results := cb.fn.Call(fullargs)

	if cb.errPos >= 0 && !results[cb.errPos].IsNil() {
		return nil, results[cb.errPos].Interface().(error)
	}
	if cb.retPos >= 0 {
		return results[cb.retPos].Interface(), nil
	}
	return nil, nil
}

// conformArg coerces a caller-supplied argument to the declared parameter
// type. There is no wire codec to do it, so assignability and convertibility
// stand in for deserialization.
func conformArg(arg any, want reflect.Type, method string, pos int) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return reflect.Zero(want), nil
		default:
			return reflect.Value{}, &invalidParamsError{fmt.Sprintf(
				"%s: nil is not a valid value for argument %d (%s)", method, pos, want)}
		}
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(want) {
		return av, nil
	}
	if av.Type().ConvertibleTo(want) {
		return av.Convert(want), nil
	}
	return reflect.Value{}, &invalidParamsError{fmt.Sprintf(
		"%s: argument %d has type %s, want %s", method, pos, av.Type(), want)}
}

func isErrorType(t reflect.Type) bool {
	return t.Implements(errorType)
}

// formatName lowers the first rune, so method Now registers as "now".
func formatName(name string) string {
	ret := []rune(name)
	if len(ret) > 0 {
		ret[0] = unicode.ToLower(ret[0])
	}
	return string(ret)
}

// suitableCallbacks collects the exported methods of rcvr that satisfy the
// callback criteria; unsuitable methods are silently skipped.
func suitableCallbacks(rcvr reflect.Value) map[string]*callback {
	typ := rcvr.Type()
	callbacks := make(map[string]*callback)

METHODS:
	for m := 0; m < typ.NumMethod(); m++ {
		method := typ.Method(m)
		if method.PkgPath != "" { // not exported
			continue
		}
		mtype := method.Type

		cb := &callback{fn: method.Func, rcvr: rcvr, errPos: -1, retPos: -1}

		firstArg := 1 // skip the receiver
		numIn := mtype.NumIn()
		if firstArg < numIn && mtype.In(firstArg) == contextType {
			cb.hasCtx = true
			firstArg++
		}
		if firstArg < numIn && mtype.In(firstArg) == streamType {
			cb.isStream = true
			firstArg++
		}

		// Parameter and result types may be unexported: values pass through
		// by reference and no codec ever needs to marshal them.
		cb.argTypes = make([]reflect.Type, 0, numIn-firstArg)
		for i := firstArg; i < numIn; i++ {
			cb.argTypes = append(cb.argTypes, mtype.In(i))
		}

		numOut := mtype.NumOut()
		if numOut > 2 {
			continue METHODS
		}
		if numOut >= 1 {
			if isErrorType(mtype.Out(numOut - 1)) {
				cb.errPos = numOut - 1
			} else if numOut == 2 {
				continue METHODS // error must be the last return
			}
		}
		if numOut >= 1 && cb.errPos != 0 {
			cb.retPos = 0
		}
		// Streaming handlers deliver values through the stream, not returns.
		if cb.isStream && cb.retPos >= 0 {
			continue METHODS
		}

		callbacks[formatName(method.Name)] = cb
	}
	return callbacks
}
