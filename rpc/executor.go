package rpc

import (
	"runtime"
	"sync"

	"github.com/procnet/inproc/common/check"
)

// Executor schedules handler invocations on behalf of a server core.
type Executor interface {
	Execute(task func())
}

type directExecutor struct{}

func (directExecutor) Execute(task func()) { task() }

// DirectExecutor returns the executor that runs every task synchronously on
// the calling goroutine. Dispatching through it makes a call behave like a
// plain function call, including blocking the caller for its full duration.
func DirectExecutor() Executor { return directExecutor{} }

const sharedQueueSize = 128

// sharedExecutor is the process-wide default pool. It is created lazily and
// lives for the rest of the process; its workers are intentionally never
// stopped.
type sharedExecutor struct {
	tasks chan func()
}

var (
	sharedOnce sync.Once
	shared     *sharedExecutor
)

// SharedExecutor returns the framework-wide default executor, a fixed pool of
// NumCPU workers. When the queue is full the task spills onto a fresh
// goroutine, so Execute never blocks the dispatcher.
func SharedExecutor() Executor {
	sharedOnce.Do(func() {
		shared = &sharedExecutor{tasks: make(chan func(), sharedQueueSize)}
		for i := 0; i < runtime.NumCPU(); i++ {
			go shared.worker()
		}
	})
	return shared
}

func (e *sharedExecutor) worker() {
	for task := range e.tasks {
		task()
	}
}

func (e *sharedExecutor) Execute(task func()) {
	select {
	case e.tasks <- task:
	default:
		go task()
	}
}

type executorKind int

const (
	executorSharedDefault executorKind = iota
	executorDirect
	executorExplicit
)

// ExecutorChoice is a tagged selection of the executor a server dispatches
// on: the shared default pool, the direct executor, or an explicit one. The
// tag keeps the policy observable, so code deriving one server from another
// can reproduce the choice without comparing executor identities.
type ExecutorChoice struct {
	kind     executorKind
	executor Executor
}

// UseSharedDefault selects the process-wide default pool.
func UseSharedDefault() ExecutorChoice { return ExecutorChoice{kind: executorSharedDefault} }

// UseDirect selects synchronous dispatch on the caller's goroutine.
func UseDirect() ExecutorChoice { return ExecutorChoice{kind: executorDirect} }

// UseExecutor selects an explicit, caller-owned executor.
func UseExecutor(e Executor) ExecutorChoice {
	check.PanicIfNotf(e != nil, "nil executor")
	return ExecutorChoice{kind: executorExplicit, executor: e}
}

func (c ExecutorChoice) IsSharedDefault() bool { return c.kind == executorSharedDefault }

func (c ExecutorChoice) IsDirect() bool { return c.kind == executorDirect }

// Explicit returns the explicitly selected executor, if any.
func (c ExecutorChoice) Explicit() (Executor, bool) {
	return c.executor, c.kind == executorExplicit
}

// Resolve yields the executor the choice stands for. The shared default pool
// is only instantiated when a choice actually resolves to it.
func (c ExecutorChoice) Resolve() Executor {
	switch c.kind {
	case executorDirect:
		return DirectExecutor()
	case executorExplicit:
		return c.executor
	default:
		return SharedExecutor()
	}
}
