package core

import "context"

// Task is the unit of work executed by a worker's spawned fiber (goroutine).
type Task func(ctx context.Context)

// =============================================================================
// TaskPriority / Settings: per-capsule scheduling hints
// =============================================================================

// TaskPriority is an opaque scheduling hint embedded in Settings. The pool
// itself never reorders work by priority; it is left for the caller (or an
// optional PriorityTaskQueue, see priority_queue.go) to interpret.
type TaskPriority int

const (
	TaskPriorityBestEffort TaskPriority = iota
	TaskPriorityUserVisible
	TaskPriorityUserBlocking
)

// Settings mirrors the capsule's settings block: stack size hint, priority,
// and a scheduling group label. None of these are interpreted by the plain
// FIFO TaskQueue; they exist so callers can embed scheduling intent without
// the pool needing to expose a richer API (Non-goal: priority scheduling
// beyond what the user embeds in settings).
type Settings struct {
	StackSizeHint   int
	Priority        TaskPriority
	SchedulingGroup string
}

// DefaultSettings returns the zero-initialised settings block used as the
// default when a caller doesn't specify one.
func DefaultSettings() Settings {
	return Settings{}
}

// =============================================================================
// Isolated: the weak-isolation compile-time constraint
// =============================================================================

// Isolated marks a type as safe to transfer across worker (goroutine/thread)
// boundaries without further synchronization: the type must carry no
// unsynchronised mutable reference into the caller's thread-local state.
// Owned values, deep-immutable types, and types built atop sync/atomic or
// channels should implement it; a bare pointer to caller-local mutable state
// should not.
//
// This is the Go rendition of the source language's compile-time trait
// check: there is no way to inspect a type's internal aliasing in Go, so the
// constraint is enforced the same way any Go API enforces a capability —by
// requiring an explicit implementation of the marker interface. A type that
// does not implement Isolated simply cannot be named as the type parameter
// of Capture, which fails the build with a diagnostic naming the type.
type Isolated interface {
	isolatedTaskArgument()
}

// Capture is the single choke point at which an argument crosses the
// isolation boundary into a capsule. It exists to give every submission
// call site a visible, grep-able marker of "this value is being handed to
// another worker," and to be the one place the Isolated bound is checked.
//
//	Capture(sharedCounter) // sharedCounter must implement Isolated
func Capture[T Isolated](v T) T {
	return v
}

// Owned wraps a plain value (e.g. an int, a struct of only value fields) as
// Isolated. It is the common case: most capsule arguments are either fresh
// copies or reference-counted/atomic handles, never raw aliases into the
// submitter's stack.
type Owned[T any] struct {
	Value T
}

func (Owned[T]) isolatedTaskArgument() {}

// NewOwned captures v by value, documenting at the call site that the value
// is being duplicated rather than shared.
func NewOwned[T any](v T) Owned[T] {
	return Owned[T]{Value: v}
}

// =============================================================================
// current-worker context helper
// =============================================================================

type currentWorkerKeyType struct{}

var currentWorkerKey currentWorkerKeyType

// currentWorker returns the WorkerThread a Task is executing on, or nil if
// the calling goroutine is not running inside a pool-spawned fiber. Used to
// name the executing worker in RunH/RunDistH handles and in execution
// history records.
func currentWorker(ctx context.Context) *WorkerThread {
	if v := ctx.Value(currentWorkerKey); v != nil {
		return v.(*WorkerThread)
	}
	return nil
}

func withCurrentWorker(ctx context.Context, w *WorkerThread) context.Context {
	return context.WithValue(ctx, currentWorkerKey, w)
}
