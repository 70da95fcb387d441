// Package taskpool re-exports the commonly used types and constructors from
// the core package, so most callers need only import this package.
package taskpool

import "github.com/mrtask/taskpool/core"

// Task is the unit of work submitted to a pool.
type Task = core.Task

// Settings carries the per-capsule scheduling hints: stack size, priority,
// and scheduling group.
type Settings = core.Settings

// TaskPriority is the opaque priority hint embedded in Settings.
type TaskPriority = core.TaskPriority

const (
	TaskPriorityBestEffort   TaskPriority = core.TaskPriorityBestEffort
	TaskPriorityUserVisible  TaskPriority = core.TaskPriorityUserVisible
	TaskPriorityUserBlocking TaskPriority = core.TaskPriorityUserBlocking
)

// DefaultSettings returns the zero-initialised Settings block.
var DefaultSettings = core.DefaultSettings

// Isolated marks a type as safe to transfer across worker boundaries. See
// core.Isolated for the full rationale.
type Isolated = core.Isolated

// Owned wraps a plain value as Isolated: Owned[T]{Value: v} is the common
// case for arguments that are either fresh copies or reference-counted/
// atomic handles, never raw aliases into the submitter's stack.
type Owned[T any] = core.Owned[T]

// NewOwned captures v by value as an Owned[T].
func NewOwned[T any](v T) Owned[T] {
	return core.NewOwned(v)
}

// Capture is the single choke point every submission's arguments are
// expected to pass through; it exists to mark, at the call site, which
// values are being handed across worker boundaries.
func Capture[T core.Isolated](v T) T {
	return core.Capture(v)
}

// TaskHandle identifies a running task, returned by RunH/RunDistH once the
// task has begun executing.
type TaskHandle = core.TaskHandle

// TaskID uniquely identifies one capsule invocation.
type TaskID = core.TaskID

// TaskPool is the pool itself; see core.TaskPool for the full API.
type TaskPool = core.TaskPool

// New, NewDefault, and the functional Options are re-exported so callers
// never need to import core directly for ordinary use.
var (
	New        = core.New
	NewDefault = core.NewDefault
)

type Option = core.Option

var (
	WithThreadNamePrefix    = core.WithThreadNamePrefix
	WithLogger              = core.WithLogger
	WithPanicHandler        = core.WithPanicHandler
	WithMetrics             = core.WithMetrics
	WithRejectedTaskHandler = core.WithRejectedTaskHandler
	WithQueueFactory        = core.WithQueueFactory
)

// Logger, Metrics, PanicHandler, RejectedTaskHandler are re-exported for
// callers implementing their own adapters.
type (
	Logger              = core.Logger
	Metrics             = core.Metrics
	PanicHandler        = core.PanicHandler
	RejectedTaskHandler = core.RejectedTaskHandler
)

var (
	NewZapLogger           = core.NewZapLogger
	NewProductionZapLogger = core.NewProductionZapLogger
	NewNoOpLogger          = core.NewNoOpLogger
)

// NewPriorityTaskQueue constructs the priority-ordered TaskQueue variant;
// pass it via WithQueueFactory to opt a pool into priority-ordered
// delivery instead of the default plain FIFO queue.
func NewPriorityTaskQueue() core.TaskQueue {
	return core.NewPriorityTaskQueue()
}

// GetCurrentTaskHandle retrieves the handle of the task currently executing
// in ctx, if any.
var GetCurrentTaskHandle = core.GetCurrentTaskHandle
