package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution.
//
// Implementations should be thread-safe as they may be called concurrently,
// from any worker goroutine.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// - ctx: the context the panicked task was running in.
	// - workerName: the name ("pool-<i>") of the worker the panic occurred on.
	// - panicInfo: the panic value recovered from the task.
	// - stackTrace: the stack trace captured at the time of panic.
	HandlePanic(ctx context.Context, workerName string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs the panic through a Logger (see zap_logger.go).
type DefaultPanicHandler struct {
	Logger Logger
}

func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, workerName string, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}
	logger.Error("task panic",
		WorkerField(workerName),
		F("panic", fmt.Sprintf("%v", panicInfo)),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting task execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, etc.).
// All methods should be non-blocking and fast; they run on the hot path.
type Metrics interface {
	// RecordTaskDuration records how long a capsule's invocation took.
	RecordTaskDuration(workerName string, priority TaskPriority, duration time.Duration)

	// RecordTaskPanic records that a capsule's invocation panicked.
	RecordTaskPanic(workerName string, panicInfo any)

	// RecordQueueDepth records the current depth of a queue: either the
	// pool's shared queue (queueName == SharedQueueName) or one worker's
	// private queue (queueName == that worker's name).
	RecordQueueDepth(queueName string, depth int)

	// RecordTaskRejected records that a submission was rejected, e.g.
	// because the pool is terminating.
	RecordTaskRejected(reason string)
}

// NilMetrics is the default no-op Metrics implementation.
type NilMetrics struct{}

func (NilMetrics) RecordTaskDuration(workerName string, priority TaskPriority, duration time.Duration) {
}
func (NilMetrics) RecordTaskPanic(workerName string, panicInfo any)  {}
func (NilMetrics) RecordQueueDepth(queueName string, depth int)      {}
func (NilMetrics) RecordTaskRejected(reason string)                  {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected submissions
// =============================================================================

// RejectedTaskHandler is called when a submission is rejected, e.g. because
// the pool has begun terminating.
type RejectedTaskHandler interface {
	HandleRejectedTask(reason string)
}

// DefaultRejectedTaskHandler logs rejections through a Logger.
type DefaultRejectedTaskHandler struct {
	Logger Logger
}

func (h *DefaultRejectedTaskHandler) HandleRejectedTask(reason string) {
	logger := h.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}
	logger.Warn("task rejected", F("reason", reason))
}

// =============================================================================
// PoolConfig: configuration for TaskPool, mirroring the teacher's
// TaskSchedulerConfig/DefaultTaskSchedulerConfig pattern.
// =============================================================================

// PoolConfig holds configuration options for TaskPool. All fields are
// optional; defaultPoolConfig supplies working defaults for every one.
//
// Worker count is deliberately not a PoolConfig field: New(n, opts...) and
// NewDefault(opts...) already take it as an explicit, un-overridable
// parameter, so a WithThreadCount option would either be silently ignored
// or create two conflicting sources of truth for the same setting.
type PoolConfig struct {
	// ThreadNamePrefix names workers "<prefix>-<i>" instead of "pool-<i>".
	ThreadNamePrefix string

	Logger              Logger
	PanicHandler        PanicHandler
	Metrics             Metrics
	RejectedTaskHandler RejectedTaskHandler

	// QueueFactory constructs the shared queue and every private queue.
	// Defaults to NewFIFOQueue; pass func() TaskQueue { return NewPriorityTaskQueue() }
	// to opt into priority-ordered delivery.
	QueueFactory func() TaskQueue
}

// Option mutates a PoolConfig being built up by New.
type Option func(*PoolConfig)

func WithThreadNamePrefix(prefix string) Option {
	return func(c *PoolConfig) { c.ThreadNamePrefix = prefix }
}

func WithLogger(l Logger) Option {
	return func(c *PoolConfig) { c.Logger = l }
}

func WithPanicHandler(h PanicHandler) Option {
	return func(c *PoolConfig) { c.PanicHandler = h }
}

func WithMetrics(m Metrics) Option {
	return func(c *PoolConfig) { c.Metrics = m }
}

func WithRejectedTaskHandler(h RejectedTaskHandler) Option {
	return func(c *PoolConfig) { c.RejectedTaskHandler = h }
}

func WithQueueFactory(f func() TaskQueue) Option {
	return func(c *PoolConfig) { c.QueueFactory = f }
}

// defaultPoolConfig returns a config with every default handler filled in.
// Unexported: callers build a config via New(threadCount, opts...), not by
// constructing PoolConfig directly, matching the teacher's DefaultTaskSchedulerConfig
// entry point shape but adapted so pool construction stays one call.
func defaultPoolConfig() *PoolConfig {
	logger := NewNoOpLogger()
	return &PoolConfig{
		ThreadNamePrefix:    "pool",
		Logger:              logger,
		PanicHandler:        &DefaultPanicHandler{Logger: logger},
		Metrics:             NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{Logger: logger},
		QueueFactory:        func() TaskQueue { return NewFIFOQueue() },
	}
}
