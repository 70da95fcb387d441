package core

import (
	"fmt"
	"runtime/debug"
	"time"
)

// osExit is indirected so tests can observe a fatal drain-loop failure
// without actually killing the test binary.
var osExit = defaultOSExit

// WorkerThread is one OS-thread-equivalent owned by the pool: a single
// long-lived goroutine running the drain loop below, plus one private
// TaskQueue only this worker ever consumes from.
type WorkerThread struct {
	pool    *TaskPool
	index   int
	name    string
	private TaskQueue
	done    chan struct{}
}

func newWorkerThread(pool *TaskPool, index int, name string, queue TaskQueue) *WorkerThread {
	return &WorkerThread{
		pool:    pool,
		index:   index,
		name:    name,
		private: queue,
		done:    make(chan struct{}),
	}
}

// Name returns the worker's stable "pool-<i>" style name.
func (w *WorkerThread) Name() string { return w.name }

// Index returns the worker's stable 0..N-1 index, used by RunDist's
// per-worker factory to identify which worker a capsule is destined for.
func (w *WorkerThread) Index() int { return w.index }

// Stats snapshots this worker's private queue depth and, if the pool's
// execution history still retains one, the most recently completed task
// attributed to this worker by name.
func (w *WorkerThread) Stats() WorkerStats {
	w.pool.mu.Lock()
	pending := w.private.Len()
	w.pool.mu.Unlock()

	stats := WorkerStats{Name: w.name, Pending: pending}
	for _, rec := range w.pool.history.Recent(defaultTaskHistoryCapacity) {
		if rec.WorkerName == w.name {
			stats.LastTaskName = rec.Name
			stats.LastTaskAt = rec.FinishedAt
			break
		}
	}
	return stats
}

// run is the worker's main drain loop. It owns no state other than what is
// reachable through pool and private, and never executes user
// code inline — every dequeued capsule is handed to its own goroutine (the
// fiber rendition) so the loop is always free to dequeue the next capsule.
//
// An uncaught panic escaping the loop itself (as opposed to inside a user
// capsule, which is recovered per-invocation in invoke) is fatal: queue
// invariants can no longer be trusted once the loop that serializes access
// to them has come apart mid-operation.
func (w *WorkerThread) run() {
	defer w.pool.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.pool.logger.Error("fatal: worker drain loop panicked",
				WorkerField(w.name),
				F("panic", fmt.Sprintf("%v", r)),
				F("stack", string(debug.Stack())),
			)
			osExit(1)
		}
	}()

	last := w.pool.signal.EmitCount()
	for {
		w.pool.mu.Lock()
		if w.pool.terminating {
			w.pool.mu.Unlock()
			break
		}

		c, ok := w.private.Pop()
		if !ok {
			c, ok = w.pool.shared.Pop()
		}
		w.pool.mu.Unlock()

		if ok {
			w.pool.wg.Add(1)
			go w.invoke(c)
		} else {
			last = w.pool.signal.Wait(last)
		}
	}

	w.pool.mu.Lock()
	w.pool.removeWorkerLocked(w)
	privLen := w.private.Len()
	sharedLen := w.pool.shared.Len()
	w.pool.mu.Unlock()

	if privLen > 0 {
		w.pool.logger.Warn("worker exiting with non-empty private queue",
			WorkerField(w.name), F("depth", privLen))
	}
	if sharedLen > 0 {
		w.pool.logger.Warn("worker exiting while shared queue is non-empty",
			WorkerField(w.name), F("depth", sharedLen))
	}
	close(w.done)
}

// invoke runs one capsule inside its own goroutine (the "spawn a fiber"
// step) so the drain loop never blocks on task completion. A panic here is
// confined to this goroutine: it is recovered, reported
// through the pool's PanicHandler and Metrics, and never reaches the drain
// loop.
func (w *WorkerThread) invoke(c *capsule) {
	defer w.pool.wg.Done()
	ctx := withCurrentWorker(w.pool.ctx, w)
	defer func() {
		if r := recover(); r != nil {
			w.pool.panicHandler.HandlePanic(ctx, w.name, r, debug.Stack())
			w.pool.metrics.RecordTaskPanic(w.name, r)
		}
	}()

	start := time.Now()
	c.invoke(ctx)
	duration := time.Since(start)
	w.pool.metrics.RecordTaskDuration(w.name, c.settings.Priority, duration)
	w.pool.logger.Debug("capsule invocation completed",
		WorkerField(w.name), PriorityField(c.settings.Priority), F("duration", duration))
}
