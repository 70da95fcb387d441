package core

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

func defaultOSExit(code int) { os.Exit(code) }

// SharedQueueName is the queue name RecordQueueDepth reports for the pool's
// shared queue, distinguishing it from a worker's own name for its private
// queue. Metrics implementations (e.g. the prometheus exporter) key off this
// constant to split shared-queue depth from per-worker private-queue depth.
const SharedQueueName = "shared"

// TaskPool owns the shared monitor-protected state: the ordered worker
// list, the shared queue, and the terminating flag, plus the SharedEvent
// workers wait on when idle. It is the sole entry point for submission
// (Run/RunH/RunDist/RunDistH) and shutdown (Terminate/Join).
type TaskPool struct {
	id string

	mu          sync.Mutex
	workers     []*WorkerThread
	shared      TaskQueue
	terminating bool
	draining    bool

	signal *SharedEvent
	wg     sync.WaitGroup

	requestedThreadCount int
	joinTimeout          time.Duration
	queueFactory         func() TaskQueue

	logger              Logger
	panicHandler        PanicHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler

	history executionHistory

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a TaskPool with threadCount workers. threadCount == 0 is
// permitted and yields an inert pool with no workers. Use NewDefault to
// resolve an unspecified worker count to runtime.GOMAXPROCS(0) instead.
func New(threadCount int, opts ...Option) *TaskPool {
	if threadCount < 0 {
		panic("taskpool: threadCount must be >= 0")
	}

	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &TaskPool{
		id:                   uuid.NewString(),
		shared:               cfg.QueueFactory(),
		signal:               NewSharedEvent(),
		requestedThreadCount: threadCount,
		joinTimeout:          30 * time.Second,
		queueFactory:         cfg.QueueFactory,
		logger:               cfg.Logger,
		panicHandler:         cfg.PanicHandler,
		metrics:              cfg.Metrics,
		rejectedTaskHandler:  cfg.RejectedTaskHandler,
		history:              newExecutionHistory(defaultTaskHistoryCapacity),
		ctx:                  ctx,
		cancel:               cancel,
	}

	prefix := cfg.ThreadNamePrefix
	if prefix == "" {
		prefix = "pool"
	}

	for i := 0; i < threadCount; i++ {
		w := newWorkerThread(p, i, fmt.Sprintf("%s-%d", prefix, i), cfg.QueueFactory())
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go w.run()
	}

	return p
}

// NewDefault resolves an unspecified thread count to runtime.GOMAXPROCS(0),
// which automaxprocs (wired in init.go) has already sized to the process's
// cgroup CPU quota when running under a container.
func NewDefault(opts ...Option) *TaskPool {
	return New(runtime.GOMAXPROCS(0), opts...)
}

// ID returns the pool's generated identifier, useful for correlating log
// lines and metrics across multiple pools in one process.
func (p *TaskPool) ID() string { return p.id }

// ThreadCount returns the initially requested worker count, not the live
// worker count — so callers of RunDist can reason about fan-out width
// before any startup or shutdown races make the live count observable.
func (p *TaskPool) ThreadCount() int { return p.requestedThreadCount }

// Stats snapshots pool-level observability state.
func (p *TaskPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		ID:          p.id,
		Workers:     len(p.workers),
		SharedQueue: p.shared.Len(),
		Terminating: p.terminating,
		Draining:    p.draining,
	}
}

// RecentHistory returns up to limit of the most recently completed capsule
// invocations, most recent first. limit <= 0 returns everything retained.
func (p *TaskPool) RecentHistory(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}

// WorkerSnapshots returns a WorkerStats snapshot for every currently live
// worker, in worker-index order.
func (p *TaskPool) WorkerSnapshots() []WorkerStats {
	p.mu.Lock()
	workers := append([]*WorkerThread(nil), p.workers...)
	p.mu.Unlock()

	out := make([]WorkerStats, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.Stats())
	}
	return out
}

func (p *TaskPool) removeWorkerLocked(target *WorkerThread) {
	for i, w := range p.workers {
		if w == target {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			return
		}
	}
}

// =============================================================================
// Run — plain submission onto the shared queue
// =============================================================================

// Run enqueues task onto the shared queue with default Settings and wakes
// at most one idle worker (EmitSingle — avoids a thundering herd when many
// capsules are submitted one at a time; see RunDist for the broadcast
// case).
func (p *TaskPool) Run(task Task) error {
	return p.RunWithSettings(task, DefaultSettings())
}

// RunWithSettings is Run with an explicit Settings block.
func (p *TaskPool) RunWithSettings(task Task, settings Settings) error {
	observed := wrapObservedTask(task, "", settings, p.history.Add)
	return p.enqueueShared(observed, settings)
}

func (p *TaskPool) enqueueShared(task Task, settings Settings) error {
	p.mu.Lock()
	if p.terminating || p.draining {
		p.mu.Unlock()
		p.rejectedTaskHandler.HandleRejectedTask("pool is terminating")
		p.metrics.RecordTaskRejected("terminating")
		return ErrPoolTerminating
	}
	p.shared.Push(newCapsule(task, settings))
	depth := p.shared.Len()
	p.mu.Unlock()
	p.metrics.RecordQueueDepth(SharedQueueName, depth)
	p.signal.EmitSingle()
	return nil
}

// =============================================================================
// RunH — handle-returning submission
// =============================================================================

// RunH submits task and blocks until it has begun executing on a worker,
// returning a TaskHandle identifying that invocation. Every Task here already
// runs on its own goroutine (spawned per capsule by WorkerThread.invoke), so
// the handshake channel can be received from any calling goroutine — no
// extra fiber spawn is needed just to get somewhere that can receive on it.
func (p *TaskPool) RunH(task Task) (TaskHandle, error) {
	return p.RunHWithSettings(task, DefaultSettings())
}

func (p *TaskPool) RunHWithSettings(task Task, settings Settings) (TaskHandle, error) {
	observed := wrapObservedTask(task, "", settings, p.history.Add)
	ch := make(chan TaskHandle, 1)
	wrapper := func(ctx context.Context) {
		h := handleForContext(ctx)
		ch <- h
		observed(withCurrentTaskHandle(ctx, h))
	}
	if err := p.enqueueShared(wrapper, settings); err != nil {
		return TaskHandle{}, err
	}
	h, ok := <-ch
	if !ok {
		panic(ErrHandleChannelClosed)
	}
	return h, nil
}

func handleForContext(ctx context.Context) TaskHandle {
	name := ""
	if w := currentWorker(ctx); w != nil {
		name = w.Name()
	}
	return TaskHandle{ID: GenerateTaskID(), WorkerName: name}
}

// =============================================================================
// RunDist / RunDistH — fan-out submission
// =============================================================================

// RunDist enqueues exactly ThreadCount() capsules, one onto every worker's
// private queue, each built by calling factory with that worker's stable
// index. A factory rather than one shared closure gives every worker its
// own, independently constructed Task rather than risking an accidental
// alias across workers.
func (p *TaskPool) RunDist(factory func(workerIndex int) Task) error {
	return p.RunDistWithSettings(factory, DefaultSettings())
}

func (p *TaskPool) RunDistWithSettings(factory func(workerIndex int) Task, settings Settings) error {
	p.mu.Lock()
	if p.terminating || p.draining {
		p.mu.Unlock()
		p.rejectedTaskHandler.HandleRejectedTask("pool is terminating")
		p.metrics.RecordTaskRejected("terminating")
		return ErrPoolTerminating
	}
	for _, w := range p.workers {
		observed := wrapObservedTask(factory(w.Index()), "", settings, p.history.Add)
		w.private.Push(newCapsule(observed, settings))
	}
	depths := make(map[string]int, len(p.workers))
	for _, w := range p.workers {
		depths[w.name] = w.private.Len()
	}
	p.mu.Unlock()
	for name, depth := range depths {
		p.metrics.RecordQueueDepth(name, depth)
	}
	p.signal.Emit()
	return nil
}

// RunDistH is RunDist's handle-returning counterpart: onHandle is invoked
// exactly ThreadCount() times, once per worker, each time with the handle
// of that worker's invocation.
func (p *TaskPool) RunDistH(factory func(workerIndex int) Task, onHandle func(TaskHandle)) error {
	return p.RunDistHWithSettings(factory, onHandle, DefaultSettings())
}

func (p *TaskPool) RunDistHWithSettings(factory func(workerIndex int) Task, onHandle func(TaskHandle), settings Settings) error {
	p.mu.Lock()
	if p.terminating || p.draining {
		p.mu.Unlock()
		p.rejectedTaskHandler.HandleRejectedTask("pool is terminating")
		p.metrics.RecordTaskRejected("terminating")
		return ErrPoolTerminating
	}

	n := len(p.workers)
	ch := make(chan TaskHandle, n)
	for _, w := range p.workers {
		observed := wrapObservedTask(factory(w.Index()), "", settings, p.history.Add)
		wrapper := func(ctx context.Context) {
			h := handleForContext(ctx)
			ch <- h
			observed(withCurrentTaskHandle(ctx, h))
		}
		w.private.Push(newCapsule(wrapper, settings))
	}
	depths := make(map[string]int, len(p.workers))
	for _, w := range p.workers {
		depths[w.name] = w.private.Len()
	}
	p.mu.Unlock()
	for name, depth := range depths {
		p.metrics.RecordQueueDepth(name, depth)
	}
	p.signal.Emit()

	for i := 0; i < n; i++ {
		onHandle(<-ch)
	}
	close(ch)
	return nil
}

// =============================================================================
// Terminate — orderly shutdown
// =============================================================================

// Terminate sets the terminating flag, wakes every worker, and joins them
// one at a time. Every capsule runs on its own per-invocation goroutine
// rather than blocking a worker's drain loop, so a Task that itself calls
// Terminate can never be the same goroutine as a drain loop waiting to be
// joined: every worker is joined unconditionally, each bounded by
// joinTimeout so one misbehaving worker cannot hang the whole call.
func (p *TaskPool) Terminate() error {
	p.mu.Lock()
	p.terminating = true
	p.mu.Unlock()
	p.signal.Emit()

	var joinErrs error
	for {
		p.mu.Lock()
		if len(p.workers) == 0 {
			p.mu.Unlock()
			break
		}
		w := p.workers[0]
		p.mu.Unlock()

		select {
		case <-w.done:
		case <-time.After(p.joinTimeout):
			err := fmt.Errorf("taskpool: timed out joining worker %s", w.Name())
			p.logger.Warn("join timed out", WorkerField(w.Name()))
			joinErrs = multierr.Append(joinErrs, err)
			p.mu.Lock()
			p.removeWorkerLocked(w)
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	sharedLen := p.shared.Len()
	p.mu.Unlock()
	if sharedLen > 0 {
		p.logger.Warn("terminate: shared queue non-empty at shutdown", F("depth", sharedLen))
	}

	p.cancel()
	return joinErrs
}

// Join refuses new submissions, drains the shared queue and every private
// queue to exhaustion, then calls Terminate. One barrier capsule is posted
// to the shared queue and to each worker's private queue, and Join waits
// for every barrier to fire. Because an ordinary submission can race in
// behind the initial drain flag flip, the barrier-and-wait step is repeated
// until one pass observes both the shared queue and every private queue
// empty immediately after all of that pass's barriers fire. After Terminate,
// Join also waits for every capsule goroutine already spawned to finish, so
// all queued work has completed when it returns.
func (p *TaskPool) Join(ctx context.Context) error {
	p.mu.Lock()
	p.draining = true
	noWorkers := len(p.workers) == 0
	p.mu.Unlock()

	// An inert (zero-worker) pool can never dequeue a barrier capsule, so
	// there is nothing to drain: go straight to Terminate.
	if noWorkers {
		return p.Terminate()
	}

	for {
		if err := ctx.Err(); err != nil {
			return ErrJoinTimedOut
		}

		if err := p.drainOnePass(ctx); err != nil {
			return err
		}

		p.mu.Lock()
		empty := p.shared.IsEmpty()
		if empty {
			for _, w := range p.workers {
				if !w.private.IsEmpty() {
					empty = false
					break
				}
			}
		}
		p.mu.Unlock()

		if empty {
			break
		}
	}

	termErr := p.Terminate()

	// Terminate joins the drain loops, not the per-capsule goroutines they
	// spawned; wait for those too before reporting the pool drained.
	idle := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return termErr
	case <-ctx.Done():
		return multierr.Append(termErr, ErrJoinTimedOut)
	}
}

// drainOnePass posts one barrier to the shared queue and to every worker's
// private queue, then waits for all of them to fire.
func (p *TaskPool) drainOnePass(ctx context.Context) error {
	p.mu.Lock()
	workers := append([]*WorkerThread(nil), p.workers...)
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1 + len(workers))

	barrier := func() Task {
		return func(context.Context) { wg.Done() }
	}

	p.mu.Lock()
	p.shared.Push(newCapsule(barrier(), DefaultSettings()))
	for _, w := range workers {
		w.private.Push(newCapsule(barrier(), DefaultSettings()))
	}
	p.mu.Unlock()
	p.signal.Emit()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrJoinTimedOut
	}
}
