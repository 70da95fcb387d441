package core

import "sync"

// SharedEvent is a counter-based wake primitive: its emit count is
// monotonically increasing, and waiters block in Wait until the count has
// advanced past the value they last observed. The pool uses it to wake idle
// workers without a thundering herd on every single submission (see
// EmitSingle).
type SharedEvent struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count uint64
}

// NewSharedEvent constructs a SharedEvent with emit count zero.
func NewSharedEvent() *SharedEvent {
	e := &SharedEvent{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// EmitCount returns the current emit count.
func (e *SharedEvent) EmitCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Emit wakes every waiter (broadcast). Used for fan-out submissions and
// termination, where every worker has new work or must observe the
// terminating flag.
func (e *SharedEvent) Emit() {
	e.mu.Lock()
	e.count++
	e.mu.Unlock()
	e.cond.Broadcast()
}

// EmitSingle wakes at most one waiter. Used for ordinary single-capsule
// submissions: waking one worker is sufficient to service one new capsule,
// and waking every idle worker for every submission would be a thundering
// herd under high submission rates.
func (e *SharedEvent) EmitSingle() {
	e.mu.Lock()
	e.count++
	e.mu.Unlock()
	e.cond.Signal()
}

// Wait blocks until the emit count has advanced past lastSeen, then returns
// the new count. Callers should pass the count they last observed (starting
// from EmitCount() at loop entry) so that an Emit which raced ahead of the
// call to Wait is not missed.
func (e *SharedEvent) Wait(lastSeen uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.count <= lastSeen {
		e.cond.Wait()
	}
	return e.count
}
