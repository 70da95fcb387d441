package core

import (
	"context"
	"sync/atomic"
)

// capsule is a type-erased record holding one work item. A Go closure
// already is the erasure mechanism (it carries its captured environment on
// the heap), so there is no separate trampoline pointer or inline storage
// buffer to manage here — only the invoke-once guard and the settings
// block.
type capsule struct {
	task     Task
	settings Settings
	invoked  atomic.Bool
}

func newCapsule(task Task, settings Settings) *capsule {
	if task == nil {
		panic("taskpool: nil task passed to newCapsule")
	}
	return &capsule{task: task, settings: settings}
}

// invoke executes the capsule's task exactly once. A second call panics with
// ErrCapsuleAlreadyInvoked rather than exhibiting the source language's
// undefined behavior for a double invoke() — Go offers no safe way to leave
// that condition unchecked.
func (c *capsule) invoke(ctx context.Context) {
	if !c.invoked.CompareAndSwap(false, true) {
		panic(ErrCapsuleAlreadyInvoked)
	}
	c.task(ctx)
}
