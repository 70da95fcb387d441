package core

import "github.com/gammazero/deque"

// TaskQueue is a queue of capsules: FIFO for the default NewFIFOQueue,
// priority-ordered for PriorityTaskQueue. Both the pool's shared queue and every
// per-worker private queue are accessed only while the pool's monitor is
// held, so TaskQueue itself is not internally synchronized — it is a thin
// queue-shaped wrapper, not a concurrent data structure.
type TaskQueue interface {
	// Push appends one capsule.
	Push(c *capsule)
	// Pop removes and returns the front capsule, or (nil, false) if empty.
	Pop() (*capsule, bool)
	Len() int
	IsEmpty() bool
	// Clear drains the queue, returning the capsules that were discarded.
	Clear() []*capsule
}

// fifoQueue wraps github.com/gammazero/deque, which already implements a
// grow-by-at-least-1.5x, never-shrink-below-a-compaction-floor ring buffer,
// so this type need only add the queue-shaped capsule API on top rather
// than reimplement ring-buffer arithmetic by hand.
type fifoQueue struct {
	d deque.Deque[*capsule]
}

// NewFIFOQueue constructs the default TaskQueue implementation: a plain FIFO
// backed by deque's own internal ring buffer, which grows on demand from a
// zero value exactly as the pack's own callers use it.
func NewFIFOQueue() TaskQueue {
	return &fifoQueue{}
}

func (q *fifoQueue) Push(c *capsule) {
	q.d.PushBack(c)
}

func (q *fifoQueue) Pop() (*capsule, bool) {
	if q.d.Len() == 0 {
		return nil, false
	}
	return q.d.PopFront(), true
}

func (q *fifoQueue) Len() int {
	return q.d.Len()
}

func (q *fifoQueue) IsEmpty() bool {
	return q.d.Len() == 0
}

func (q *fifoQueue) Clear() []*capsule {
	if q.d.Len() == 0 {
		return nil
	}
	out := make([]*capsule, 0, q.d.Len())
	for q.d.Len() > 0 {
		out = append(out, q.d.PopFront())
	}
	return out
}
