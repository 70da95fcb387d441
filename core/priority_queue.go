package core

import (
	"cmp"

	"github.com/addrummond/heap"
)

// priorityEntry is one slot in a PriorityTaskQueue: a capsule plus the
// sequence number it was pushed with, used to keep delivery stable (FIFO)
// among capsules sharing the same Settings.Priority.
type priorityEntry struct {
	c        *capsule
	priority TaskPriority
	seq      uint64
}

// Cmp orders higher Settings.Priority first; within equal priority, the
// entry pushed earlier (lower seq) orders first, giving FIFO-within-priority
// stability on top of addrummond/heap's min-heap.
func (a *priorityEntry) Cmp(b *priorityEntry) int {
	if c := cmp.Compare(b.priority, a.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// PriorityTaskQueue is an optional TaskQueue implementation that orders
// capsules by the priority hint the caller embedded in Settings, rather
// than strict FIFO. It does not add pool-level preemption or reordering of
// in-flight work — it only changes which already-queued capsule a worker
// consumes next.
type PriorityTaskQueue struct {
	h   heap.Heap[priorityEntry, heap.Min]
	seq uint64
}

// NewPriorityTaskQueue constructs an empty PriorityTaskQueue.
func NewPriorityTaskQueue() *PriorityTaskQueue {
	return &PriorityTaskQueue{}
}

func (q *PriorityTaskQueue) Push(c *capsule) {
	q.seq++
	heap.PushOrderable(&q.h, priorityEntry{c: c, priority: c.settings.Priority, seq: q.seq})
}

func (q *PriorityTaskQueue) Pop() (*capsule, bool) {
	e, ok := heap.PopOrderable(&q.h)
	if !ok {
		return nil, false
	}
	return e.c, true
}

func (q *PriorityTaskQueue) Len() int {
	return heap.Len(&q.h)
}

func (q *PriorityTaskQueue) IsEmpty() bool {
	return heap.Len(&q.h) == 0
}

func (q *PriorityTaskQueue) Clear() []*capsule {
	out := make([]*capsule, 0, heap.Len(&q.h))
	for {
		e, ok := heap.PopOrderable(&q.h)
		if !ok {
			break
		}
		out = append(out, e.c)
	}
	return out
}

var _ TaskQueue = (*PriorityTaskQueue)(nil)
