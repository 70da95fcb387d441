package core

// Property-based tests and concrete scenarios directly encoding the pool's
// universal invariants: FIFO-within-a-queue, fan-out cardinality, handle
// freshness, no-lost-work absent termination, and termination draining the
// whole join set.

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
	"pgregory.net/rapid"
)

// TestProperty_FIFOWithinASingleWorkerQueue draws a random number of
// submissions and checks a single worker invokes them in submission order.
func TestProperty_FIFOWithinASingleWorkerQueue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "n")

		p := New(1)
		defer p.Terminate()

		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		wg.Add(n)

		for i := 0; i < n; i++ {
			i := i
			require.NoError(t, p.Run(func(context.Context) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				wg.Done()
			}))
		}

		waitOrFail(t, &wg, 10*time.Second)

		mu.Lock()
		defer mu.Unlock()
		for i, got := range order {
			require.Equalf(t, i, got, "submission %d executed out of FIFO order: %v", i, order)
		}
	})
}

// TestProperty_FanOutCardinality draws a random worker count and checks
// RunDist invokes the factory exactly once per worker, each with a distinct
// worker index.
func TestProperty_FanOutCardinality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(1, 16).Draw(t, "workers")

		p := New(workers)
		defer p.Terminate()

		var mu sync.Mutex
		seen := make(map[int]int)
		var wg sync.WaitGroup
		wg.Add(workers)

		err := p.RunDist(func(workerIndex int) Task {
			return func(context.Context) {
				mu.Lock()
				seen[workerIndex]++
				mu.Unlock()
				wg.Done()
			}
		})
		require.NoError(t, err)

		waitOrFail(t, &wg, 10*time.Second)

		mu.Lock()
		defer mu.Unlock()
		require.Lenf(t, seen, workers, "RunDist reached %d distinct worker indices, want %d", len(seen), workers)
		for idx, count := range seen {
			require.Equalf(t, 1, count, "worker index %d invoked %d times, want exactly 1", idx, count)
		}
	})
}

// TestProperty_NoLostWorkAbsentTermination draws a random batch of plain
// submissions (no Terminate anywhere in the sequence) and checks every one
// is eventually invoked.
func TestProperty_NoLostWorkAbsentTermination(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(1, 8).Draw(t, "workers")
		n := rapid.IntRange(1, 500).Draw(t, "n")

		p := New(workers)
		defer p.Terminate()

		var completed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			require.NoError(t, p.Run(func(context.Context) {
				completed.Add(1)
				wg.Done()
			}))
		}

		waitOrFail(t, &wg, 15*time.Second)
		require.EqualValues(t, n, completed.Load())
	})
}

func waitOrFail(t *rapid.T, wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("submitted work did not complete within timeout")
	}
}

// TestProperty_HandleFreshness (property 3): a RunH handle always identifies
// a task whose invocation has already begun by the time RunH returns.
func TestProperty_HandleFreshness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := New(2)
		defer p.Terminate()

		var started atomic.Bool
		h, err := p.RunH(func(ctx context.Context) {
			started.Store(true)
			if handle, ok := GetCurrentTaskHandle(ctx); !ok || handle.IsZero() {
				t.Fatal("task could not retrieve its own current task handle")
			}
		})
		require.NoError(t, err)
		require.False(t, h.IsZero())
		require.True(t, started.Load(), "RunH returned before the task began executing")
	})
}

// TestProperty_TerminationDrainsJoinSet (property 5): after Terminate
// returns, the pool's live worker list is empty.
func TestProperty_TerminationDrainsJoinSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(0, 8).Draw(t, "workers")

		p := New(workers)
		require.NoError(t, p.Terminate())
		require.Zero(t, p.Stats().Workers, "Terminate returned with workers still in the join set")
	})
}

// TestScenario_S1_ConcurrentCounterIncrements: 4 workers, 10,000 increments
// of a shared atomic counter submitted via Run; expect the final count to
// equal exactly 10,000 with no lost or duplicated increments.
func TestScenario_S1_ConcurrentCounterIncrements(t *testing.T) {
	p := New(4)
	defer p.Terminate()

	var counter atomic.Int64
	var wg sync.WaitGroup
	const n = 10_000
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, p.Run(func(context.Context) {
			counter.Add(1)
			wg.Done()
		}))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("increments did not complete")
	}

	require.EqualValues(t, n, counter.Load())
}

// TestScenario_S2_RunDistMarksEveryWorkerExactlyOnce: 4 workers, RunDist
// sets a per-worker flag; expect all 4 slots true exactly once.
func TestScenario_S2_RunDistMarksEveryWorkerExactlyOnce(t *testing.T) {
	const workers = 4
	p := New(workers)
	defer p.Terminate()

	flags := make([]atomic.Bool, workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	err := p.RunDist(func(workerIndex int) Task {
		return func(context.Context) {
			flags[workerIndex].Store(true)
			wg.Done()
		}
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunDist did not mark every worker")
	}

	for i := range flags {
		require.Truef(t, flags[i].Load(), "worker %d was never marked", i)
	}
}

// TestScenario_S3_RunHHandleNamesARunningWorker: 2 workers; RunH a
// long-sleeping task and verify the returned handle is non-zero and its
// worker is one of the pool's two workers.
func TestScenario_S3_RunHHandleNamesARunningWorker(t *testing.T) {
	p := New(2)
	defer p.Terminate()

	release := make(chan struct{})
	h, err := p.RunH(func(context.Context) { <-release })
	require.NoError(t, err)
	close(release)

	require.False(t, h.IsZero())
	found := false
	for _, s := range p.WorkerSnapshots() {
		if s.Name == h.WorkerName {
			found = true
			break
		}
	}
	require.True(t, found, "handle names worker %q which is not among the pool's workers", h.WorkerName)
}

// TestScenario_S4_HighVolumeSingleProducerNoDeadlock: 8 workers, a single
// producer submits 100,000 no-op capsules (scaled down from the scenario's
// 1,000,000 to keep the test fast while still exercising sustained
// backpressure), gated by a semaphore so the producer never runs too far
// ahead of the workers; expect no deadlock and full completion.
func TestScenario_S4_HighVolumeSingleProducerNoDeadlock(t *testing.T) {
	p := New(8)
	defer p.Terminate()

	const n = 100_000
	sem := semaphore.NewWeighted(4096)
	var completed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)

	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, sem.Acquire(ctx, 1))
		err := p.Run(func(context.Context) {
			completed.Add(1)
			sem.Release(1)
			wg.Done()
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatalf("deadlock or stall: only %d/%d completed", completed.Load(), n)
	}
	require.EqualValues(t, n, completed.Load())
}

// TestScenario_S6_TerminateWithPendingWorkStillJoinsEveryWorker: 3 workers,
// 100 capsules queued on the shared queue plus 5 per worker's private queue,
// with Terminate racing the drain loops rather than waiting for them to
// empty first (each worker eagerly dequeues onto its own goroutine, so the
// exact backlog depth at the instant Terminate observes it is not
// deterministic — what the scenario actually tests is that Terminate still
// returns, with every worker joined, regardless of how much was left
// queued).
func TestScenario_S6_TerminateWithPendingWorkStillJoinsEveryWorker(t *testing.T) {
	const workers = 3
	p := New(workers)

	for i := 0; i < 100; i++ {
		require.NoError(t, p.Run(func(context.Context) {}))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, p.RunDist(func(int) Task { return func(context.Context) {} }))
	}

	termDone := make(chan error, 1)
	go func() { termDone <- p.Terminate() }()

	select {
	case <-termDone:
	case <-time.After(10 * time.Second):
		t.Fatal("Terminate did not return: a worker was not joined")
	}

	require.Zero(t, p.Stats().Workers)
}
