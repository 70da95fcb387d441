// Package taskpool implements a fiber-based multi-threaded task pool: a
// fixed set of worker goroutines, each running a cooperative dispatch loop,
// coordinated through a shared queue and per-worker private queues.
//
// # Quick Start
//
//	pool := taskpool.NewDefault()
//	defer pool.Terminate()
//
//	pool.Run(func(ctx context.Context) {
//		// runs on whichever worker wakes first
//	})
//
// # Key Concepts
//
// Run posts one capsule onto the shared queue; any idle worker may pick it
// up. RunDist posts one capsule onto every worker's private queue, so it
// always runs exactly ThreadCount() times, once per worker. RunH and
// RunDistH are the handle-returning variants: they block the caller until
// the posted task has begun executing and return a TaskHandle identifying
// it.
//
// Every worker's private queue is serviced before the shared queue is
// considered, so targeted work (fan-out, handle-returning submissions)
// always lands on its intended worker even under heavy shared-queue
// pressure.
//
// # Thread Safety
//
// Submission arguments must implement Isolated — a marker documenting that
// a value carries no unsynchronised mutable reference into the caller's
// goroutine. Capture(v) is the call-site marker for this; types that do not
// implement Isolated simply cannot be named as Capture's type parameter.
//
// # Shutdown
//
// Terminate wakes every worker, joins them, and returns any join errors
// aggregated together. Join drains the shared queue and every private queue
// to exhaustion first, then calls Terminate — use it when in-flight and
// already-queued work should finish before the pool goes away.
//
// # Example
//
//	import (
//		"context"
//		"time"
//
//		"github.com/mrtask/taskpool"
//	)
//
//	func main() {
//		pool := taskpool.NewDefault()
//
//		pool.Run(func(ctx context.Context) {
//			println("task 1")
//		})
//
//		pool.RunDist(func(workerIndex int) taskpool.Task {
//			return func(ctx context.Context) {
//				println("fan-out on worker", workerIndex)
//			}
//		})
//
//		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//		defer cancel()
//		pool.Join(ctx)
//	}
package taskpool
