package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/mrtask/taskpool/core"
)

// Mode selects Pipe's transfer strategy.
type Mode int

const (
	// SequentialMode reads then writes through a single scratch buffer,
	// one chunk at a time, on the caller's goroutine.
	SequentialMode Mode = iota
	// ConcurrentMode reads on a dedicated goroutine into a small ring of
	// large buffers while the caller's goroutine drains them into sink,
	// overlapping read and write latency.
	ConcurrentMode
)

// Unbounded tells Pipe to transfer until source reports io.EOF, rather than
// requiring an exact byte count.
const Unbounded int64 = -1

// ErrShortPipe is returned when nbytes != Unbounded but source reached EOF
// before that many bytes were transferred.
var ErrShortPipe = errors.New("stream: source reached EOF before nbytes were transferred")

const (
	sequentialChunkSize = 64 * 1024

	concurrentRingSize  = 4
	concurrentMinChunk  = 64 * 1024
	concurrentMaxChunk  = 4 * 1024 * 1024
	adaptiveReadWindow  = 100 * time.Millisecond
)

// Pipe transfers bytes from source to sink. If nbytes is Unbounded, it
// transfers until source reports io.EOF; otherwise it transfers exactly
// nbytes bytes or returns ErrShortPipe. It returns the number of bytes
// actually transferred.
//
// In ConcurrentMode the ring indices are int64 chunk counters, so one
// invocation must transfer fewer than 2^63 chunks; Pipe does not implement
// modular-subtraction wraparound handling beyond that range.
func Pipe(ctx context.Context, source InputStream, sink OutputStream, nbytes int64, mode Mode) (int64, error) {
	switch mode {
	case ConcurrentMode:
		return pipeConcurrent(ctx, source, sink, nbytes)
	default:
		return pipeSequential(ctx, source, sink, nbytes)
	}
}

func pipeSequential(ctx context.Context, source InputStream, sink OutputStream, nbytes int64) (int64, error) {
	buf := make([]byte, sequentialChunkSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if nbytes != Unbounded && total >= nbytes {
			return total, nil
		}

		want := len(buf)
		if nbytes != Unbounded {
			if remaining := nbytes - total; int64(want) > remaining {
				want = int(remaining)
			}
		}

		n, readErr := source.Read(buf[:want], ReadBlocking)
		if n > 0 {
			if _, writeErr := sink.Write(buf[:n], WriteBlocking); writeErr != nil {
				return total, writeErr
			}
			total += int64(n)
		}
		if readErr != nil {
			return total, terminalPipeError(readErr, nbytes, total)
		}
	}
}

// ringSlot is one buffer in the concurrent ring: bytes read by the reader
// goroutine, awaiting a drain by the writer goroutine (the Pipe caller).
type ringSlot struct {
	buf []byte
	err error
}

// pipeConcurrent overlaps reading and writing: a dedicated reader goroutine
// fills a small ring of large buffers, adapting its chunk size to source
// throughput, while the caller drains the ring into sink. readIdx and
// writeIdx are monotonic counters (indexed mod concurrentRingSize); the
// reader blocks when writeIdx-readIdx == concurrentRingSize (ring full) and
// the caller blocks when writeIdx == readIdx (ring empty), coordinated by a
// single SharedEvent covering both conditions.
func pipeConcurrent(ctx context.Context, source InputStream, sink OutputStream, nbytes int64) (int64, error) {
	ring := make([]ringSlot, concurrentRingSize)
	for i := range ring {
		ring[i].buf = make([]byte, 0, concurrentMaxChunk)
	}

	ev := core.NewSharedEvent()
	var readIdx, writeIdx atomic.Int64
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)

		chunkSize := concurrentMinChunk
		var read int64
		for {
			if ctx.Err() != nil {
				return
			}
			if nbytes != Unbounded && read >= nbytes {
				return
			}

			last := ev.EmitCount()
			for writeIdx.Load()-readIdx.Load() >= concurrentRingSize {
				if ctx.Err() != nil {
					return
				}
				last = ev.Wait(last)
			}

			want := chunkSize
			if nbytes != Unbounded {
				if remaining := nbytes - read; int64(want) > remaining {
					want = int(remaining)
				}
			}

			slot := int(writeIdx.Load() % concurrentRingSize)
			buf := ring[slot].buf[:want]

			start := time.Now()
			n, err := source.Read(buf, ReadBlocking)
			elapsed := time.Since(start)

			ring[slot].buf = buf[:n]
			ring[slot].err = err
			read += int64(n)
			writeIdx.Add(1)
			ev.Emit()

			if err != nil {
				return
			}
			if elapsed < adaptiveReadWindow && chunkSize < concurrentMaxChunk {
				chunkSize *= 2
				if chunkSize > concurrentMaxChunk {
					chunkSize = concurrentMaxChunk
				}
			}
		}
	}()

	var total int64
	last := ev.EmitCount()
	for {
		if err := ctx.Err(); err != nil {
			<-readerDone
			return total, err
		}

		// The reader stops producing once it has satisfied a bounded
		// nbytes, without any further ring entry to signal that: check
		// the target here too, rather than only reacting to entry.err,
		// so the drain loop doesn't wait forever for a signal that will
		// never come.
		if nbytes != Unbounded && total >= nbytes {
			<-readerDone
			return total, nil
		}

		for writeIdx.Load() <= readIdx.Load() {
			last = ev.Wait(last)
		}

		slot := int(readIdx.Load() % concurrentRingSize)
		entry := ring[slot]

		if len(entry.buf) > 0 {
			if _, writeErr := sink.Write(entry.buf, WriteBlocking); writeErr != nil {
				readIdx.Add(1)
				ev.Emit()
				<-readerDone
				return total, writeErr
			}
			total += int64(len(entry.buf))
		}
		readIdx.Add(1)
		ev.Emit()

		if entry.err != nil {
			<-readerDone
			return total, terminalPipeError(entry.err, nbytes, total)
		}
	}
}

func terminalPipeError(readErr error, nbytes, total int64) error {
	if errors.Is(readErr, io.EOF) {
		if nbytes != Unbounded && total != nbytes {
			return ErrShortPipe
		}
		return nil
	}
	return readErr
}
