// Package stream defines the byte-stream interfaces TaskPool treats as an
// external collaborator (producers and sinks a pooled task reads from or
// writes to) and the Pipe operation that moves bytes between them.
package stream

import (
	"sync"
	"time"
)

// ReadMode controls whether Read may block waiting for more data.
type ReadMode int

const (
	// ReadBlocking waits for at least one byte (or EOF/error) before
	// returning.
	ReadBlocking ReadMode = iota
	// ReadNonBlocking returns immediately with whatever is already
	// available, even zero bytes, without error.
	ReadNonBlocking
)

// WriteMode controls whether Write may block waiting for buffer space.
type WriteMode int

const (
	// WriteBlocking waits for enough space to accept the whole write.
	WriteBlocking WriteMode = iota
	// WriteNonBlocking accepts as much as fits without blocking, returning
	// a short write rather than waiting.
	WriteNonBlocking
)

// InputStream is a readable byte source.
type InputStream interface {
	// Empty reports whether the stream currently has no data buffered and
	// none pending (a hint, not a guarantee under concurrent writers).
	Empty() bool
	// LeastSize returns a lower bound on bytes immediately available to
	// Read without blocking.
	LeastSize() int
	// Peek returns up to n bytes without consuming them. It may return
	// fewer than n bytes if that's all that's currently buffered.
	Peek(n int) ([]byte, error)
	// Read consumes up to len(dst) bytes into dst, returning the number
	// read and, at end of stream, io.EOF alongside any final bytes.
	Read(dst []byte, mode ReadMode) (int, error)
}

// OutputStream is a writable byte sink.
type OutputStream interface {
	// Write consumes b, returning the number of bytes accepted.
	Write(b []byte, mode WriteMode) (int, error)
	// Flush pushes any internally buffered bytes to their destination.
	Flush() error
	// Finalize signals that no further Write calls will be made,
	// allowing the sink to release resources or emit trailing data.
	Finalize() error
}

// Stream is a bidirectional byte stream.
type Stream interface {
	InputStream
	OutputStream
}

// Connection is a Stream over a connected transport.
type Connection interface {
	Stream
	// Connected reports whether the underlying transport is still open.
	Connected() bool
	// Close tears down the underlying transport.
	Close() error
	// WaitForData blocks until data is available to Read or timeout
	// elapses, returning an error in the latter case.
	WaitForData(timeout time.Duration) error
}

// RandomAccess is a stream whose position can be queried and changed.
type RandomAccess interface {
	// Size returns the stream's total length, if known.
	Size() (int64, error)
	// Seek repositions the stream per io.Seeker's whence semantics.
	Seek(offset int64, whence int) (int64, error)
	// Tell returns the current read/write position.
	Tell() (int64, error)
	// Readable reports whether Read is currently permitted.
	Readable() bool
	// Writable reports whether Write is currently permitted.
	Writable() bool
}

// Truncatable is a RandomAccess stream that can be shortened or extended.
type Truncatable interface {
	RandomAccess
	// Truncate resizes the underlying storage to size bytes.
	Truncate(size int64) error
}

// ClosableRandomAccess is a RandomAccess stream with explicit lifecycle.
type ClosableRandomAccess interface {
	RandomAccess
	// IsOpen reports whether Close has not yet been called.
	IsOpen() bool
	// Close releases the underlying storage handle.
	Close() error
}

// nullSink discards every Write and never blocks.
type nullSink struct{}

func (nullSink) Write(b []byte, _ WriteMode) (int, error) { return len(b), nil }
func (nullSink) Flush() error                              { return nil }
func (nullSink) Finalize() error                            { return nil }

var nullSinkOnce = sync.OnceValue(func() OutputStream { return nullSink{} })

// NullSink returns the process-wide discard-everything OutputStream,
// constructing it on first use and reusing it for every subsequent call
// from any goroutine.
func NullSink() OutputStream {
	return nullSinkOnce()
}
