package stream

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

func TestNullSink_DiscardsWrites(t *testing.T) {
	sink := NullSink()
	n, err := sink.Write([]byte("hello"), WriteBlocking)
	if err != nil || n != 5 {
		t.Fatalf("NullSink.Write = (%d, %v), want (5, nil)", n, err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("NullSink.Flush() = %v, want nil", err)
	}
	if err := sink.Finalize(); err != nil {
		t.Fatalf("NullSink.Finalize() = %v, want nil", err)
	}
}

func TestNullSink_ReturnsSameInstance(t *testing.T) {
	if NullSink() != NullSink() {
		t.Fatal("NullSink() should return the same process-wide instance every call")
	}
}

// byteSliceSource is a minimal InputStream over an in-memory byte slice,
// used as a deterministic source for Pipe tests.
type byteSliceSource struct {
	r *bytes.Reader
}

func newByteSliceSource(data []byte) *byteSliceSource {
	return &byteSliceSource{r: bytes.NewReader(data)}
}

func (s *byteSliceSource) Empty() bool      { return s.r.Len() == 0 }
func (s *byteSliceSource) LeastSize() int   { return s.r.Len() }
func (s *byteSliceSource) Peek(n int) ([]byte, error) {
	pos, _ := s.r.Seek(0, io.SeekCurrent)
	buf := make([]byte, n)
	read, err := s.r.ReadAt(buf, pos)
	return buf[:read], err
}
func (s *byteSliceSource) Read(dst []byte, _ ReadMode) (int, error) {
	return s.r.Read(dst)
}

// byteSliceSink is a minimal OutputStream collecting writes into a buffer.
type byteSliceSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *byteSliceSink) Write(b []byte, _ WriteMode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(b)
}
func (s *byteSliceSink) Flush() error    { return nil }
func (s *byteSliceSink) Finalize() error { return nil }
func (s *byteSliceSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}
