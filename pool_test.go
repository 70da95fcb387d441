package taskpool

import (
	"context"
	"testing"
	"time"
)

func TestGlobalPool_PanicsBeforeInit(t *testing.T) {
	globalMu.Lock()
	globalPool = nil
	globalMu.Unlock()

	defer func() {
		if recover() == nil {
			t.Fatal("GetGlobalPool() before InitGlobalPool did not panic")
		}
	}()
	GetGlobalPool()
}

func TestGlobalPool_InitGetShutdownLifecycle(t *testing.T) {
	globalMu.Lock()
	globalPool = nil
	globalMu.Unlock()
	defer ShutdownGlobalPool()

	InitGlobalPool(2)
	InitGlobalPool(5) // second call before shutdown must be a no-op

	p := GetGlobalPool()
	if got := p.ThreadCount(); got != 2 {
		t.Fatalf("ThreadCount() = %d, want 2 (second InitGlobalPool call should have been a no-op)", got)
	}

	done := make(chan struct{})
	if err := p.Run(func(context.Context) { close(done) }); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("global pool never ran the submitted task")
	}

	ShutdownGlobalPool()

	defer func() {
		if recover() == nil {
			t.Fatal("GetGlobalPool() after ShutdownGlobalPool did not panic")
		}
	}()
	GetGlobalPool()
}
