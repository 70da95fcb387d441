package taskpool

import (
	"sync"

	"github.com/mrtask/taskpool/core"
)

// =============================================================================
// Global pool helper (singleton), mirroring the teacher's
// InitGlobalThreadPool/GetGlobalThreadPool/ShutdownGlobalThreadPool pattern
// for applications that want one process-wide pool rather than threading a
// *TaskPool through every call site.
// =============================================================================

var (
	globalPool *TaskPool
	globalMu   sync.Mutex
)

// InitGlobalPool initializes the process-wide pool with the given worker
// count. Calling it a second time before ShutdownGlobalPool is a no-op.
func InitGlobalPool(threadCount int, opts ...Option) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return
	}
	globalPool = core.New(threadCount, opts...)
}

// GetGlobalPool returns the process-wide pool. It panics if InitGlobalPool
// has not been called, the same fail-fast contract the teacher's
// GetGlobalThreadPool uses for a misconfigured global.
func GetGlobalPool() *TaskPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("taskpool: global pool not initialized; call InitGlobalPool() first")
	}
	return globalPool
}

// ShutdownGlobalPool terminates and clears the process-wide pool, if any.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		_ = globalPool.Terminate()
		globalPool = nil
	}
}
