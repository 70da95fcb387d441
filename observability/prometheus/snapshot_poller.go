package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/mrtask/taskpool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides current pool stats snapshots, including a
// per-worker breakdown.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
	WorkerSnapshots() []core.WorkerStats
}

var _ PoolSnapshotProvider = (*core.TaskPool)(nil)

// SnapshotPoller periodically exports TaskPool Stats()/WorkerSnapshots()
// into Prometheus gauges, for deployments that prefer a pull-based snapshot
// over per-call MetricsExporter wiring.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	poolWorkers     *prom.GaugeVec
	poolSharedQueue *prom.GaugeVec
	poolTerminating *prom.GaugeVec
	poolDraining    *prom.GaugeVec

	workerPending *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolSharedQueue := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_shared_queue_depth",
		Help:      "Shared queue depth per pool.",
	}, []string{"pool"})
	poolTerminating := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_terminating",
		Help:      "Pool terminating state (1=terminating, 0=running).",
	}, []string{"pool"})
	poolDraining := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "pool_draining",
		Help:      "Pool draining state (1=draining via Join, 0=not).",
	}, []string{"pool"})
	workerPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskpool",
		Name:      "worker_pending",
		Help:      "Private queue depth per worker.",
	}, []string{"pool", "worker"})

	var err error
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolSharedQueue, err = registerCollector(reg, poolSharedQueue); err != nil {
		return nil, err
	}
	if poolTerminating, err = registerCollector(reg, poolTerminating); err != nil {
		return nil, err
	}
	if poolDraining, err = registerCollector(reg, poolDraining); err != nil {
		return nil, err
	}
	if workerPending, err = registerCollector(reg, workerPending); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:        interval,
		pools:           make(map[string]PoolSnapshotProvider),
		poolWorkers:     poolWorkers,
		poolSharedQueue: poolSharedQueue,
		poolTerminating: poolTerminating,
		poolDraining:    poolDraining,
		workerPending:   workerPending,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolSharedQueue.WithLabelValues(name).Set(float64(stats.SharedQueue))
		p.poolTerminating.WithLabelValues(name).Set(boolToFloat(stats.Terminating))
		p.poolDraining.WithLabelValues(name).Set(boolToFloat(stats.Draining))

		for _, ws := range provider.WorkerSnapshots() {
			p.workerPending.WithLabelValues(name, normalizeLabel(ws.Name, "unknown")).Set(float64(ws.Pending))
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
