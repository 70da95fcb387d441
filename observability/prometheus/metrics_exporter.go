package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/mrtask/taskpool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors. Unlike
// SnapshotPoller, which polls a TaskPool's Stats()/WorkerSnapshots() on a
// timer, MetricsExporter is pushed into directly from the pool's hot path
// (capsule completion, enqueue, rejection), so every collector here is a
// counter or histogram rather than a point-in-time gauge, except for queue
// depth, which tracks the pool's actual shared/private split rather than one
// undifferentiated "queue" label.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec

	// Queue depth is split the way TaskPool itself is: one gauge for the
	// single shared queue every worker pulls from when its own private
	// queue is empty, and one per-worker gauge for private queue depth.
	// Collapsing both into one "queue" label (as the teacher's runner,
	// which has no shared/private distinction, does) would hide exactly
	// the distinction RunDist vs Run exists to make.
	sharedQueueDepth  prom.Gauge
	privateQueueDepth *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "taskpool"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Capsule invocation duration in seconds, by worker and priority.",
		Buckets:   buckets,
	}, []string{"worker", "priority"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of capsule invocations that panicked, by worker.",
	}, []string{"worker"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of submissions rejected (e.g. pool terminating), by reason.",
	}, []string{"reason"})
	sharedQueueDepth := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "shared_queue_depth",
		Help:      "Current depth of the pool's shared queue.",
	})
	privateQueueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "private_queue_depth",
		Help:      "Current depth of one worker's private queue.",
	}, []string{"worker"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if sharedQueueDepth, err = registerCollector(reg, sharedQueueDepth); err != nil {
		return nil, err
	}
	if privateQueueDepth, err = registerCollector(reg, privateQueueDepth); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		sharedQueueDepth:    sharedQueueDepth,
		privateQueueDepth:   privateQueueDepth,
	}, nil
}

// RecordTaskDuration records a capsule's invocation duration.
func (m *MetricsExporter) RecordTaskDuration(workerName string, priority core.TaskPriority, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(workerName, "unknown"), priority.String()).Observe(duration.Seconds())
}

// RecordTaskPanic records a capsule invocation panic.
func (m *MetricsExporter) RecordTaskPanic(workerName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(workerName, "unknown")).Inc()
}

// RecordQueueDepth routes to the shared-queue gauge or to the named
// worker's private-queue gauge, matching how TaskPool itself calls this:
// once per Run/RunH submission with core.SharedQueueName, and once per
// worker after every RunDist/RunDistH fan-out.
func (m *MetricsExporter) RecordQueueDepth(queueName string, depth int) {
	if m == nil {
		return
	}
	if queueName == core.SharedQueueName {
		m.sharedQueueDepth.Set(float64(depth))
		return
	}
	m.privateQueueDepth.WithLabelValues(normalizeLabel(queueName, "unknown")).Set(float64(depth))
}

// RecordTaskRejected records a rejected submission.
func (m *MetricsExporter) RecordTaskRejected(reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
