package prometheus

import (
	"testing"
	"time"

	"github.com/mrtask/taskpool/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("taskpool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskDuration("pool-0", core.TaskPriorityUserVisible, 250*time.Millisecond)
	exporter.RecordTaskPanic("pool-0", "panic")
	exporter.RecordQueueDepth(core.SharedQueueName, 3)
	exporter.RecordQueueDepth("pool-0", 7)
	exporter.RecordTaskRejected("shutdown")

	panicTotal := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("pool-0"))
	if panicTotal != 1 {
		t.Fatalf("panic total = %v, want 1", panicTotal)
	}

	sharedDepth := testutil.ToFloat64(exporter.sharedQueueDepth)
	if sharedDepth != 3 {
		t.Fatalf("shared queue depth = %v, want 3", sharedDepth)
	}

	privateDepth := testutil.ToFloat64(exporter.privateQueueDepth.WithLabelValues("pool-0"))
	if privateDepth != 7 {
		t.Fatalf("private queue depth = %v, want 7", privateDepth)
	}

	rejected := testutil.ToFloat64(exporter.taskRejectedTotal.WithLabelValues("shutdown"))
	if rejected != 1 {
		t.Fatalf("rejected total = %v, want 1", rejected)
	}

	histCount, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("pool-0", "user_visible"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("taskpool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("taskpool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskPanic("pool-0", nil)
	second.RecordTaskPanic("pool-0", nil)

	got := testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("pool-0"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
