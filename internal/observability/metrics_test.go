package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarRecorder("")
	if rec.Name() == "" {
		t.Fatal("generated name empty")
	}
	rec.RecordOperation("package_upload", "succeeded", 150*time.Millisecond)
	rec.RecordOperation("package_upload", "succeeded", 50*time.Millisecond)
	rec.RecordOperation("package_upload", "failed", 10*time.Millisecond)

	snap := rec.Snapshot()
	if snap.DurationsMS["package_upload"] != 210 {
		t.Fatalf("durations = %v", snap.DurationsMS)
	}
	if snap.Results["package_upload"]["succeeded"] != 2 {
		t.Fatalf("results = %v", snap.Results)
	}
	if snap.Results["package_upload"]["failed"] != 1 {
		t.Fatalf("results = %v", snap.Results)
	}

	// Snapshots are copies; mutating one must not affect the recorder.
	snap.Results["package_upload"]["succeeded"] = 99
	if rec.Snapshot().Results["package_upload"]["succeeded"] != 2 {
		t.Fatal("snapshot shares recorder memory")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusRecorder: %v", err)
	}
	rec.RecordOperation("package_upload", "succeeded", 250*time.Millisecond)
	rec.RecordOperation("package_upload", "failed", 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	hist, ok := byName["scormhost_operation_duration_seconds"]
	if !ok {
		t.Fatalf("families = %v", byName)
	}
	if got := hist.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("sample count = %d", got)
	}
	counters, ok := byName["scormhost_operation_results_total"]
	if !ok || len(counters.GetMetric()) != 2 {
		t.Fatalf("counters = %v", counters)
	}

	// Double registration against the same registry must fail.
	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}
