package hooks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skryldev/steg-extractor/core"
	"github.com/Skryldev/steg-extractor/hooks"
)

func TestInMemoryMetrics(t *testing.T) {
	m := hooks.NewInMemoryMetrics()
	m.RecordProcessingTime("extract", 250*time.Millisecond)
	m.RecordProcessingTime("extract", 250*time.Millisecond)
	m.RecordError("fetch", "pipeline")
	m.RecordThroughput(1024)

	snap := m.Snapshot()
	if snap.StepCalls["extract"] != 2 {
		t.Errorf("extract calls: got %d, want 2", snap.StepCalls["extract"])
	}
	if snap.StepDurationsMs["extract"] != 500 {
		t.Errorf("extract duration: got %d ms, want 500", snap.StepDurationsMs["extract"])
	}
	if snap.StepErrors["fetch"] != 1 {
		t.Errorf("fetch errors: got %d, want 1", snap.StepErrors["fetch"])
	}
	if snap.TotalThroughputB != 1024 {
		t.Errorf("throughput: got %d, want 1024", snap.TotalThroughputB)
	}

	// The snapshot is a copy, not a view.
	m.RecordThroughput(1)
	if snap.TotalThroughputB != 1024 {
		t.Error("snapshot must be immutable")
	}
}

func TestMetricsHook(t *testing.T) {
	m := hooks.NewInMemoryMetrics()
	h := hooks.NewMetricsHook(m)

	det := core.DetectionResult{Format: core.FormatPNG, Payload: make([]byte, 64)}
	a := &core.Artifact{Detection: &det}
	h.AfterStep(context.Background(), "sniff", a, 10*time.Millisecond, nil)
	h.AfterStep(context.Background(), "fetch", nil, time.Millisecond, errors.New("boom"))

	snap := m.Snapshot()
	if snap.StepCalls["sniff"] != 1 {
		t.Errorf("sniff calls: got %d, want 1", snap.StepCalls["sniff"])
	}
	if snap.StepErrors["fetch"] != 1 {
		t.Errorf("fetch errors: got %d, want 1", snap.StepErrors["fetch"])
	}
	if snap.TotalThroughputB != 64 {
		t.Errorf("throughput: got %d, want 64", snap.TotalThroughputB)
	}
}
