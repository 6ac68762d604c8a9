package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatherInfo(t *testing.T, reg *prometheus.Registry, name string) []map[string]string {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	var samples []map[string]string
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if metric.GetGauge().GetValue() != 1 {
				t.Fatalf("info sample must have value 1, got %v", metric.GetGauge().GetValue())
			}
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			samples = append(samples, labels)
		}
	}
	return samples
}

func TestInfo_SetAndCollect(t *testing.T) {
	reg := prometheus.NewRegistry()
	info := NewInfo(reg, "test_info", "test info metric")

	info.Set(prometheus.Labels{"bridge_name": "a"}, map[string]string{"version": "1.0"})

	samples := gatherInfo(t, reg, "test_info")
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0]["bridge_name"] != "a" || samples[0]["version"] != "1.0" {
		t.Fatalf("unexpected labels: %v", samples[0])
	}
}

func TestInfo_SnapshotReplaced(t *testing.T) {
	reg := prometheus.NewRegistry()
	info := NewInfo(reg, "test_info", "test info metric")
	identity := prometheus.Labels{"bridge_name": "a"}

	info.Set(identity, map[string]string{"version": "1.0", "commit": "abc"})
	info.Set(identity, map[string]string{"version": "2.0"})

	samples := gatherInfo(t, reg, "test_info")
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0]["version"] != "2.0" {
		t.Fatalf("snapshot not replaced: %v", samples[0])
	}
	if _, ok := samples[0]["commit"]; ok {
		t.Fatalf("stale attribute survived: %v", samples[0])
	}
}

func TestInfo_EmptySnapshotIsNoOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	info := NewInfo(reg, "test_info", "test info metric")
	identity := prometheus.Labels{"bridge_name": "a"}

	info.Set(identity, map[string]string{"version": "1.0"})
	info.Set(identity, map[string]string{})
	info.Set(identity, nil)

	samples := gatherInfo(t, reg, "test_info")
	if len(samples) != 1 || samples[0]["version"] != "1.0" {
		t.Fatalf("empty set must not wipe the snapshot: %v", samples)
	}
}

func TestInfo_IdentityCollisionDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	info := NewInfo(reg, "test_info", "test info metric")

	info.Set(prometheus.Labels{"bridge_name": "a"}, map[string]string{
		"bridge_name": "spoofed",
		"version":     "1.0",
	})

	samples := gatherInfo(t, reg, "test_info")
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0]["bridge_name"] != "a" {
		t.Fatalf("identity label overwritten: %v", samples[0])
	}
}

func TestInfo_IndependentIdentities(t *testing.T) {
	reg := prometheus.NewRegistry()
	info := NewInfo(reg, "test_info", "test info metric")

	info.Set(prometheus.Labels{"bridge_name": "a"}, map[string]string{"version": "1.0"})
	info.Set(prometheus.Labels{"bridge_name": "b"}, map[string]string{"version": "2.0"})

	samples := gatherInfo(t, reg, "test_info")
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
}

func TestInfo_UnsetEmitsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewInfo(reg, "test_info", "test info metric")

	if samples := gatherInfo(t, reg, "test_info"); len(samples) != 0 {
		t.Fatalf("fresh info must emit nothing, got %v", samples)
	}
}
