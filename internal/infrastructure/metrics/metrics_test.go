package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.Commits == nil || m.HTTPRequests == nil || m.RelayPublished == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.Commits.WithLabelValues("transfer", "success").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewWithRegistryIsolated(t *testing.T) {
	// Two registries must not collide on registration.
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}

func TestObserveRelayPass(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveRelayPass(3, 12, nil)
	m.ObserveRelayPass(0, 12, errors.New("broker down"))

	if got := testutil.ToFloat64(m.RelayPublished); got != 3 {
		t.Fatalf("expected 3 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.RelayFailures); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.RelayCursor); got != 12 {
		t.Fatalf("expected cursor 12, got %v", got)
	}
}
