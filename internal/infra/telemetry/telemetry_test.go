package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterCollectorReturnsExisting(t *testing.T) {
	registry := prometheus.NewRegistry()
	opts := prometheus.CounterOpts{Namespace: "console", Name: "logins_total", Help: "Logins."}

	first, err := RegisterCollector(registry, prometheus.NewCounterVec(opts, []string{"outcome"}))
	if err != nil {
		t.Fatalf("RegisterCollector returned error: %v", err)
	}

	second, err := RegisterCollector(registry, prometheus.NewCounterVec(opts, []string{"outcome"}))
	if err != nil {
		t.Fatalf("RegisterCollector returned error on re-register: %v", err)
	}

	if first != second {
		t.Fatalf("expected the existing collector to be reused")
	}
}

func TestRegisterCollectorTypeMismatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	opts := prometheus.GaugeOpts{Namespace: "console", Name: "active", Help: "Active."}

	if _, err := RegisterCollector(registry, prometheus.NewGauge(opts)); err != nil {
		t.Fatalf("RegisterCollector returned error: %v", err)
	}

	if _, err := RegisterCollector(registry, prometheus.NewGaugeVec(opts, nil)); err == nil {
		t.Fatalf("expected error when the existing collector has a different type")
	}
}
