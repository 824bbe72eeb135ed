package redis

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/MHafidafandi/sipeduli-console/internal/infra/config"
)

func settingsFor(t *testing.T, mr *miniredis.Miniredis) config.RedisSettings {
	t.Helper()
	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("split miniredis addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse miniredis port: %v", err)
	}
	return config.RedisSettings{Host: host, Port: port}
}

func TestNewClientPingsAndReportsHealth(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), settingsFor(t, mr), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	registry := prometheus.NewRegistry()
	if err := client.RegisterPoolMetrics(registry); err != nil {
		t.Fatalf("RegisterPoolMetrics returned error: %v", err)
	}
	if count, err := testutil.GatherAndCount(registry); err != nil || count != 3 {
		t.Fatalf("expected 3 pool gauges, got %d (err %v)", count, err)
	}

	mr.Close()
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected health check to fail once redis is gone")
	}
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := settingsFor(t, mr)
	mr.Close()

	if _, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected an error for an unreachable redis")
	}
}
