package session

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MHafidafandi/sipeduli-console/internal/infra/telemetry"
)

// Refresh outcomes recorded by Metrics.
const (
	refreshSucceeded = "success"
	refreshFailed    = "failure"
)

// MetricsOptions configures session client collectors.
type MetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
}

// Metrics holds Prometheus collectors for the session client. A nil *Metrics records nothing.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Refreshes *prometheus.CounterVec
	Retries   prometheus.Counter
	Sessions  *prometheus.CounterVec
}

// NewMetrics constructs and registers the session collectors.
func NewMetrics(opts MetricsOptions) (*Metrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "console"
	}
	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "session"
	}

	requests, err := telemetry.RegisterCollector(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_requests_total",
		Help:      "Remote API calls partitioned by method and status code.",
	}, []string{"method", "status"}))
	if err != nil {
		return nil, err
	}

	refreshes, err := telemetry.RegisterCollector(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refreshes_total",
		Help:      "Token refresh attempts partitioned by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	retries, err := telemetry.RegisterCollector(opts.Registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "unauthorized_retries_total",
		Help:      "Requests replayed after a 401 response.",
	}))
	if err != nil {
		return nil, err
	}

	sessions, err := telemetry.RegisterCollector(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "lifecycle_events_total",
		Help:      "Session lifecycle transitions partitioned by kind.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Requests:  requests,
		Refreshes: refreshes,
		Retries:   retries,
		Sessions:  sessions,
	}, nil
}

func (m *Metrics) observeRequest(method, status string) {
	if m == nil || m.Requests == nil {
		return
	}
	m.Requests.WithLabelValues(method, status).Inc()
}

func (m *Metrics) observeRefresh(outcome string) {
	if m == nil || m.Refreshes == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRetry() {
	if m == nil || m.Retries == nil {
		return
	}
	m.Retries.Inc()
}

func (m *Metrics) observeLifecycle(kind string) {
	if m == nil || m.Sessions == nil {
		return
	}
	m.Sessions.WithLabelValues(kind).Inc()
}
