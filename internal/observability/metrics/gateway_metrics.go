package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	GatewayOutcomeLive                = "live"
	GatewayOutcomeFailover            = "failover"
	GatewayOutcomeFailoverStale       = "failover_stale"
	GatewayOutcomeFailoverUnavailable = "failover_unavailable"

	GatewayReasonShortCircuit  = "short_circuit"
	GatewayReasonRemoteFailure = "remote_failure"
)

// GatewayMetrics tracks the external invoice gateway and its breaker.
type GatewayMetrics struct {
	calls          *prometheus.CounterVec
	remoteAttempts *prometheus.CounterVec
	failovers      *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

// NewGatewayMetrics registers gateway collectors on registerer.
func NewGatewayMetrics(registerer prometheus.Registerer, cfg Config) *GatewayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "supplierspend"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "supplierspend_gateway_calls_total",
		Help:        "External invoice gateway calls by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	remoteAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "supplierspend_gateway_remote_attempts_total",
		Help:        "Individual remote endpoint attempts, including retries.",
		ConstLabels: constLabels,
	}, []string{"result"})
	failovers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "supplierspend_gateway_failover_total",
		Help:        "Failover snapshot lookups by triggering reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "supplierspend_gateway_breaker_transitions_total",
		Help:        "Circuit breaker state transitions.",
		ConstLabels: constLabels,
	}, []string{"from", "to"})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "supplierspend_gateway_breaker_state",
		Help:        "Current circuit breaker state, 1 for the active state.",
		ConstLabels: constLabels,
	}, []string{"state"})

	registerer.MustRegister(calls, remoteAttempts, failovers, transitions, breakerState)

	m := &GatewayMetrics{
		calls:          calls,
		remoteAttempts: remoteAttempts,
		failovers:      failovers,
		transitions:    transitions,
		breakerState:   breakerState,
	}
	m.SetBreakerState("closed")
	return m
}

func (m *GatewayMetrics) RecordCall(outcome string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(outcome).Inc()
}

func (m *GatewayMetrics) RecordRemoteAttempt(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.remoteAttempts.WithLabelValues(result).Inc()
}

func (m *GatewayMetrics) RecordFailover(reason string) {
	if m == nil {
		return
	}
	m.failovers.WithLabelValues(reason).Inc()
}

func (m *GatewayMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
	m.SetBreakerState(to)
}

// SetBreakerState flips the state gauge so exactly one state reads 1.
func (m *GatewayMetrics) SetBreakerState(state string) {
	if m == nil {
		return
	}
	for _, s := range []string{"closed", "open", "half_open"} {
		value := 0.0
		if s == state {
			value = 1
		}
		m.breakerState.WithLabelValues(s).Set(value)
	}
}
