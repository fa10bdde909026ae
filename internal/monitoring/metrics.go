package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// ExternalAPIMetrics contains all metrics for chain RPC monitoring
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletpay_external_api_duration_seconds",
				Help:    "Duration of chain RPC calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletpay_external_api_calls_total",
				Help: "Total number of chain RPC calls",
			},
			[]string{"api_name", "status"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "walletpay_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),

		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletpay_external_api_timeouts_total",
				Help: "Total number of chain RPC timeouts",
			},
			[]string{"api_name", "timeout_type"},
		),
	}
}

func (m *ExternalAPIMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

func (m *ExternalAPIMetrics) RecordTimeout(apiName, timeoutType string) {
	m.timeouts.WithLabelValues(apiName, timeoutType).Inc()
}
