package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	breakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_requests_total",
		Help: "Total requests passed through each circuit breaker",
	}, []string{"breaker"})

	breakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_failures_total",
		Help: "Total failed requests per circuit breaker",
	}, []string{"breaker"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"breaker"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts per operation",
	}, []string{"operation"})

	retrySuccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_success_total",
		Help: "Operations that succeeded after at least one retry",
	}, []string{"operation"})
)

func recordBreakerRequest(name string) {
	breakerRequests.WithLabelValues(name).Inc()
}

func recordBreakerFailure(name string) {
	breakerFailures.WithLabelValues(name).Inc()
}

func recordBreakerStateChange(name string, _, to gobreaker.State) {
	var value float64
	switch to {
	case gobreaker.StateClosed:
		value = 0
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	breakerState.WithLabelValues(name).Set(value)
}

func recordRetryAttempt(name string) {
	retryAttempts.WithLabelValues(name).Inc()
}

func recordRetrySuccess(name string) {
	retrySuccesses.WithLabelValues(name).Inc()
}
