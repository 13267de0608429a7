package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "enroll"

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	eligibility     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_transitions_total",
				Help:      "Workflow transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Provider call attempts, retries included",
			},
			[]string{"provider", "op", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider", "op"},
		),
		eligibility: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "eligibility_checks_total",
				Help:      "Product rule evaluations by result",
			},
			[]string{"product", "result"},
		),
	}

	m.registry.MustRegister(m.transitions, m.providerCalls, m.providerLatency, m.eligibility)
	return m
}

// Registry returns the private registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks records every lifecycle event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnProviderCall: func(_ context.Context, e *domain.ProviderCallEvent) {
			m.providerCalls.WithLabelValues(e.ProviderID, e.Op, outcome(e.Err)).Inc()
			m.providerLatency.WithLabelValues(e.ProviderID, e.Op).Observe(e.Duration.Seconds())
		},
		OnEligibility: func(_ context.Context, e *domain.EligibilityEvent) {
			result := "ineligible"
			if e.Eligible {
				result = "eligible"
			}
			m.eligibility.WithLabelValues(e.ProductID, result).Inc()
		},
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsRetryable(err):
		return "retryable_error"
	default:
		return "error"
	}
}
