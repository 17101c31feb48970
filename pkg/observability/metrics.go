package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// Metrics collects pipeline counters and histograms on its own registry, so
// two instances in one process never fight over registration.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	nodeRetries    *prometheus.CounterVec
	generatorCalls *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_runs_total",
				Help: "Completed pipeline runs by outcome.",
			},
			[]string{"status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribe_node_duration_seconds",
				Help:    "Wall time of each pipeline step.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		nodeRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_node_retries_total",
				Help: "Retry attempts by pipeline step.",
			},
			[]string{"node"},
		),
		generatorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_generator_calls_total",
				Help: "Chat model calls by outcome.",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(m.runsTotal, m.nodeDuration, m.nodeRetries, m.generatorCalls)
	return m
}

// Hooks returns lifecycle hooks that feed the metrics. Merge them with any
// other hooks the caller installs.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnd: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnNodeRetry: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeRetries.WithLabelValues(e.Node).Inc()
		},
		OnRunEnd: func(ctx context.Context, e *domain.NodeEvent) {
			status := "completed"
			if e.Err != "" {
				status = "failed"
			}
			m.runsTotal.WithLabelValues(status).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentGenerator wraps gen so every chat model call is counted by
// outcome. The wrapped generator is otherwise transparent.
func (m *Metrics) InstrumentGenerator(gen ports.Generator) ports.Generator {
	return ports.GeneratorFunc(func(ctx context.Context, prompt string, maxTokens int) (string, error) {
		out, err := gen.Generate(ctx, prompt, maxTokens)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.generatorCalls.WithLabelValues(outcome).Inc()
		return out, err
	})
}
