package observability

import (
	"context"

	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Operations  *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Faults      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamemaster_engine_operations_total",
				Help: "Total number of engine operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gamemaster_engine_operation_duration_seconds",
				Help:    "Duration of engine operations",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"operation"},
		),
		Faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamemaster_engine_faults_total",
				Help: "Total number of internal engine faults",
			},
			[]string{"operation"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamemaster_session_transitions_total",
				Help: "Total number of session lifecycle transitions attempted",
			},
			[]string{"event", "outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.Operations, m.Duration, m.Faults, m.Transitions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns engine hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnOperation: func(ctx context.Context, e *domain.OperationEvent) {
			m.Operations.WithLabelValues(e.Operation, e.Outcome).Inc()
			m.Duration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
			if e.Outcome == string(fault.KindFault) {
				m.Faults.WithLabelValues(e.Operation).Inc()
			}
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.Event), string(fault.KindOf(e.Err))).Inc()
		},
	}
}
