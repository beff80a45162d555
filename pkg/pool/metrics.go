package pool

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeCancel  = "cancel"
)

type metrics struct {
	submitted prometheus.Counter
	completed *prometheus.CounterVec
	busy      prometheus.Gauge
}

func newMetrics(name string, reg prometheus.Registerer) (*metrics, error) {
	labels := prometheus.Labels{"pool": name}

	m := &metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "mpsc",
			Subsystem:   "pool",
			Name:        "jobs_submitted_total",
			Help:        "Jobs accepted by the pool.",
			ConstLabels: labels,
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "mpsc",
			Subsystem:   "pool",
			Name:        "jobs_completed_total",
			Help:        "Jobs finished by the pool, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "mpsc",
			Subsystem:   "pool",
			Name:        "workers_busy",
			Help:        "Workers currently running a job.",
			ConstLabels: labels,
		}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.busy} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}
	return m, nil
}
