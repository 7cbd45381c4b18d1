package metrics

import (
	"time"

	coremetrics "github.com/escaladev/escala/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	nodes    prometheus.Counter
	duration prometheus.Histogram
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server should be started separately.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Total number of scheduling runs by solver status",
	}, []string{"status"})
	nodes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_solver_nodes_total",
		Help: "Total number of search nodes explored by the solver",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_run_duration_seconds",
		Help:    "Wall time spent per scheduling run",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(nodes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			nodes = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, nodes: nodes, duration: duration}, nil
}

// RecordRun increments the run counter and observes the solver effort.
func (s *PromSink) RecordRun(status string, nodes int64, elapsed time.Duration) {
	s.runs.WithLabelValues(status).Inc()
	s.nodes.Add(float64(nodes))
	s.duration.Observe(elapsed.Seconds())
}
