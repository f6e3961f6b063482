// Package metrics exports per-run test metrics in the Prometheus text format,
// for pickup by the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dkoosis/labreport/pkg/notebook"
)

const Namespace = "labreport"

// Outcome label values.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeTodo    = "todo"
)

// Run holds the metrics of one run in an isolated registry.
type Run struct {
	registry *prometheus.Registry

	testsTotal  *prometheus.GaugeVec
	duration    prometheus.Gauge
	coverage    prometheus.Gauge
	leaksTotal  prometheus.Gauge
	failedTotal prometheus.Gauge
}

// New returns a run with every metric registered and zeroed.
func New() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	r := &Run{
		registry: reg,
		testsTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tests_total",
			Help:      "Number of tests in the run by outcome",
		}, []string{"outcome"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the run",
		}),
		coverage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "coverage_percent",
			Help:      "Aggregate statement coverage, -1 when not collected",
		}),
		leaksTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "leaks_total",
			Help:      "Number of leaks detected during the run",
		}),
		failedTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_failed",
			Help:      "1 when any test failed, 0 otherwise",
		}),
	}
	for _, o := range []string{OutcomePassed, OutcomeFailed, OutcomeSkipped, OutcomeTodo} {
		r.testsTotal.WithLabelValues(o).Set(0)
	}
	r.coverage.Set(-1)
	return r
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

// Observe records nb. Calling it again replaces the previous values.
func (r *Run) Observe(nb *notebook.Notebook) {
	s := nb.Stats()
	r.testsTotal.WithLabelValues(OutcomePassed).Set(float64(s.Passed))
	r.testsTotal.WithLabelValues(OutcomeFailed).Set(float64(s.Failed))
	r.testsTotal.WithLabelValues(OutcomeSkipped).Set(float64(s.Skipped))
	r.testsTotal.WithLabelValues(OutcomeTodo).Set(float64(s.Todo))
	r.duration.Set(nb.Duration.Seconds())
	r.leaksTotal.Set(float64(len(nb.Leaks)))
	if nb.Coverage != nil {
		r.coverage.Set(nb.Coverage.Percent)
	} else {
		r.coverage.Set(-1)
	}
	if s.Failed > 0 {
		r.failedTotal.Set(1)
	} else {
		r.failedTotal.Set(0)
	}
}

// WriteTextfile writes the metrics to path atomically.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
