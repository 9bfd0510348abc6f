// Package metrics records step and scenario outcomes in a prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	Passed = "passed"
	Failed = "failed"
)

// Recorder holds the suite metrics.
type Recorder struct {
	reg              *prometheus.Registry
	steps            *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	scenarios        *prometheus.CounterVec
	scenarioDuration *prometheus.HistogramVec
	lastSuccess      *prometheus.GaugeVec
}

// New creates a Recorder on its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saucedemo_steps_total",
			Help: "Total number of page workflow steps by outcome",
		}, []string{"step", "result"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saucedemo_step_duration_seconds",
			Help:    "Page workflow step latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saucedemo_scenarios_total",
			Help: "Total number of scenario runs by outcome",
		}, []string{"scenario", "persona", "result"}),
		scenarioDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saucedemo_scenario_duration_seconds",
			Help:    "Scenario run latency",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"scenario"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saucedemo_scenario_last_success_timestamp_seconds",
			Help: "Unix time of the last passing run of a scenario",
		}, []string{"scenario"}),
	}
}

// Result maps an error to an outcome label.
func Result(err error) string {
	if err != nil {
		return Failed
	}
	return Passed
}

// ObserveStep records one workflow step.
func (r *Recorder) ObserveStep(step string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(step, Result(err)).Inc()
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveScenario records one scenario run.
func (r *Recorder) ObserveScenario(scenario, persona string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.scenarios.WithLabelValues(scenario, persona, Result(err)).Inc()
	r.scenarioDuration.WithLabelValues(scenario).Observe(d.Seconds())
	if err == nil {
		r.lastSuccess.WithLabelValues(scenario).SetToCurrentTime()
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
