// Package metrics exposes simulator activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/sim"
)

// Recorder owns a registry and the simulator's collectors. A nil *Recorder
// records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	trials    *prometheus.CounterVec
	sweeps    *prometheus.CounterVec
	duration  prometheus.Histogram
	fallbacks *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sancheck_trials_total",
				Help: "Simulated trials by outcome",
			},
			[]string{"outcome"},
		),
		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sancheck_sweeps_total",
				Help: "Sweeps by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sancheck_sweep_duration_seconds",
			Help:    "Wall time of one sweep",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sancheck_parse_fallbacks_total",
				Help: "Loss expressions replaced by the on_parse_error policy",
			},
			[]string{"action"},
		),
	}
	r.registry.MustRegister(r.trials, r.sweeps, r.duration, r.fallbacks)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveSweep records one finished (or failed) sweep.
func (r *Recorder) ObserveSweep(rows []sim.SweepRow, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.duration.Observe(d.Seconds())
	if err != nil {
		r.sweeps.WithLabelValues("error").Inc()
		return
	}
	r.sweeps.WithLabelValues("ok").Inc()
	for _, row := range rows {
		completed := len(row.Result.Remaining.Samples)
		r.trials.WithLabelValues("completed").Add(float64(completed))
		r.trials.WithLabelValues("breakdown").Add(float64(row.Result.Trials - completed))
	}
}

// ObserveFallbacks counts parse fallbacks by action.
func (r *Recorder) ObserveFallbacks(fbs []scenario.Fallback) {
	if r == nil {
		return
	}
	for _, fb := range fbs {
		r.fallbacks.WithLabelValues(fb.Action).Inc()
	}
}
