package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/sim"
)

func TestObserveSweep(t *testing.T) {
	r := New()
	rows := []sim.SweepRow{
		{InitialSAN: 10, Result: sim.Result{Trials: 10, Remaining: sim.Stats{Samples: []int{1, 2, 3}}}},
		{InitialSAN: 20, Result: sim.Result{Trials: 10, Remaining: sim.Stats{Samples: make([]int, 10)}}},
	}
	r.ObserveSweep(rows, 10*time.Millisecond, nil)
	r.ObserveSweep(nil, time.Millisecond, errors.New("bad"))

	assert.Equal(t, 13.0, testutil.ToFloat64(r.trials.WithLabelValues("completed")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.trials.WithLabelValues("breakdown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sweeps.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sweeps.WithLabelValues("error")))
}

func TestObserveFallbacks(t *testing.T) {
	r := New()
	r.ObserveFallbacks([]scenario.Fallback{{Action: "zero"}, {Action: "zero"}, {Action: "skip"}})
	assert.Equal(t, 2.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("zero")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("skip")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveSweep(nil, time.Second, nil)
		r.ObserveFallbacks([]scenario.Fallback{{Action: "zero"}})
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveSweep(nil, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sancheck_sweeps_total{status="ok"} 1`)
}
