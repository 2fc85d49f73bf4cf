// Package service runs sweeps for the transports: it compiles documents,
// runs the engine, and logs and meters every run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/sancheck/internal/dice"
	"github.com/xtding233/sancheck/internal/logging"
	"github.com/xtding233/sancheck/internal/metrics"
	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/sim"
)

// MaxRolls bounds a single Roll request.
const MaxRolls = 1000

// Report is the outcome of one sweep, ready to serialize.
type Report struct {
	RunID     string                 `json:"run_id"`
	Scenario  string                 `json:"scenario,omitempty"`
	Steps     []string               `json:"steps"`
	Rows      []sim.SweepRow         `json:"rows"`
	Losses    []scenario.LossSummary `json:"losses"`
	Fallbacks []scenario.Fallback    `json:"fallbacks,omitempty"`
	ElapsedMS int64                  `json:"elapsed_ms"`
}

// Service is safe for concurrent use.
type Service struct {
	loader  *scenario.Loader
	logger  *slog.Logger
	metrics *metrics.Recorder
	workers int
}

// Option configures a Service.
type Option func(*Service)

// WithLoader enables named scenarios.
func WithLoader(l *scenario.Loader) Option { return func(s *Service) { s.loader = l } }

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithMetrics records every sweep on r.
func WithMetrics(r *metrics.Recorder) Option { return func(s *Service) { s.metrics = r } }

// WithWorkers sets the worker count used when a document does not set one.
func WithWorkers(n int) Option { return func(s *Service) { s.workers = n } }

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepDocument compiles doc and sweeps every starting SAN it lists.
func (s *Service) SweepDocument(ctx context.Context, doc scenario.Document) (Report, error) {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "scenario", doc.Name)

	compiled, err := scenario.Compile(doc)
	if err != nil {
		logger.Warn("compile failed", "error", err)
		s.metrics.ObserveSweep(nil, 0, err)
		return Report{}, err
	}
	for _, fb := range compiled.Fallbacks {
		logger.Warn("loss expression replaced", "step", fb.Step, "field", fb.Field, "text", fb.Text, "action", fb.Action)
	}
	s.metrics.ObserveFallbacks(compiled.Fallbacks)

	p := compiled.Params
	if doc.Workers == nil {
		p.Workers = s.workers
	}

	start := time.Now()
	rows, err := sim.Sweep(ctx, compiled.Scenario, compiled.InitialSANs, p)
	elapsed := time.Since(start)
	s.metrics.ObserveSweep(rows, elapsed, err)
	if err != nil {
		logger.Error("sweep failed", "error", err, "elapsed", elapsed)
		return Report{}, err
	}

	logger.Info("sweep done",
		"steps", compiled.Scenario.Len(),
		"initial_values", len(compiled.InitialSANs),
		"trials", rows[0].Result.Trials,
		"seed", rows[0].Result.Seed,
		"elapsed", elapsed,
	)
	return Report{
		RunID:     runID,
		Scenario:  compiled.Name,
		Steps:     compiled.Scenario.Labels(),
		Rows:      rows,
		Losses:    scenario.Summarize(compiled),
		Fallbacks: compiled.Fallbacks,
		ElapsedMS: elapsed.Milliseconds(),
	}, nil
}

// SweepScenario loads a named scenario, applies o, and sweeps it.
func (s *Service) SweepScenario(ctx context.Context, name string, o scenario.Overrides) (Report, error) {
	if s.loader == nil {
		return Report{}, fmt.Errorf("%w: %q", scenario.ErrUnknownScenario, name)
	}
	doc, err := s.loader.Load(name)
	if err != nil {
		return Report{}, err
	}
	return s.SweepDocument(ctx, o.Apply(doc))
}

// Scenarios lists the named scenarios.
func (s *Service) Scenarios() ([]string, error) {
	if s.loader == nil {
		return nil, nil
	}
	return s.loader.List()
}

// Roll evaluates expr n times.
func (s *Service) Roll(expr string, n int, seed *uint64) ([]int, error) {
	e, err := dice.Parse(expr)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > MaxRolls {
		return nil, &sim.ConfigError{Field: "n", Reason: fmt.Sprintf("must be in [1,%d], got %d", MaxRolls, n)}
	}
	rng := sim.DefaultRNG()
	if seed != nil {
		rng = sim.NewSeededRNG(*seed)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = e.Eval(rng)
	}
	return out, nil
}

// IsInvalidInput reports whether err was caused by the request rather than
// by the server: unparseable dice, bad parameters or an invalid document.
func IsInvalidInput(err error) bool {
	var perr *dice.ParseError
	return errors.As(err, &perr) ||
		errors.Is(err, sim.ErrConfiguration) ||
		errors.Is(err, sim.ErrInvalidProb) ||
		errors.Is(err, scenario.ErrInvalid)
}
