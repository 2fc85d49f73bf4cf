package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/sancheck/internal/logging"
	"github.com/xtding233/sancheck/internal/metrics"
	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/sim"
)

func seededDoc(seed uint64) scenario.Document {
	doc := scenario.DefaultDocument()
	doc.Seed = &seed
	doc.InitialSAN = &scenario.SANConfig{Values: []int{1, 30}}
	return doc
}

func TestSweepDocument(t *testing.T) {
	var logs bytes.Buffer
	s := New(WithLogger(logging.NewWithWriter(&logs, slog.LevelInfo)), WithMetrics(metrics.New()), WithWorkers(2))

	rep, err := s.SweepDocument(context.Background(), seededDoc(7))
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "default", rep.Scenario)
	assert.Equal(t, []string{"Meet a zombie"}, rep.Steps)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, 1, rep.Rows[0].InitialSAN)
	assert.Equal(t, 100.0, rep.Rows[1].Result.CompletionRate)
	require.Len(t, rep.Losses, 1)
	assert.Equal(t, 3, rep.Losses[0].Failure.Max)
	assert.InDelta(t, 1.0, rep.Losses[0].Expected, 1e-9)
	assert.Contains(t, logs.String(), "sweep done")
	assert.Contains(t, logs.String(), rep.RunID)
}

func TestSweepDocumentReproducible(t *testing.T) {
	s := New()
	a, err := s.SweepDocument(context.Background(), seededDoc(11))
	require.NoError(t, err)
	b, err := New(WithWorkers(7)).SweepDocument(context.Background(), seededDoc(11))
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSweepDocumentFallbacks(t *testing.T) {
	doc := seededDoc(1)
	doc.OnParseError = scenario.OnParseZero
	doc.Checks = append(doc.Checks, scenario.Entry{Event: "typo", Success: "0", Failure: "2X6"})

	rep, err := New().SweepDocument(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, rep.Fallbacks, 1)
	assert.Equal(t, "typo", rep.Fallbacks[0].Step)
}

func TestSweepDocumentInvalid(t *testing.T) {
	s := New()

	doc := seededDoc(1)
	doc.Checks[0].Failure = "abc"
	_, err := s.SweepDocument(context.Background(), doc)
	assert.True(t, IsInvalidInput(err))

	doc = seededDoc(1)
	doc.Checks = nil
	_, err = s.SweepDocument(context.Background(), doc)
	assert.True(t, IsInvalidInput(err))

	doc = seededDoc(1)
	doc.OnParseError = scenario.OnParseSkip
	doc.Checks = []scenario.Entry{{Event: "bad", Success: "?", Failure: "?"}}
	_, err = s.SweepDocument(context.Background(), doc)
	assert.ErrorIs(t, err, sim.ErrConfiguration, "skipping every check leaves nothing to run")

	assert.False(t, IsInvalidInput(errors.New("disk on fire")))
}

func TestSweepScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenarios"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenarios", "asylum.yaml"), []byte(`
checks:
  - {event: Screams, success: "1", failure: 1D4}
`), 0o644))

	s := New(WithLoader(scenario.NewLoader(dir)))
	trials := 200
	seed := uint64(3)
	rep, err := s.SweepScenario(context.Background(), "asylum", scenario.Overrides{Trials: &trials, Seed: &seed, InitialSAN: []int{5}})
	require.NoError(t, err)
	assert.Equal(t, "asylum", rep.Scenario)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, 200, rep.Rows[0].Result.Trials)

	_, err = s.SweepScenario(context.Background(), "nope", scenario.Overrides{})
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)

	names, err := s.Scenarios()
	require.NoError(t, err)
	assert.Equal(t, []string{"asylum"}, names)

	_, err = New().SweepScenario(context.Background(), "asylum", scenario.Overrides{})
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)
}

func TestRoll(t *testing.T) {
	s := New()
	seed := uint64(1)
	vals, err := s.Roll("2d6", 50, &seed)
	require.NoError(t, err)
	require.Len(t, vals, 50)
	for _, v := range vals {
		assert.GreaterOrEqual(t, v, 2)
		assert.LessOrEqual(t, v, 12)
	}

	again, err := s.Roll("2D6", 50, &seed)
	require.NoError(t, err)
	assert.Equal(t, vals, again)

	_, err = s.Roll("two", 1, nil)
	assert.True(t, IsInvalidInput(err))
	_, err = s.Roll("1D6", 0, nil)
	assert.True(t, IsInvalidInput(err))
}
