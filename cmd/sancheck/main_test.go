package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/sancheck/internal/render"
	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/service"
)

const zombieYAML = `
name: zombie
trials: 400
seed: 3
initial_san: {values: [1, 40]}
checks:
  - {event: Meet a zombie, success: "0", failure: 1D3}
  - {event: Dark cellar, success: "0", failure: "1"}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunMarkdown(t *testing.T) {
	path := writeScenario(t, zombieYAML)
	out, err := execute(t, "run", path)
	require.NoError(t, err)

	assert.Contains(t, out, "# SAN check simulation: zombie")
	assert.Contains(t, out, "| Check | SAN 1 | SAN 40 |")
	assert.Contains(t, out, "| Dark cellar |")
	assert.Contains(t, out, "400 trials per column, seed 3.")
	assert.Contains(t, out, render.Notice)
}

func TestRunJSONOverrides(t *testing.T) {
	path := writeScenario(t, zombieYAML)
	out, err := execute(t, "run", path, "--json", "--trials", "50", "--seed", "9", "--san", "10,20,30")
	require.NoError(t, err)

	var rep service.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, 10, rep.Rows[0].InitialSAN)
	assert.Equal(t, 50, rep.Rows[0].Result.Trials)
	assert.Equal(t, uint64(9), rep.Rows[0].Result.Seed)
	assert.Equal(t, []string{"Meet a zombie", "Dark cellar"}, rep.Steps)
}

func TestRunSeedIsReproducible(t *testing.T) {
	path := writeScenario(t, zombieYAML)
	a, err := execute(t, "run", path, "--json", "--workers", "1")
	require.NoError(t, err)
	b, err := execute(t, "run", path, "--json", "--workers", "4")
	require.NoError(t, err)

	var ra, rb service.Report
	require.NoError(t, json.Unmarshal([]byte(a), &ra))
	require.NoError(t, json.Unmarshal([]byte(b), &rb))
	assert.Equal(t, ra.Rows, rb.Rows)
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeScenario(t, "checks:\n  - {event: X, success: \"0\", failure: 1Q4}\n")
	_, err = execute(t, "run", path)
	assert.ErrorContains(t, err, "1Q4")
}

func TestRoll(t *testing.T) {
	out, err := execute(t, "roll", "2D1", "--n", "3")
	require.NoError(t, err)
	assert.Equal(t, "2\n2\n2\n", out)

	a, err := execute(t, "roll", "1D100", "--n", "5", "--seed", "11")
	require.NoError(t, err)
	b, err := execute(t, "roll", "1D100", "--n", "5", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = execute(t, "roll", "D6")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", writeScenario(t, zombieYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "2 checks, 2 starting SAN values")
	assert.Contains(t, out, "Meet a zombie: success 0 [0,0], failure 1D3 [1,3], expected loss 1.00")
	assert.Contains(t, out, "Worst case loss: 4")

	out, err = execute(t, "validate", writeScenario(t, `
on_parse_error: zero
checks:
  - {event: X, success: "0", failure: bad}
`))
	require.NoError(t, err)
	assert.Contains(t, out, `warning: X failure loss "bad" replaced (zero)`)

	_, err = execute(t, "validate", writeScenario(t, "trials: 0\nchecks: []\n"))
	assert.ErrorIs(t, err, scenario.ErrInvalid)
}

func TestEdit(t *testing.T) {
	path := writeScenario(t, zombieYAML)

	out, err := execute(t, "edit", path, "--append", "--event", "Ghoul", "--failure", "1D6")
	require.NoError(t, err)
	doc, err := scenario.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, doc.Checks, 3)
	assert.Equal(t, scenario.Entry{Event: "Ghoul", Success: "0", Failure: "1D6"}, doc.Checks[2])

	out, err = execute(t, "edit", path, "--insert", "1", "--event", "Whisper", "--success", "1", "--failure", "1D2")
	require.NoError(t, err)
	doc, err = scenario.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, doc.Checks, 3)
	assert.Equal(t, []string{"Meet a zombie", "Whisper", "Dark cellar"},
		[]string{doc.Checks[0].Event, doc.Checks[1].Event, doc.Checks[2].Event})
	assert.Equal(t, scenario.Entry{Event: "Whisper", Success: "1", Failure: "1D2"}, doc.Checks[1])

	out, err = execute(t, "edit", path, "--down", "0")
	require.NoError(t, err)
	doc, err = scenario.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Dark cellar", doc.Checks[0].Event)

	dst := filepath.Join(t.TempDir(), "out.yaml")
	_, err = execute(t, "edit", path, "--delete", "1", "-o", dst)
	require.NoError(t, err)
	doc, err = scenario.ReadFile(dst)
	require.NoError(t, err)
	require.Len(t, doc.Checks, 1)
	assert.Equal(t, "Meet a zombie", doc.Checks[0].Event)

	// source untouched
	orig, err := scenario.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, orig.Checks, 2)
}

func TestEditErrors(t *testing.T) {
	path := writeScenario(t, zombieYAML)

	_, err := execute(t, "edit", path)
	assert.Error(t, err)

	_, err = execute(t, "edit", path, "--up", "1", "--down", "0")
	assert.Error(t, err)

	_, err = execute(t, "edit", path, "--delete", "5")
	assert.ErrorIs(t, err, scenario.ErrIndexOutOfRange)

	_, err = execute(t, "edit", path, "--insert", "3")
	assert.ErrorIs(t, err, scenario.ErrIndexOutOfRange)

	_, err = execute(t, "edit", path, "--insert", "0", "--append")
	assert.Error(t, err)
}

func TestLogLevelFlag(t *testing.T) {
	_, err := execute(t, "roll", "1", "--log-level", "loud")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loud"))
}
