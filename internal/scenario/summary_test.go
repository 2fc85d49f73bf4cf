package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	prob := 0.25
	c, err := Compile(Document{
		SuccessProb: &prob,
		Checks: []Entry{
			{Event: "Meet a zombie", Success: "0", Failure: "1D3"},
			{Branch: "door", Paths: []PathEntry{
				{Label: "open", Checks: []Entry{{Event: "Ghoul", Success: "1", Failure: "2D6"}}},
				{Label: "flee", Checks: []Entry{{Event: "Chase", Success: "0", Failure: "1"}}},
			}},
		},
	})
	require.NoError(t, err)

	sum := Summarize(c)
	require.Len(t, sum, 3)

	assert.Equal(t, "Meet a zombie", sum[0].Step)
	assert.Equal(t, LossRange{Expr: "0", Min: 0, Max: 0, Mean: 0}, sum[0].Success)
	assert.Equal(t, LossRange{Expr: "1D3", Dice: true, Min: 1, Max: 3, Mean: 2}, sum[0].Failure)
	assert.InDelta(t, 1.5, sum[0].Expected, 1e-9)

	assert.Equal(t, "door/open/Ghoul", sum[1].Step)
	assert.Equal(t, 2, sum[1].Failure.Min)
	assert.Equal(t, 12, sum[1].Failure.Max)
	assert.InDelta(t, 0.25*1+0.75*7, sum[1].Expected, 1e-9)

	assert.Equal(t, "door/flee/Chase", sum[2].Step)
}

func TestWorstCase(t *testing.T) {
	c, err := Compile(Document{Checks: []Entry{
		{Event: "a", Success: "2", Failure: "1D4"},
		{Branch: "b", Paths: []PathEntry{
			{Checks: []Entry{{Event: "x", Success: "0", Failure: "10"}}},
			{Checks: []Entry{{Event: "y", Success: "0", Failure: "2D6"}, {Event: "z", Success: "0", Failure: "1"}}},
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 4+13, WorstCase(c))
}
