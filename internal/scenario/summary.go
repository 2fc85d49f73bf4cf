package scenario

import (
	"github.com/xtding233/sancheck/internal/dice"
	"github.com/xtding233/sancheck/internal/sim"
)

// LossRange is what one loss expression can take away.
type LossRange struct {
	Expr string  `json:"expr"`
	Dice bool    `json:"dice"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// LossSummary lists the possible losses of the check in one slot.
type LossSummary struct {
	Step    string    `json:"step"`
	Success LossRange `json:"success"`
	Failure LossRange `json:"failure"`
	// Mean loss at the scenario's success probability.
	Expected float64 `json:"expected"`
}

func lossRange(e dice.Expr) LossRange {
	return LossRange{Expr: e.String(), Dice: e.IsDice(), Min: e.Min(), Max: e.Max(), Mean: e.Mean()}
}

// Summarize describes every check of c in slot order.
func Summarize(c Compiled) []LossSummary {
	p := sim.DefaultSuccessProb
	if c.Params.SuccessProb != nil {
		p = *c.Params.SuccessProb
	}
	labels := c.Scenario.Labels()
	steps := c.Scenario.Steps()
	out := make([]LossSummary, len(steps))
	for i, s := range steps {
		out[i] = LossSummary{
			Step:     labels[i],
			Success:  lossRange(s.SuccessLoss),
			Failure:  lossRange(s.FailureLoss),
			Expected: p*s.SuccessLoss.Mean() + (1-p)*s.FailureLoss.Mean(),
		}
	}
	return out
}

// WorstCase is the largest total loss a single trial can suffer when every
// branch takes its costliest path and every check rolls its maximum.
func WorstCase(c Compiled) int {
	return worstCase(c.Scenario.Nodes())
}

func worstCase(nodes []sim.Node) int {
	total := 0
	for _, n := range nodes {
		if n.Step != nil {
			total += max(n.Step.SuccessLoss.Max(), n.Step.FailureLoss.Max())
			continue
		}
		worst := 0
		for _, p := range n.Branch.Paths {
			worst = max(worst, worstCase(p.Nodes))
		}
		total += worst
	}
	return total
}
