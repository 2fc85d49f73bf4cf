package sim

import "github.com/xtding233/sancheck/internal/dice"

// DefaultSuccessProb is the chance a SAN check passes. The check is a coin
// flip, not a roll against the character's SAN.
const DefaultSuccessProb = 0.5

// CheckStep is one narrative event and its two possible SAN losses.
type CheckStep struct {
	Label       string
	SuccessLoss dice.Expr
	FailureLoss dice.Expr
}

// Apply performs one SAN check and returns the new SAN. The result is not
// clamped: it may go below zero.
func Apply(current int, step CheckStep, rng RandomSource) int {
	san, _ := applyCheck(current, step, DefaultSuccessProb, rng)
	return san
}

// applyCheck draws exactly one Float64 to pick the branch, then evaluates the
// chosen loss expression with the same source.
func applyCheck(current int, step CheckStep, p float64, rng RandomSource) (int, error) {
	if rng == nil {
		rng = DefaultRNG()
	}
	passed, err := Draw(p, rng)
	if err != nil {
		return current, err
	}
	loss := step.FailureLoss
	if passed {
		loss = step.SuccessLoss
	}
	return current - loss.Eval(rng), nil
}
