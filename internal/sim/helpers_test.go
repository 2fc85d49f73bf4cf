package sim

import "github.com/xtding233/sancheck/internal/dice"

// fixedRNG returns the same values forever.
type fixedRNG struct {
	f float64
	i int
}

func (r fixedRNG) Float64() float64 { return r.f }
func (r fixedRNG) IntN(n int) int {
	if r.i >= n {
		return n - 1
	}
	return r.i
}

func step(label, success, failure string) CheckStep {
	return CheckStep{
		Label:       label,
		SuccessLoss: dice.MustParse(success),
		FailureLoss: dice.MustParse(failure),
	}
}

func seed(v uint64) *uint64 { return &v }
