package sim

import "fmt"

// BranchPolicy picks the path a trial takes through a branch.
// Implementations must be safe for concurrent use.
type BranchPolicy interface {
	Choose(b *Branch, rng RandomSource) (int, error)
}

// WeightedChoice picks a path with probability proportional to its weight,
// or uniformly when every weight is zero.
type WeightedChoice struct{}

func (WeightedChoice) Choose(b *Branch, rng RandomSource) (int, error) {
	n := len(b.Paths)
	if n == 0 {
		return 0, configErr("branch", "%q has no paths", b.Label)
	}
	if n == 1 {
		return 0, nil
	}
	var total float64
	for _, p := range b.Paths {
		total += p.Weight
	}
	if total <= 0 {
		return rng.IntN(n), nil
	}
	r := rng.Float64() * total
	for i, p := range b.Paths {
		if r < p.Weight {
			return i, nil
		}
		r -= p.Weight
	}
	// float rounding: land on the last weighted path
	for i := n - 1; i >= 0; i-- {
		if b.Paths[i].Weight > 0 {
			return i, nil
		}
	}
	return n - 1, nil
}

// FixedChoice maps a branch label to the path index every trial takes.
type FixedChoice map[string]int

func (f FixedChoice) Choose(b *Branch, _ RandomSource) (int, error) {
	i, ok := f[b.Label]
	if !ok {
		return 0, configErr("branch", "no path selected for %q", b.Label)
	}
	if i < 0 || i >= len(b.Paths) {
		return 0, configErr("branch", "%q has no path %d", b.Label, i)
	}
	return i, nil
}

func checkChoice(b *Branch, i int) error {
	if i < 0 || i >= len(b.Paths) {
		return fmt.Errorf("branch %q: policy chose path %d of %d: %w", b.Label, i, len(b.Paths), ErrConfiguration)
	}
	return nil
}
