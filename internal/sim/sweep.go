package sim

import "context"

// SweepRow pairs a starting SAN with its aggregated result.
type SweepRow struct {
	InitialSAN int    `json:"initial_san"`
	Result     Result `json:"result"`
}

// DefaultInitialSANs returns 30, 35, ..., 80.
func DefaultInitialSANs() []int {
	vals, _ := SANRange(30, 80, 5)
	return vals
}

// SANRange returns from, from+step, ... up to and including to. Both ends
// must lie within [-MaxSAN, MaxSAN].
func SANRange(from, to, step int) ([]int, error) {
	if step <= 0 {
		return nil, configErr("initial_san.step", "must be positive, got %d", step)
	}
	if err := validateInitialSAN(from); err != nil {
		return nil, err
	}
	if err := validateInitialSAN(to); err != nil {
		return nil, err
	}
	if to < from {
		return nil, configErr("initial_san", "range %d..%d is empty", from, to)
	}
	n := (to-from)/step + 1
	if n > MaxInitialValues {
		return nil, configErr("initial_san", "range %d..%d step %d has more than %d values", from, to, step, MaxInitialValues)
	}
	vals := make([]int, n)
	for i := range vals {
		vals[i] = from + i*step
	}
	return vals, nil
}

// Sweep runs RunMonteCarlo once per starting SAN, in input order. Without a
// fixed seed one is drawn for the whole sweep and shared by every starting
// value, so columns are compared on the same random numbers.
func Sweep(ctx context.Context, sc Scenario, initialSANs []int, p Params) ([]SweepRow, error) {
	if len(initialSANs) == 0 {
		return nil, configErr("initial_san", "no starting values")
	}
	if len(initialSANs) > MaxInitialValues {
		return nil, configErr("initial_san", "must have at most %d values, got %d", MaxInitialValues, len(initialSANs))
	}
	for _, san := range initialSANs {
		if err := validateInitialSAN(san); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := validateScenario(sc); err != nil {
		return nil, err
	}
	seed, err := p.resolveSeed()
	if err != nil {
		return nil, err
	}

	rows := make([]SweepRow, 0, len(initialSANs))
	for _, san := range initialSANs {
		res, err := runChunks(ctx, san, sc, p, seed)
		if err != nil {
			return nil, err
		}
		rows = append(rows, SweepRow{InitialSAN: san, Result: res})
	}
	return rows, nil
}
