package sim

// Sample is the SAN observed right after the check in Slot.
type Sample struct {
	Slot int `json:"slot"`
	SAN  int `json:"san"`
}

// TrialOutcome is the result of one walk through a scenario.
type TrialOutcome struct {
	Completed bool     // true if SAN stayed above zero through every check
	Step      int      // slot where SAN first reached <= 0; -1 when Completed
	SAN       int      // SAN at the terminal point
	Trace     []Sample // every check evaluated, in order
}

// trial walks one scenario. visit is called after every evaluated check.
type trial struct {
	rng    RandomSource
	policy BranchPolicy
	prob   float64
	visit  func(slot, san int)
}

// walk returns the SAN after nodes and the slot of the breakdown, or -1 if
// SAN never reached zero. Nothing after a breakdown is evaluated.
func (t *trial) walk(san int, nodes []Node) (int, int, error) {
	for i := range nodes {
		n := &nodes[i]
		if n.Branch != nil {
			choice, err := t.policy.Choose(n.Branch, t.rng)
			if err != nil {
				return san, -1, err
			}
			if err := checkChoice(n.Branch, choice); err != nil {
				return san, -1, err
			}
			var broke int
			san, broke, err = t.walk(san, n.Branch.Paths[choice].Nodes)
			if err != nil || broke >= 0 {
				return san, broke, err
			}
			continue
		}

		next, err := applyCheck(san, *n.Step, t.prob, t.rng)
		if err != nil {
			return san, -1, err
		}
		san = next
		if t.visit != nil {
			t.visit(n.slot, san)
		}
		if san <= 0 {
			return san, n.slot, nil
		}
	}
	return san, -1, nil
}

// Run simulates one trial starting at initialSAN. A nil policy means
// WeightedChoice; a nil rng means DefaultRNG.
func Run(initialSAN int, sc Scenario, rng RandomSource, policy BranchPolicy) (TrialOutcome, error) {
	if rng == nil {
		rng = DefaultRNG()
	}
	if policy == nil {
		policy = WeightedChoice{}
	}
	out := TrialOutcome{}
	t := &trial{
		rng:    rng,
		policy: policy,
		prob:   DefaultSuccessProb,
		visit: func(slot, san int) {
			out.Trace = append(out.Trace, Sample{Slot: slot, SAN: san})
		},
	}
	san, broke, err := t.walk(initialSAN, sc.nodes)
	if err != nil {
		return TrialOutcome{}, err
	}
	out.SAN = san
	out.Step = broke
	out.Completed = broke < 0
	return out, nil
}
