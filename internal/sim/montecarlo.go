package sim

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of trials that share one random stream. Chunks,
// not workers, own the streams, so a seeded run gives the same numbers for
// any worker count.
const chunkSize = 1000

// Params describes one Monte Carlo run.
type Params struct {
	// Trials per starting SAN; 0 means DefaultTrials.
	Trials int
	// Workers bounds the goroutines; 0 means GOMAXPROCS.
	Workers int
	// Seed makes the run reproducible; nil draws one from crypto/rand.
	Seed *uint64
	// SuccessProb overrides DefaultSuccessProb when set.
	SuccessProb *float64
	// Policy chooses branch paths; nil means WeightedChoice.
	Policy BranchPolicy
}

func (p Params) trials() int {
	if p.Trials == 0 {
		return DefaultTrials
	}
	return p.Trials
}

func (p Params) workers() int {
	if p.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

func (p Params) prob() float64 {
	if p.SuccessProb == nil {
		return DefaultSuccessProb
	}
	return *p.SuccessProb
}

func (p Params) policy() BranchPolicy {
	if p.Policy == nil {
		return WeightedChoice{}
	}
	return p.Policy
}

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// Result aggregates every trial for one starting SAN. Rates are percents.
type Result struct {
	InitialSAN      int       `json:"initial_san"`
	Trials          int       `json:"trials"`
	Seed            uint64    `json:"seed,omitempty"`
	Steps           []string  `json:"steps"`
	DropoutRate     []float64 `json:"dropout_rate"`
	CompletionRate  float64   `json:"completion_rate"`
	AvgRemainingSAN float64   `json:"avg_remaining_san"`
	VarRemainingSAN float64   `json:"variance_remaining_san"`
	AvgProgress     []float64 `json:"avg_progress"`
	Active          []int     `json:"active"`
	Remaining       Stats     `json:"remaining"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)
	stddev := math.Sqrt(variance)

	// percentiles
	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 {
			return float64(cp[0])
		}
		if p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  stddev,
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// tally holds the raw counters of a batch of trials. Tallies combine by
// addition, so batches can run anywhere and merge in any grouping.
type tally struct {
	trials      int
	breakdown   []int
	progressSum []int64
	active      []int
	completed   []int
}

func newTally(slots int) *tally {
	return &tally{
		breakdown:   make([]int, slots),
		progressSum: make([]int64, slots),
		active:      make([]int, slots),
	}
}

func (t *tally) merge(o *tally) {
	t.trials += o.trials
	for i := range t.breakdown {
		t.breakdown[i] += o.breakdown[i]
		t.progressSum[i] += o.progressSum[i]
		t.active[i] += o.active[i]
	}
	t.completed = append(t.completed, o.completed...)
}

// runTrials adds n trials to t.
func (t *tally) runTrials(initialSAN int, sc Scenario, n int, rng RandomSource, policy BranchPolicy, prob float64) error {
	tr := &trial{
		rng:    rng,
		policy: policy,
		prob:   prob,
		visit: func(slot, san int) {
			t.progressSum[slot] += int64(san)
			t.active[slot]++
		},
	}
	for i := 0; i < n; i++ {
		san, broke, err := tr.walk(initialSAN, sc.nodes)
		if err != nil {
			return err
		}
		t.trials++
		if broke >= 0 {
			t.breakdown[broke]++
		} else {
			t.completed = append(t.completed, san)
		}
	}
	return nil
}

func (t *tally) result(initialSAN int, sc Scenario) Result {
	slots := len(t.breakdown)
	res := Result{
		InitialSAN:  initialSAN,
		Trials:      t.trials,
		Steps:       sc.Labels(),
		DropoutRate: make([]float64, slots),
		AvgProgress: make([]float64, slots),
		Active:      append([]int(nil), t.active...),
	}
	if t.trials == 0 {
		return res
	}
	total := float64(t.trials)
	for i := 0; i < slots; i++ {
		res.DropoutRate[i] = float64(t.breakdown[i]) / total * 100
		if t.active[i] > 0 {
			res.AvgProgress[i] = float64(t.progressSum[i]) / float64(t.active[i])
		}
	}
	res.CompletionRate = float64(len(t.completed)) / total * 100
	res.Remaining = calcStats(t.completed)
	res.AvgRemainingSAN = res.Remaining.Mean
	res.VarRemainingSAN = res.Remaining.Var
	return res
}

// Aggregate runs trials sequentially on rng and summarizes them. It uses
// the default success probability and WeightedChoice for branches.
func Aggregate(initialSAN int, sc Scenario, trials int, rng RandomSource) (Result, error) {
	if err := validateInitialSAN(initialSAN); err != nil {
		return Result{}, err
	}
	if err := validateTrials(trials); err != nil {
		return Result{}, err
	}
	if err := validateScenario(sc); err != nil {
		return Result{}, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	t := newTally(sc.Len())
	if err := t.runTrials(initialSAN, sc, trials, rng, WeightedChoice{}, DefaultSuccessProb); err != nil {
		return Result{}, err
	}
	return t.result(initialSAN, sc), nil
}

// RunMonteCarlo repeats trials and returns summary stats.
// Trials are split into chunks of chunkSize, each on its own stream of the
// seed, and the chunks run on up to p.Workers goroutines.
func RunMonteCarlo(ctx context.Context, initialSAN int, sc Scenario, p Params) (Result, error) {
	if err := validateInitialSAN(initialSAN); err != nil {
		return Result{}, err
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateScenario(sc); err != nil {
		return Result{}, err
	}
	seed, err := p.resolveSeed()
	if err != nil {
		return Result{}, err
	}
	return runChunks(ctx, initialSAN, sc, p, seed)
}

func (p Params) resolveSeed() (uint64, error) {
	if p.Seed != nil {
		return *p.Seed, nil
	}
	return NewSeed()
}

func runChunks(ctx context.Context, initialSAN int, sc Scenario, p Params, seed uint64) (Result, error) {
	trials := p.trials()
	chunks := (trials + chunkSize - 1) / chunkSize
	tallies := make([]*tally, chunks)
	policy := p.policy()
	prob := p.prob()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for k := 0; k < chunks; k++ {
		n := chunkSize
		if k == chunks-1 {
			n = trials - k*chunkSize
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := newTally(sc.Len())
			if err := t.runTrials(initialSAN, sc, n, NewStream(seed, uint64(k)), policy, prob); err != nil {
				return err
			}
			tallies[k] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// merge in chunk order so completed samples keep a fixed order
	total := newTally(sc.Len())
	for _, t := range tallies {
		total.merge(t)
	}
	res := total.result(initialSAN, sc)
	res.Seed = seed
	return res, nil
}
