package scenario

import (
	"fmt"

	"github.com/xtding233/sancheck/internal/dice"
	"github.com/xtding233/sancheck/internal/sim"
)

// Fallback records a loss expression that did not parse and what was done
// instead of halting.
type Fallback struct {
	Step   string `json:"step"`
	Field  string `json:"field"` // "success" or "failure"
	Text   string `json:"text"`
	Action string `json:"action"` // OnParseSkip or OnParseZero
	Err    string `json:"err"`
}

// Compiled is a document ready to run.
type Compiled struct {
	Name        string
	Scenario    sim.Scenario
	InitialSANs []int
	Params      sim.Params
	Fallbacks   []Fallback
}

// Compile validates doc, parses every loss expression and builds the
// scenario tree. Unparseable expressions halt compilation with the
// *dice.ParseError unless on_parse_error says otherwise; every fallback is
// listed in Compiled.Fallbacks.
func Compile(doc Document) (Compiled, error) {
	if err := ValidateDocument(doc); err != nil {
		return Compiled{}, err
	}
	c := &compiler{policy: doc.OnParseError}
	if c.policy == "" {
		c.policy = OnParseHalt
	}

	nodes, err := c.nodes(doc.Checks, "")
	if err != nil {
		return Compiled{}, err
	}
	sc, err := sim.NewScenario(nodes...)
	if err != nil {
		return Compiled{}, err
	}
	sans, err := initialSANs(doc.InitialSAN)
	if err != nil {
		return Compiled{}, err
	}

	p := sim.Params{
		Seed:        clonePtr(doc.Seed),
		SuccessProb: clonePtr(doc.SuccessProb),
	}
	if doc.Trials != nil {
		p.Trials = *doc.Trials
	}
	if doc.Workers != nil {
		p.Workers = *doc.Workers
	}

	return Compiled{
		Name:        doc.Name,
		Scenario:    sc,
		InitialSANs: sans,
		Params:      p,
		Fallbacks:   c.fallbacks,
	}, nil
}

type compiler struct {
	policy    string
	fallbacks []Fallback
}

func (c *compiler) nodes(entries []Entry, prefix string) ([]sim.Node, error) {
	out := make([]sim.Node, 0, len(entries))
	for _, e := range entries {
		if e.IsBranch() {
			paths := make([]sim.Path, len(e.Paths))
			for i, p := range e.Paths {
				label := p.Label
				if label == "" {
					label = fmt.Sprintf("%d", i+1)
				}
				nodes, err := c.nodes(p.Checks, prefix+e.Branch+"/"+label+"/")
				if err != nil {
					return nil, err
				}
				paths[i] = sim.Path{Label: p.Label, Weight: p.Weight, Nodes: nodes}
			}
			out = append(out, sim.BranchNode(e.Branch, paths...))
			continue
		}

		success, okS, err := c.loss(e, prefix, "success", e.Success)
		if err != nil {
			return nil, err
		}
		failure, okF, err := c.loss(e, prefix, "failure", e.Failure)
		if err != nil {
			return nil, err
		}
		if !okS || !okF {
			continue
		}
		out = append(out, sim.StepNode(sim.CheckStep{
			Label:       e.Event,
			SuccessLoss: success,
			FailureLoss: failure,
		}))
	}
	return out, nil
}

// loss parses one expression. ok is false when the step must be skipped.
func (c *compiler) loss(e Entry, prefix, field, text string) (dice.Expr, bool, error) {
	expr, err := dice.Parse(text)
	if err == nil {
		return expr, true, nil
	}
	if c.policy == OnParseHalt {
		return dice.Expr{}, false, fmt.Errorf("check %q %s loss: %w", prefix+e.Event, field, err)
	}
	c.fallbacks = append(c.fallbacks, Fallback{
		Step:   prefix + e.Event,
		Field:  field,
		Text:   text,
		Action: c.policy,
		Err:    err.Error(),
	})
	if c.policy == OnParseSkip {
		return dice.Expr{}, false, nil
	}
	return dice.Const(0), true, nil
}

func initialSANs(cfg *SANConfig) ([]int, error) {
	if cfg == nil {
		return sim.DefaultInitialSANs(), nil
	}
	if len(cfg.Values) > 0 {
		return append([]int(nil), cfg.Values...), nil
	}
	from, to, step := 30, 80, 5
	if cfg.From != nil {
		from = *cfg.From
	}
	if cfg.To != nil {
		to = *cfg.To
	}
	if cfg.Step != nil {
		step = *cfg.Step
	}
	return sim.SANRange(from, to, step)
}
