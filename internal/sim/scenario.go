package sim

import (
	"fmt"
	"math"
)

// Node is one entry of a scenario: exactly one of Step or Branch is set.
type Node struct {
	Step   *CheckStep
	Branch *Branch

	slot int
}

// Branch offers alternative paths; a trial walks exactly one of them.
type Branch struct {
	Label string
	Paths []Path
}

// Path is one alternative of a Branch. Weight is relative; a branch whose
// weights are all zero is chosen uniformly.
type Path struct {
	Label  string
	Weight float64
	Nodes  []Node
}

// StepNode wraps a check as a scenario node.
func StepNode(s CheckStep) Node {
	return Node{Step: &s}
}

// BranchNode builds a branch node from its paths.
func BranchNode(label string, paths ...Path) Node {
	return Node{Branch: &Branch{Label: label, Paths: paths}}
}

// Scenario is an immutable, compiled tree of checks. Every check owns a
// slot: its position in a depth-first walk of the tree. Per-step statistics
// are indexed by slot, so for a scenario without branches slot i is the
// i-th check.
type Scenario struct {
	nodes  []Node
	labels []string
}

// NewScenario copies nodes into a Scenario and assigns slots.
func NewScenario(nodes ...Node) (Scenario, error) {
	var sc Scenario
	copied, err := sc.copyNodes(nodes, "")
	if err != nil {
		return Scenario{}, err
	}
	sc.nodes = copied
	return sc, nil
}

// Flat builds a scenario from a plain ordered list of checks.
func Flat(steps ...CheckStep) Scenario {
	nodes := make([]Node, len(steps))
	for i, s := range steps {
		nodes[i] = StepNode(s)
	}
	sc, _ := NewScenario(nodes...)
	return sc
}

// Len returns the number of slots.
func (s Scenario) Len() int { return len(s.labels) }

// Labels returns the slot labels. Checks inside a branch are prefixed with
// "branch/path/".
func (s Scenario) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Nodes returns a deep copy of the top-level nodes. Changing the copy does
// not change the scenario.
func (s Scenario) Nodes() []Node { return cloneNodes(s.nodes) }

// Steps returns a copy of every check, indexed by slot.
func (s Scenario) Steps() []CheckStep {
	out := make([]CheckStep, len(s.labels))
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Step != nil {
				out[n.slot] = *n.Step
				continue
			}
			for _, p := range n.Branch.Paths {
				walk(p.Nodes)
			}
		}
	}
	walk(s.nodes)
	return out
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{slot: n.slot}
		if n.Step != nil {
			step := *n.Step
			out[i].Step = &step
		}
		if n.Branch != nil {
			b := Branch{Label: n.Branch.Label, Paths: make([]Path, len(n.Branch.Paths))}
			for j, p := range n.Branch.Paths {
				b.Paths[j] = Path{Label: p.Label, Weight: p.Weight, Nodes: cloneNodes(p.Nodes)}
			}
			out[i].Branch = &b
		}
	}
	return out
}

// Slot returns the slot of a step node, or -1 for a branch.
func (n Node) Slot() int {
	if n.Step == nil {
		return -1
	}
	return n.slot
}

func (s *Scenario) copyNodes(nodes []Node, prefix string) ([]Node, error) {
	out := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		switch {
		case n.Step != nil && n.Branch != nil:
			return nil, configErr("steps", "node %s#%d is both a step and a branch", prefix, i)
		case n.Step != nil:
			step := *n.Step
			slot := len(s.labels)
			s.labels = append(s.labels, prefix+step.Label)
			out = append(out, Node{Step: &step, slot: slot})
		case n.Branch != nil:
			b, err := s.copyBranch(*n.Branch, prefix)
			if err != nil {
				return nil, err
			}
			out = append(out, Node{Branch: b})
		default:
			return nil, configErr("steps", "node %s#%d is empty", prefix, i)
		}
	}
	return out, nil
}

func (s *Scenario) copyBranch(b Branch, prefix string) (*Branch, error) {
	if len(b.Paths) == 0 {
		return nil, configErr("branch", "%q has no paths", b.Label)
	}
	paths := make([]Path, len(b.Paths))
	for i, p := range b.Paths {
		if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
			return nil, configErr("branch", "%q path %d has invalid weight %v", b.Label, i, p.Weight)
		}
		name := p.Label
		if name == "" {
			name = fmt.Sprintf("%d", i+1)
		}
		nodes, err := s.copyNodes(p.Nodes, prefix+b.Label+"/"+name+"/")
		if err != nil {
			return nil, err
		}
		paths[i] = Path{Label: p.Label, Weight: p.Weight, Nodes: nodes}
	}
	return &Branch{Label: b.Label, Paths: paths}, nil
}
