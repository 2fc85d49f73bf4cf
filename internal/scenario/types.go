// Package scenario reads, validates, edits and compiles SAN-check scenario
// documents. A document is what an editor or a YAML file supplies; Compile
// turns it into an immutable sim.Scenario plus run parameters.
package scenario

// Document is a scenario as written in YAML (or JSON over the API).
type Document struct {
	Version      string     `yaml:"version,omitempty" json:"version,omitempty" mapstructure:"version"`
	Name         string     `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	Notes        string     `yaml:"notes,omitempty" json:"notes,omitempty" mapstructure:"notes"`
	Trials       *int       `yaml:"trials,omitempty" json:"trials,omitempty" mapstructure:"trials"`
	Seed         *uint64    `yaml:"seed,omitempty" json:"seed,omitempty" mapstructure:"seed"`
	Workers      *int       `yaml:"workers,omitempty" json:"workers,omitempty" mapstructure:"workers"`
	SuccessProb  *float64   `yaml:"success_prob,omitempty" json:"success_prob,omitempty" mapstructure:"success_prob"`
	OnParseError string     `yaml:"on_parse_error,omitempty" json:"on_parse_error,omitempty" mapstructure:"on_parse_error"`
	InitialSAN   *SANConfig `yaml:"initial_san,omitempty" json:"initial_san,omitempty" mapstructure:"initial_san"`
	Checks       []Entry    `yaml:"checks,omitempty" json:"checks,omitempty" mapstructure:"checks"`
}

// SANConfig lists starting SAN values, either explicitly or as a range.
type SANConfig struct {
	From   *int  `yaml:"from,omitempty" json:"from,omitempty" mapstructure:"from"`
	To     *int  `yaml:"to,omitempty" json:"to,omitempty" mapstructure:"to"`
	Step   *int  `yaml:"step,omitempty" json:"step,omitempty" mapstructure:"step"`
	Values []int `yaml:"values,omitempty" json:"values,omitempty" mapstructure:"values"`
}

// Entry is one check, or a branch when Branch or Paths is set.
type Entry struct {
	Event   string      `yaml:"event,omitempty" json:"event,omitempty" mapstructure:"event"`
	Success string      `yaml:"success,omitempty" json:"success,omitempty" mapstructure:"success"`
	Failure string      `yaml:"failure,omitempty" json:"failure,omitempty" mapstructure:"failure"`
	Branch  string      `yaml:"branch,omitempty" json:"branch,omitempty" mapstructure:"branch"`
	Paths   []PathEntry `yaml:"paths,omitempty" json:"paths,omitempty" mapstructure:"paths"`
}

// PathEntry is one alternative of a branch entry.
type PathEntry struct {
	Label  string  `yaml:"label,omitempty" json:"label,omitempty" mapstructure:"label"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty" mapstructure:"weight"`
	Checks []Entry `yaml:"checks,omitempty" json:"checks,omitempty" mapstructure:"checks"`
}

// IsBranch reports whether e groups alternative paths.
func (e Entry) IsBranch() bool {
	return e.Branch != "" || len(e.Paths) > 0
}

// Parse-error policies for loss expressions that do not parse.
const (
	OnParseHalt = "halt"
	OnParseSkip = "skip"
	OnParseZero = "zero"
)

// Overrides carries per-request values that win over the document.
type Overrides struct {
	Trials     *int
	Seed       *uint64
	Workers    *int
	InitialSAN []int
}

// Apply returns a copy of doc with the set overrides applied.
func (o Overrides) Apply(doc Document) Document {
	out := doc.Clone()
	if o.Trials != nil {
		v := *o.Trials
		out.Trials = &v
	}
	if o.Seed != nil {
		v := *o.Seed
		out.Seed = &v
	}
	if o.Workers != nil {
		v := *o.Workers
		out.Workers = &v
	}
	if len(o.InitialSAN) > 0 {
		out.InitialSAN = &SANConfig{Values: append([]int(nil), o.InitialSAN...)}
	}
	return out
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	out := d
	out.Trials = clonePtr(d.Trials)
	out.Seed = clonePtr(d.Seed)
	out.Workers = clonePtr(d.Workers)
	out.SuccessProb = clonePtr(d.SuccessProb)
	if d.InitialSAN != nil {
		s := *d.InitialSAN
		s.From = clonePtr(s.From)
		s.To = clonePtr(s.To)
		s.Step = clonePtr(s.Step)
		s.Values = append([]int(nil), s.Values...)
		out.InitialSAN = &s
	}
	out.Checks = cloneEntries(d.Checks)
	return out
}

func cloneEntries(in []Entry) []Entry {
	if in == nil {
		return nil
	}
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	out := e
	if e.Paths != nil {
		out.Paths = make([]PathEntry, len(e.Paths))
		for i, p := range e.Paths {
			p.Checks = cloneEntries(p.Checks)
			out.Paths[i] = p
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DefaultDocument is the scenario a fresh editor session starts with.
func DefaultDocument() Document {
	from, to, step, trials := 30, 80, 5, 1000
	return Document{
		Version:    "1",
		Name:       "default",
		Trials:     &trials,
		InitialSAN: &SANConfig{From: &from, To: &to, Step: &step},
		Checks: []Entry{
			{Event: "Meet a zombie", Success: "0", Failure: "1D3"},
		},
	}
}
