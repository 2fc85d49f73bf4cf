package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownScenario is returned when no file exists for a scenario name.
var ErrUnknownScenario = errors.New("unknown scenario")

// Paths helper for defaults/scenario files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/config
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "defaults.yaml")
}

func (p Paths) ScenarioDir() string {
	return filepath.Join(p.BaseDir, "scenarios")
}

func (p Paths) ScenarioPath(name string) string {
	return filepath.Join(p.ScenarioDir(), name+".yaml")
}

// Loader reads YAML documents and merges defaults → scenario.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]Document // key: scenario name
}

// NewLoader creates a scenario loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]Document),
	}
}

// Paths returns the loader's file layout.
func (l *Loader) Paths() Paths { return l.paths }

// Load returns the named scenario merged over defaults.yaml. The result is
// a copy; callers may change it freely.
func (l *Loader) Load(name string) (Document, error) {
	if !validName(name) {
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}

	l.mu.RLock()
	if doc, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return doc.Clone(), nil
	}
	l.mu.RUnlock()

	defaults, err := readYAML(l.paths.DefaultPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Document{}, fmt.Errorf("read defaults: %w", err)
	}
	doc, err := readYAML(l.paths.ScenarioPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
		}
		return Document{}, fmt.Errorf("read scenario %q: %w", name, err)
	}
	merged := Merge(defaults, doc)
	if merged.Name == "" {
		merged.Name = name
	}

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()

	return merged.Clone(), nil
}

// List returns the names of all scenario files, sorted.
func (l *Loader) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.paths.ScenarioDir(), "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Document)
}

// ReadFile loads one standalone document, without defaults.
func ReadFile(path string) (Document, error) {
	doc, err := readYAML(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a YAML (or JSON) document.
func Decode(b []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode renders doc as YAML.
func Encode(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func readYAML(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Decode(b)
}

// validName rejects names that could escape the scenario directory.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

// Merge overlays b on a: scalars and pointers in b win when set, and a
// non-empty check list in b replaces a's.
func Merge(a, b Document) Document {
	out := a.Clone()
	b = b.Clone()

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if b.Trials != nil {
		out.Trials = b.Trials
	}
	if b.Seed != nil {
		out.Seed = b.Seed
	}
	if b.Workers != nil {
		out.Workers = b.Workers
	}
	if b.SuccessProb != nil {
		out.SuccessProb = b.SuccessProb
	}
	if b.OnParseError != "" {
		out.OnParseError = b.OnParseError
	}

	// initial_san: explicit values replace everything, range fields merge
	switch {
	case b.InitialSAN == nil:
	case out.InitialSAN == nil || len(b.InitialSAN.Values) > 0:
		out.InitialSAN = b.InitialSAN
	default:
		out.InitialSAN.Values = nil
		if b.InitialSAN.From != nil {
			out.InitialSAN.From = b.InitialSAN.From
		}
		if b.InitialSAN.To != nil {
			out.InitialSAN.To = b.InitialSAN.To
		}
		if b.InitialSAN.Step != nil {
			out.InitialSAN.Step = b.InitialSAN.Step
		}
	}

	if len(b.Checks) > 0 {
		out.Checks = b.Checks
	}
	return out
}
