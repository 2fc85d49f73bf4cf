package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/sancheck/internal/sim"
)

// ErrInvalid classifies every ValidateDocument failure.
var ErrInvalid = errors.New("scenario validation failed")

// ValidateDocument checks semantic constraints of a Document. Loss
// expressions are not parsed here; Compile handles them under the
// document's on_parse_error policy.
func ValidateDocument(doc Document) error {
	var errs []string

	// version
	if doc.Version != "" && doc.Version != "1" {
		errs = append(errs, fmt.Sprintf("version %q is not supported (want \"1\")", doc.Version))
	}

	// run parameters
	if doc.Trials != nil && (*doc.Trials <= 0 || *doc.Trials > sim.MaxTrials) {
		errs = append(errs, fmt.Sprintf("trials must be in [1,%d]", sim.MaxTrials))
	}
	if doc.Workers != nil && (*doc.Workers < 0 || *doc.Workers > sim.MaxWorkers) {
		errs = append(errs, fmt.Sprintf("workers must be in [0,%d]", sim.MaxWorkers))
	}
	if doc.SuccessProb != nil && (*doc.SuccessProb < 0 || *doc.SuccessProb > 1) {
		errs = append(errs, "success_prob must be in [0,1]")
	}
	switch doc.OnParseError {
	case "", OnParseHalt, OnParseSkip, OnParseZero:
	default:
		errs = append(errs, "on_parse_error must be one of: halt, skip, zero")
	}

	// initial_san
	if s := doc.InitialSAN; s != nil {
		hasRange := s.From != nil || s.To != nil || s.Step != nil
		if len(s.Values) > 0 && hasRange {
			errs = append(errs, "initial_san: use either values or from/to/step, not both")
		}
		if len(s.Values) > sim.MaxInitialValues {
			errs = append(errs, fmt.Sprintf("initial_san.values must have at most %d entries", sim.MaxInitialValues))
		}
		for _, v := range s.Values {
			if !sanInRange(v) {
				errs = append(errs, fmt.Sprintf("initial_san.values: %d is outside [%d,%d]", v, -sim.MaxSAN, sim.MaxSAN))
			}
		}
		if s.From != nil && !sanInRange(*s.From) {
			errs = append(errs, fmt.Sprintf("initial_san.from must be in [%d,%d]", -sim.MaxSAN, sim.MaxSAN))
		}
		if s.To != nil && !sanInRange(*s.To) {
			errs = append(errs, fmt.Sprintf("initial_san.to must be in [%d,%d]", -sim.MaxSAN, sim.MaxSAN))
		}
		if s.Step != nil && *s.Step <= 0 {
			errs = append(errs, "initial_san.step must be >= 1")
		}
		if s.From != nil && s.To != nil && *s.To < *s.From {
			errs = append(errs, "initial_san.to must be >= initial_san.from")
		}
	}

	// checks
	if len(doc.Checks) == 0 {
		errs = append(errs, "checks must not be empty")
	}
	errs = append(errs, validateEntries(doc.Checks, "checks")...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

func sanInRange(v int) bool {
	return v >= -sim.MaxSAN && v <= sim.MaxSAN
}

func validateEntries(entries []Entry, path string) []string {
	var errs []string
	for i, e := range entries {
		at := fmt.Sprintf("%s[%d]", path, i)
		if !e.IsBranch() {
			continue
		}
		if e.Success != "" || e.Failure != "" {
			errs = append(errs, at+": a branch cannot have success/failure losses")
		}
		if len(e.Paths) == 0 {
			errs = append(errs, at+": branch needs at least one path")
		}
		for j, p := range e.Paths {
			if p.Weight < 0 {
				errs = append(errs, fmt.Sprintf("%s.paths[%d].weight must be >= 0", at, j))
			}
			errs = append(errs, validateEntries(p.Checks, fmt.Sprintf("%s.paths[%d].checks", at, j))...)
		}
	}
	return errs
}
