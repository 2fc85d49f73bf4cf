package sim

import (
	"errors"
	"fmt"
	"math"
)

// Upper bounds that keep a single request from running unbounded.
const (
	DefaultTrials    = 1000
	MaxTrials        = 1_000_000
	MaxSteps         = 1000
	MaxInitialValues = 200
	MaxWorkers       = 256

	// MaxSAN bounds the magnitude of a starting SAN value.
	MaxSAN = 1_000_000
)

// ErrConfiguration classifies every *ConfigError.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigError reports a run parameter outside its allowed range.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}

func validateTrials(trials int) error {
	if trials <= 0 {
		return configErr("trials", "must be positive, got %d", trials)
	}
	if trials > MaxTrials {
		return configErr("trials", "must be at most %d, got %d", MaxTrials, trials)
	}
	return nil
}

func validateScenario(sc Scenario) error {
	if sc.Len() == 0 {
		return configErr("steps", "scenario has no checks")
	}
	if sc.Len() > MaxSteps {
		return configErr("steps", "must be at most %d, got %d", MaxSteps, sc.Len())
	}
	return nil
}

func validateInitialSAN(san int) error {
	if san < -MaxSAN || san > MaxSAN {
		return configErr("initial_san", "%d is outside [%d,%d]", san, -MaxSAN, MaxSAN)
	}
	return nil
}

// Validate checks every field of p.
func (p Params) Validate() error {
	if err := validateTrials(p.trials()); err != nil {
		return err
	}
	if p.Workers < 0 || p.Workers > MaxWorkers {
		return configErr("workers", "must be in [0,%d], got %d", MaxWorkers, p.Workers)
	}
	if p.SuccessProb != nil && validateProb(*p.SuccessProb) != nil {
		return configErr("success_prob", "must be in [0,1], got %v", *p.SuccessProb)
	}
	return nil
}
