// Package dice parses and evaluates SAN loss expressions: a plain
// non-negative constant ("3") or a sum of dice ("1D6", "2d10").
package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Bounds on a single expression. They keep one evaluation cheap and the
// running SAN far from integer overflow.
const (
	MaxCount = 1000
	MaxSides = 1_000_000
	MaxConst = 1_000_000
)

var (
	// ErrMalformed indicates text that is neither NdS nor a constant.
	ErrMalformed = errors.New("malformed dice expression")
	// ErrInvalidDiceSpec indicates a well-formed expression with out-of-range parameters.
	ErrInvalidDiceSpec = errors.New("dice must have positive count and sides within bounds")
)

var (
	diceRe  = regexp.MustCompile(`^(\d+)D(\d+)$`)
	constRe = regexp.MustCompile(`^\d+$`)
)

// ParseError reports an expression that could not be parsed.
type ParseError struct {
	Text string // offending input, untrimmed
	Err  error  // ErrMalformed or ErrInvalidDiceSpec
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dice: parse %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Source is the randomness a roll consumes.
type Source interface {
	// IntN returns a uniform int in [0, n). n > 0.
	IntN(n int) int
}

// Expr is a parsed loss expression. The zero value is the constant 0.
type Expr struct {
	Raw   string // normalized text, e.g. "1D3" or "0"
	Count int    // number of dice; 0 for a constant
	Sides int
	Const int
}

// IsDice reports whether the expression rolls dice.
func (e Expr) IsDice() bool { return e.Count > 0 }

// Parse reads text as NdS or a non-negative constant. Case and surrounding
// whitespace are ignored.
func Parse(text string) (Expr, error) {
	s := strings.ToUpper(strings.TrimSpace(text))

	if m := diceRe.FindStringSubmatch(s); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return Expr{}, &ParseError{Text: text, Err: ErrInvalidDiceSpec}
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil {
			return Expr{}, &ParseError{Text: text, Err: ErrInvalidDiceSpec}
		}
		if count < 1 || sides < 1 || count > MaxCount || sides > MaxSides {
			return Expr{}, &ParseError{Text: text, Err: ErrInvalidDiceSpec}
		}
		return Expr{Raw: fmt.Sprintf("%dD%d", count, sides), Count: count, Sides: sides}, nil
	}

	if constRe.MatchString(s) {
		v, err := strconv.Atoi(s)
		if err != nil || v > MaxConst {
			return Expr{}, &ParseError{Text: text, Err: ErrInvalidDiceSpec}
		}
		return Expr{Raw: strconv.Itoa(v), Const: v}, nil
	}

	return Expr{}, &ParseError{Text: text, Err: ErrMalformed}
}

// MustParse is Parse that panics on error. Meant for fixtures and constants.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Const returns the constant expression v.
func Const(v int) Expr {
	if v < 0 {
		v = 0
	}
	return Expr{Raw: strconv.Itoa(v), Const: v}
}

// Eval draws a fresh value. Every call is an independent roll.
func (e Expr) Eval(src Source) int {
	if e.Count == 0 {
		return e.Const
	}
	total := 0
	for i := 0; i < e.Count; i++ {
		total += src.IntN(e.Sides) + 1
	}
	return total
}

// Min returns the smallest value Eval can produce.
func (e Expr) Min() int {
	if e.Count == 0 {
		return e.Const
	}
	return e.Count
}

// Max returns the largest value Eval can produce.
func (e Expr) Max() int {
	if e.Count == 0 {
		return e.Const
	}
	return e.Count * e.Sides
}

// Mean returns the expected value of Eval.
func (e Expr) Mean() float64 {
	if e.Count == 0 {
		return float64(e.Const)
	}
	return float64(e.Count) * float64(e.Sides+1) / 2
}

func (e Expr) String() string {
	if e.Raw == "" {
		return strconv.Itoa(e.Const)
	}
	return e.Raw
}
