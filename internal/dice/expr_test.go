package dice

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Expr
		wantErr error
	}{
		{name: "dice", text: "1D4", want: Expr{Raw: "1D4", Count: 1, Sides: 4}},
		{name: "lowercase and spaces", text: "  2d10 ", want: Expr{Raw: "2D10", Count: 2, Sides: 10}},
		{name: "constant", text: "0", want: Expr{Raw: "0"}},
		{name: "leading zeros", text: "007", want: Expr{Raw: "7", Const: 7}},
		{name: "single sided", text: "10D1", want: Expr{Raw: "10D1", Count: 10, Sides: 1}},
		{name: "letters", text: "abc", wantErr: ErrMalformed},
		{name: "empty", text: "", wantErr: ErrMalformed},
		{name: "negative", text: "-1", wantErr: ErrMalformed},
		{name: "modifier not supported", text: "1D6+1", wantErr: ErrMalformed},
		{name: "missing count", text: "D6", wantErr: ErrMalformed},
		{name: "zero dice", text: "0D6", wantErr: ErrInvalidDiceSpec},
		{name: "zero sides", text: "1D0", wantErr: ErrInvalidDiceSpec},
		{name: "too many dice", text: "1001D6", wantErr: ErrInvalidDiceSpec},
		{name: "huge constant", text: "99999999999999999999", wantErr: ErrInvalidDiceSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var perr *ParseError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.text, perr.Text)
				assert.Contains(t, err.Error(), tt.text)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalBounds(t *testing.T) {
	src := newSource(7)

	d4 := MustParse("1D4")
	for i := 0; i < 1000; i++ {
		v := d4.Eval(src)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 4)
	}

	zero := MustParse("0")
	ten := MustParse("10D1")
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, zero.Eval(src))
		assert.Equal(t, 10, ten.Eval(src))
	}
}

func TestEvalIsFreshDraw(t *testing.T) {
	src := newSource(1)
	e := MustParse("1D100")

	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		seen[e.Eval(src)] = true
	}
	assert.Greater(t, len(seen), 1, "repeated evaluation must re-roll")
}

func TestEvalMeanApprox(t *testing.T) {
	const n = 100000
	src := newSource(42)
	e := MustParse("3D6")

	sum := 0
	for i := 0; i < n; i++ {
		sum += e.Eval(src)
	}
	got := float64(sum) / n
	assert.InDelta(t, e.Mean(), got, 0.05)
}

func TestRange(t *testing.T) {
	e := MustParse("2D8")
	assert.Equal(t, 2, e.Min())
	assert.Equal(t, 16, e.Max())
	assert.Equal(t, 9.0, e.Mean())

	c := Const(5)
	assert.Equal(t, 5, c.Min())
	assert.Equal(t, 5, c.Max())
	assert.Equal(t, "5", c.String())
	assert.Equal(t, "0", Expr{}.String())
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("x") })
}
