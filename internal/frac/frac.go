// Package frac implements exact rational positions and durations in quarter notes.
package frac

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"gopkg.in/yaml.v3"
)

// DefaultMaxDenominator is the denominator limit used by FromFloat.
const DefaultMaxDenominator = 1000000

// Frac is a reduced fraction. The zero value is 0.
//
// Fracs are canonical, so == compares values.
type Frac struct {
	num, den int64
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// GCD returns the greatest common divisor of a and b, which is never negative.
func GCD[T constraints.Integer](a, b T) T {
	if b == 0 {
		if a < 0 {
			return -a
		}
		return a
	}
	c := a % b
	if c == 0 {
		if b < 0 {
			return -b
		}
		return b
	}
	return GCD(b, c)
}

// LCM returns the least common multiple of a and b.
func LCM[T constraints.Integer](a, b T) T {
	if a == 0 || b == 0 {
		return 0
	}
	l := a / GCD(a, b) * b
	if l < 0 {
		return -l
	}
	return l
}

// New returns num/den in lowest terms. It panics if den is zero.
func New(num, den int64) Frac {
	if den == 0 {
		panic("frac: zero denominator")
	}
	if num == 0 {
		return Frac{}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := GCD(abs(num), den)
	return Frac{num: num / g, den: den / g}
}

// Int returns n as a fraction.
func Int(n int64) Frac {
	return New(n, 1)
}

// FromFloat returns the closest fraction to x with a denominator of at most DefaultMaxDenominator.
func FromFloat(x float64) Frac {
	return FromFloatLimit(x, DefaultMaxDenominator)
}

// FromFloatLimit returns the closest fraction to x whose denominator does not exceed maxDen.
// The float is first converted exactly, then approximated via its continued fraction expansion.
func FromFloatLimit(x float64, maxDen int64) Frac {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		panic(fmt.Sprintf("frac: cannot convert %v", x))
	}
	if maxDen < 1 {
		panic("frac: maxDen must be positive")
	}
	exact := new(big.Rat).SetFloat64(x)
	if exact.Denom().IsInt64() && exact.Denom().Int64() <= maxDen {
		return New(exact.Num().Int64(), exact.Denom().Int64())
	}
	limit := big.NewInt(maxDen)
	p0, q0, p1, q1 := big.NewInt(0), big.NewInt(1), big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(exact.Num())
	d := new(big.Int).Set(exact.Denom())
	for {
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p0, q0, p1, q1 = p1, q1, new(big.Int).Add(p0, new(big.Int).Mul(a, p1)), q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}
	k := new(big.Int).Div(new(big.Int).Sub(limit, q0), q1)
	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)))
	bound2 := new(big.Rat).SetFrac(p1, q1)
	dist1 := new(big.Rat).Abs(new(big.Rat).Sub(bound1, exact))
	dist2 := new(big.Rat).Abs(new(big.Rat).Sub(bound2, exact))
	best := bound1
	if dist2.Cmp(dist1) <= 0 {
		best = bound2
	}
	return New(best.Num().Int64(), best.Denom().Int64())
}

// Parse parses "n/d", an integer, or a decimal number.
func Parse(s string) (Frac, error) {
	s = strings.TrimSpace(s)
	if numStr, denStr, ok := strings.Cut(s, "/"); ok {
		num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
		if err != nil {
			return Frac{}, fmt.Errorf("invalid numerator in %q: %w", s, err)
		}
		den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
		if err != nil {
			return Frac{}, fmt.Errorf("invalid denominator in %q: %w", s, err)
		}
		if den == 0 {
			return Frac{}, fmt.Errorf("zero denominator in %q", s)
		}
		return New(num, den), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Frac{}, fmt.Errorf("invalid fraction %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Frac{}, fmt.Errorf("invalid fraction %q", s)
	}
	return FromFloat(f), nil
}

// Num returns the numerator.
func (f Frac) Num() int64 {
	return f.num
}

// Den returns the denominator, which is always positive.
func (f Frac) Den() int64 {
	if f.num == 0 {
		return 1
	}
	return f.den
}

func (f Frac) Add(g Frac) Frac {
	if f.num == 0 {
		return g
	}
	if g.num == 0 {
		return f
	}
	d := LCM(f.den, g.den)
	return New(f.num*(d/f.den)+g.num*(d/g.den), d)
}

func (f Frac) Sub(g Frac) Frac {
	return f.Add(g.Neg())
}

func (f Frac) Neg() Frac {
	return Frac{num: -f.num, den: f.den}
}

func (f Frac) Mul(g Frac) Frac {
	if f.num == 0 || g.num == 0 {
		return Frac{}
	}
	// Cross-reduce first to keep the intermediate products small.
	g1 := GCD(abs(f.num), g.den)
	g2 := GCD(abs(g.num), f.den)
	return New((f.num/g1)*(g.num/g2), (f.den/g2)*(g.den/g1))
}

// Div returns f/g. It panics if g is zero.
func (f Frac) Div(g Frac) Frac {
	if g.num == 0 {
		panic("frac: division by zero")
	}
	return f.Mul(Frac{num: g.den, den: g.num}.normalized())
}

func (f Frac) MulInt(n int64) Frac {
	return f.Mul(Int(n))
}

// DivInt returns f/n. It panics if n is zero.
func (f Frac) DivInt(n int64) Frac {
	return f.Mul(New(1, n))
}

func (f Frac) normalized() Frac {
	if f.den < 0 {
		return Frac{num: -f.num, den: -f.den}
	}
	return f
}

// Cmp returns -1, 0 or +1 depending on whether f is less than, equal to or greater than g.
func (f Frac) Cmp(g Frac) int {
	return f.Sub(g).Sign()
}

func (f Frac) Less(g Frac) bool {
	return f.Cmp(g) < 0
}

func (f Frac) Sign() int {
	switch {
	case f.num < 0:
		return -1
	case f.num > 0:
		return 1
	}
	return 0
}

func (f Frac) IsZero() bool {
	return f.num == 0
}

func (f Frac) Float64() float64 {
	if f.num == 0 {
		return 0
	}
	return float64(f.num) / float64(f.den)
}

// IsDyadic reports whether the denominator is a power of two.
func (f Frac) IsDyadic() bool {
	d := f.Den()
	return d&(d-1) == 0
}

// FloorPow2 returns the largest power of two (possibly fractional) not exceeding f.
// It panics unless f is positive.
func (f Frac) FloorPow2() Frac {
	if f.Sign() <= 0 {
		panic("frac: FloorPow2 of non-positive value")
	}
	p := Int(1)
	two := Int(2)
	for f.Less(p) {
		p = p.Div(two)
	}
	for !f.Less(p.Mul(two)) {
		p = p.Mul(two)
	}
	return p
}

// Min returns the smaller of f and g.
func Min(f, g Frac) Frac {
	if g.Less(f) {
		return g
	}
	return f
}

// Max returns the larger of f and g.
func Max(f, g Frac) Frac {
	if f.Less(g) {
		return g
	}
	return f
}

func (f Frac) String() string {
	if f.Den() == 1 {
		return strconv.FormatInt(f.num, 10)
	}
	return fmt.Sprintf("%d/%d", f.num, f.den)
}

func (f Frac) MarshalYAML() (any, error) {
	return f.String(), nil
}

func (f *Frac) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
