package notate

import (
	"errors"
	"fmt"

	"github.com/MarcTheSpark/playcorder/internal/frac"
)

var (
	// ErrNotDyadic is returned for durations that no sum of powers of two can express.
	ErrNotDyadic = errors.New("duration is not expressible in undotted note values")
	// ErrEmptyDuration is returned for zero or negative durations.
	ErrEmptyDuration = errors.New("duration must be positive")
)

// Tuplet means Actual notes take the time of Normal notes of NormalDuration quarters each.
type Tuplet struct {
	Actual         int       `yaml:"actual"`
	Normal         int       `yaml:"normal"`
	NormalDuration frac.Frac `yaml:"normal_duration"`
}

func (t Tuplet) String() string {
	return fmt.Sprintf("%d:%d of %v", t.Actual, t.Normal, t.NormalDuration)
}

// TupletFor returns the tuplet needed to divide a beat into divisor equal pieces, or nil if plain
// note values suffice. The beat's numerator counts its natural notes of one denominator-th of a
// quarter each; their count doubles, halving their duration, as long as it stays within divisor.
func TupletFor(beatLength frac.Frac, divisor int) *Tuplet {
	if divisor <= 0 || beatLength.Sign() <= 0 {
		return nil
	}
	normal := beatLength.Num()
	duration := frac.New(1, beatLength.Den())
	for normal*2 <= int64(divisor) {
		normal *= 2
		duration = duration.DivInt(2)
	}
	if normal == int64(divisor) {
		return nil
	}
	return &Tuplet{
		Actual:         divisor,
		Normal:         int(normal),
		NormalDuration: duration,
	}
}

// UndottedConstituents splits a duration into strictly decreasing powers of two that add up to it,
// taking the largest power of two that fits each time.
func UndottedConstituents(length frac.Frac) ([]frac.Frac, error) {
	if length.Sign() <= 0 {
		return nil, fmt.Errorf("%v: %w", length, ErrEmptyDuration)
	}
	if !length.IsDyadic() {
		return nil, fmt.Errorf("%v: %w", length, ErrNotDyadic)
	}
	var out []frac.Frac
	for rem := length; rem.Sign() > 0; {
		p := rem.FloorPow2()
		out = append(out, p)
		rem = rem.Sub(p)
	}
	return out, nil
}
