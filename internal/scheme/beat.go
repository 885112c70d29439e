// Package scheme builds the per-beat quantization menus and lays them out along a timeline.
package scheme

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/frac"
)

var (
	// ErrNoDivisions means a beat has no usable subdivision under the configured limits.
	ErrNoDivisions = errors.New("no usable quantization divisions")
	// ErrInvalidBeat means a beat has a non-positive tempo, length or divisor.
	ErrInvalidBeat = errors.New("invalid beat")
)

// Division is one candidate subdivision of a beat together with its undesirability weight.
type Division struct {
	Divisor        int     `yaml:"divisor"`
	Undesirability float64 `yaml:"undesirability"`
}

// BeatScheme is the menu of subdivisions available to one beat.
type BeatScheme struct {
	// Tempo in quarter notes per minute.
	Tempo float64 `yaml:"tempo"`
	// BeatLength in quarter notes.
	BeatLength frac.Frac `yaml:"beat_length"`
	// Divisions, ascending by divisor.
	Divisions []Division `yaml:"divisions"`
}

// BeatOptions controls how divisions are generated for a beat.
type BeatOptions struct {
	// MaxDivisions is the largest divisor considered (inclusive).
	MaxDivisions int
	// MaxIndigestibility is the exclusive upper limit on a divisor's raw indigestibility.
	MaxIndigestibility float64
	// SimplicityPreference stretches the undesirability range to [1, 1+SimplicityPreference].
	SimplicityPreference float64
	// Calculator memoizes indigestibility. If nil, a fresh one is used.
	Calculator *barlicity.Calculator
}

// DefaultBeatOptions returns the defaults for constructing a single beat scheme.
func DefaultBeatOptions() BeatOptions {
	return BeatOptions{
		MaxDivisions:         8,
		MaxIndigestibility:   4,
		SimplicityPreference: 1.0,
	}
}

func (o BeatOptions) calculator() *barlicity.Calculator {
	if o.Calculator == nil {
		return barlicity.NewCalculator()
	}
	return o.Calculator
}

func checkBeat(tempo float64, beatLength frac.Frac) error {
	if !(tempo > 0) {
		return fmt.Errorf("tempo %v: %w", tempo, ErrInvalidBeat)
	}
	if beatLength.Sign() <= 0 {
		return fmt.Errorf("beat length %v: %w", beatLength, ErrInvalidBeat)
	}
	return nil
}

// NewBeatScheme generates the divisions 2..MaxDivisions whose indigestibility relative to the natural
// division of the beat is below MaxIndigestibility. The natural division is the numerator of the
// reduced beat length, so a dotted quarter (3/2) naturally divides into three.
func NewBeatScheme(tempo float64, beatLength frac.Frac, opts BeatOptions) (*BeatScheme, error) {
	if err := checkBeat(tempo, beatLength); err != nil {
		return nil, err
	}
	calc := opts.calculator()
	natural := int(beatLength.Num())
	var divisors []int
	var raws []float64
	for div := 2; div <= opts.MaxDivisions; div++ {
		raw, err := calc.RawIndigestibility(div, natural)
		if err != nil {
			return nil, err
		}
		if raw < opts.MaxIndigestibility {
			divisors = append(divisors, div)
			raws = append(raws, raw)
		}
	}
	if len(divisors) == 0 {
		return nil, fmt.Errorf("beat of length %v with max divisions %d and max indigestibility %v: %w",
			beatLength, opts.MaxDivisions, opts.MaxIndigestibility, ErrNoDivisions)
	}
	return newScheme(tempo, beatLength, divisors, barlicity.Undesirabilities(raws, opts.SimplicityPreference)), nil
}

// NewBeatSchemeWithDivisors uses the given divisors as-is and derives their undesirabilities.
func NewBeatSchemeWithDivisors(tempo float64, beatLength frac.Frac, divisors []int, opts BeatOptions) (*BeatScheme, error) {
	if err := checkBeat(tempo, beatLength); err != nil {
		return nil, err
	}
	if len(divisors) == 0 {
		return nil, fmt.Errorf("beat of length %v: %w", beatLength, ErrNoDivisions)
	}
	calc := opts.calculator()
	natural := int(beatLength.Num())
	raws := make([]float64, len(divisors))
	for i, div := range divisors {
		if div < 2 {
			return nil, fmt.Errorf("divisor %d: %w", div, ErrInvalidBeat)
		}
		raw, err := calc.RawIndigestibility(div, natural)
		if err != nil {
			return nil, err
		}
		raws[i] = raw
	}
	return newScheme(tempo, beatLength, divisors, barlicity.Undesirabilities(raws, opts.SimplicityPreference)), nil
}

// NewBeatSchemeWithWeights uses caller-supplied divisions and undesirabilities verbatim.
func NewBeatSchemeWithWeights(tempo float64, beatLength frac.Frac, divisions []Division) (*BeatScheme, error) {
	if err := checkBeat(tempo, beatLength); err != nil {
		return nil, err
	}
	if len(divisions) == 0 {
		return nil, fmt.Errorf("beat of length %v: %w", beatLength, ErrNoDivisions)
	}
	for _, d := range divisions {
		if d.Divisor < 2 {
			return nil, fmt.Errorf("divisor %d: %w", d.Divisor, ErrInvalidBeat)
		}
	}
	divs := slices.Clone(divisions)
	slices.SortStableFunc(divs, func(a, b Division) int {
		return a.Divisor - b.Divisor
	})
	return &BeatScheme{
		Tempo:      tempo,
		BeatLength: beatLength,
		Divisions:  divs,
	}, nil
}

func newScheme(tempo float64, beatLength frac.Frac, divisors []int, undesirabilities []float64) *BeatScheme {
	divs := make([]Division, len(divisors))
	for i := range divisors {
		divs[i] = Division{
			Divisor:        divisors[i],
			Undesirability: undesirabilities[i],
		}
	}
	slices.SortStableFunc(divs, func(a, b Division) int {
		return a.Divisor - b.Divisor
	})
	return &BeatScheme{
		Tempo:      tempo,
		BeatLength: beatLength,
		Divisions:  divs,
	}
}

// LengthSeconds returns the beat's duration in seconds at its tempo.
func (b *BeatScheme) LengthSeconds() float64 {
	return b.BeatLength.Float64() * 60 / b.Tempo
}

func (b *BeatScheme) String() string {
	return fmt.Sprintf("BeatScheme[tempo=%v, beat_length=%v, divisions=%v]", b.Tempo, b.BeatLength, b.Divisions)
}
