package scheme

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/frac"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMeasureLength means the beats of a measure do not add up to its time signature.
	ErrMeasureLength = errors.New("beat lengths do not sum to the measure length")
	// ErrTimeSignature means a time signature could not be parsed or is not representable.
	ErrTimeSignature = errors.New("invalid time signature")
)

// TimeSignature is a meter such as 5/8.
type TimeSignature struct {
	Num   int
	Denom int
}

// ParseTimeSignature parses "num/denom". The denominator must be a power of two.
func ParseTimeSignature(s string) (TimeSignature, error) {
	numStr, denomStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return TimeSignature{}, fmt.Errorf("%q: %w", s, ErrTimeSignature)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%q: %w", s, ErrTimeSignature)
	}
	denom, err := strconv.Atoi(strings.TrimSpace(denomStr))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%q: %w", s, ErrTimeSignature)
	}
	ts := TimeSignature{Num: num, Denom: denom}
	if err := ts.Validate(); err != nil {
		return TimeSignature{}, err
	}
	return ts, nil
}

// Validate checks for a positive numerator and a power-of-two denominator.
func (ts TimeSignature) Validate() error {
	if ts.Num <= 0 || ts.Denom <= 0 || ts.Denom&(ts.Denom-1) != 0 {
		return fmt.Errorf("%d/%d: %w", ts.Num, ts.Denom, ErrTimeSignature)
	}
	return nil
}

// Length returns the measure length in quarter notes.
func (ts TimeSignature) Length() frac.Frac {
	return frac.New(int64(ts.Num)*4, int64(ts.Denom))
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Num, ts.Denom)
}

func (ts TimeSignature) MarshalYAML() (any, error) {
	return ts.String(), nil
}

func (ts *TimeSignature) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimeSignature(value.Value)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// BeatLengths groups a time signature into beats. Quarter-or-longer units are one beat each. Shorter
// units are grouped in threes (compound), in twos (simple), or as one group of three followed by twos
// for odd numerators, so 5/8 becomes 3/2 + 1 and 7/8 becomes 3/2 + 1 + 1.
func BeatLengths(ts TimeSignature) ([]frac.Frac, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	unit := frac.New(4, int64(ts.Denom))
	var lengths []frac.Frac
	appendN := func(n int, length frac.Frac) {
		for i := 0; i < n; i++ {
			lengths = append(lengths, length)
		}
	}
	switch {
	case ts.Denom <= 4 || ts.Num == 1:
		appendN(ts.Num, unit)
	case ts.Num%3 == 0:
		appendN(ts.Num/3, unit.MulInt(3))
	case ts.Num%2 == 0:
		appendN(ts.Num/2, unit.MulInt(2))
	default:
		appendN(1, unit.MulInt(3))
		appendN((ts.Num-3)/2, unit.MulInt(2))
	}
	return lengths, nil
}

// MeasureScheme is a time signature together with the beat schemes that fill it.
type MeasureScheme struct {
	TimeSignature TimeSignature `yaml:"time_signature"`
	Beats         []*BeatScheme `yaml:"beats"`
}

// NewMeasureScheme checks that the beats exactly fill the time signature.
func NewMeasureScheme(ts TimeSignature, beats []*BeatScheme) (*MeasureScheme, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	if len(beats) == 0 {
		return nil, fmt.Errorf("%v without beats: %w", ts, ErrMeasureLength)
	}
	var total frac.Frac
	for _, b := range beats {
		total = total.Add(b.BeatLength)
	}
	if total != ts.Length() {
		return nil, fmt.Errorf("%v has beats totalling %v quarters, want %v: %w", ts, total, ts.Length(), ErrMeasureLength)
	}
	return &MeasureScheme{
		TimeSignature: ts,
		Beats:         beats,
	}, nil
}

// MeasureOptions controls FromTimeSignature.
type MeasureOptions struct {
	// Tempo in quarter notes per minute, used for every beat not covered by BeatTempos.
	Tempo float64
	// BeatTempos optionally sets the tempo of each beat slot.
	BeatTempos []float64
	Beat       BeatOptions
}

// DefaultMeasureOptions returns the defaults for building whole measures at the given tempo.
// Measures prefer simplicity less strongly than single beats do.
func DefaultMeasureOptions(tempo float64) MeasureOptions {
	return MeasureOptions{
		Tempo: tempo,
		Beat: BeatOptions{
			MaxDivisions:         8,
			MaxIndigestibility:   4,
			SimplicityPreference: 0.2,
		},
	}
}

// FromTimeSignature builds a measure with one independently generated beat scheme per beat slot.
func FromTimeSignature(ts TimeSignature, opts MeasureOptions) (*MeasureScheme, error) {
	lengths, err := BeatLengths(ts)
	if err != nil {
		return nil, err
	}
	if len(opts.BeatTempos) > 0 && len(opts.BeatTempos) != len(lengths) {
		return nil, fmt.Errorf("%v has %d beats but %d beat tempos were given: %w",
			ts, len(lengths), len(opts.BeatTempos), ErrInvalidBeat)
	}
	if opts.Beat.Calculator == nil {
		opts.Beat.Calculator = barlicity.NewCalculator()
	}
	beats := make([]*BeatScheme, len(lengths))
	for i, length := range lengths {
		tempo := opts.Tempo
		if len(opts.BeatTempos) > 0 {
			tempo = opts.BeatTempos[i]
		}
		beats[i], err = NewBeatScheme(tempo, length, opts.Beat)
		if err != nil {
			return nil, fmt.Errorf("beat %d of %v: %w", i, ts, err)
		}
	}
	return NewMeasureScheme(ts, beats)
}

// Length returns the measure length in quarter notes.
func (m *MeasureScheme) Length() frac.Frac {
	return m.TimeSignature.Length()
}

// LengthSeconds returns the sum of the beat durations in seconds.
func (m *MeasureScheme) LengthSeconds() float64 {
	var total float64
	for _, b := range m.Beats {
		total += b.LengthSeconds()
	}
	return total
}
