package quantize

import (
	"cmp"
	"maps"
	"slices"

	"github.com/MarcTheSpark/playcorder/internal/frac"
)

// Tie is the role a note plays in a tie chain.
type Tie string

const (
	TieNone     Tie = ""
	TieStart    Tie = "start"
	TieStop     Tie = "stop"
	TieContinue Tie = "continue"
)

// Variant carries articulation and notation hints through the pipeline untouched.
type Variant map[string]string

// Equal compares two variants; nil and empty are equal.
func (v Variant) Equal(o Variant) bool {
	return maps.Equal(v, o)
}

// Note is a performed note with times in seconds.
type Note struct {
	StartTime float64 `yaml:"start_time"`
	Length    float64 `yaml:"length"`
	// Pitch is nil for a rest and has more than one entry for a chord.
	Pitch   []float64 `yaml:"pitch,flow,omitempty"`
	Volume  float64   `yaml:"volume"`
	Variant Variant   `yaml:"variant,omitempty"`
	Tie     Tie       `yaml:"tie,omitempty"`
}

func (n Note) End() float64 {
	return n.StartTime + n.Length
}

func (n Note) IsRest() bool {
	return len(n.Pitch) == 0
}

func (n Note) CompareStart(o Note) int {
	return cmp.Compare(n.StartTime, o.StartTime)
}

// Overhang returns how far n extends past the start of next, in seconds.
func (n Note) Overhang(next Note) float64 {
	return n.End() - next.StartTime
}

// SameSlot reports whether n and o agree in timing, dynamics, variant and tie.
func (n Note) SameSlot(o Note) bool {
	return n.StartTime == o.StartTime && n.Length == o.Length && n.Volume == o.Volume &&
		n.Variant.Equal(o.Variant) && n.Tie == o.Tie
}

func (n Note) Pitches() []float64 {
	return n.Pitch
}

func (n Note) WithPitch(pitch []float64) Note {
	n.Pitch = pitch
	return n
}

// QuantizedNote is a note with exact start and length in quarter notes.
type QuantizedNote struct {
	Start   frac.Frac `yaml:"start"`
	Length  frac.Frac `yaml:"length"`
	Pitch   []float64 `yaml:"pitch,flow,omitempty"`
	Volume  float64   `yaml:"volume,omitempty"`
	Variant Variant   `yaml:"variant,omitempty"`
	Tie     Tie       `yaml:"tie,omitempty"`
}

func (n QuantizedNote) End() frac.Frac {
	return n.Start.Add(n.Length)
}

func (n QuantizedNote) IsRest() bool {
	return len(n.Pitch) == 0
}

func (n QuantizedNote) CompareStart(o QuantizedNote) int {
	return n.Start.Cmp(o.Start)
}

// Overhang returns how far n extends past the start of next, in quarter notes.
func (n QuantizedNote) Overhang(next QuantizedNote) float64 {
	return n.End().Sub(next.Start).Float64()
}

func (n QuantizedNote) SameSlot(o QuantizedNote) bool {
	return n.Start == o.Start && n.Length == o.Length && n.Volume == o.Volume &&
		n.Variant.Equal(o.Variant) && n.Tie == o.Tie
}

func (n QuantizedNote) Pitches() []float64 {
	return n.Pitch
}

func (n QuantizedNote) WithPitch(pitch []float64) QuantizedNote {
	n.Pitch = pitch
	return n
}

// Seconds converts a quantized note back to seconds given the seconds position of each quarter.
func (n QuantizedNote) Seconds(at func(frac.Frac) float64) Note {
	start := at(n.Start)
	return Note{
		StartTime: start,
		Length:    at(n.End()) - start,
		Pitch:     slices.Clone(n.Pitch),
		Volume:    n.Volume,
		Variant:   n.Variant,
		Tie:       n.Tie,
	}
}
