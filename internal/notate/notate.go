package notate

import (
	"fmt"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

// NotatedFragment is a fragment ready for a notation writer.
type NotatedFragment struct {
	Fragment    `yaml:",inline"`
	Tuplet      *Tuplet `yaml:"tuplet,omitempty"`
	TupletStart bool    `yaml:"tuplet_start,omitempty"`
	TupletEnd   bool    `yaml:"tuplet_end,omitempty"`
	// LengthWithoutTuplet is the written length before the tuplet ratio applies.
	LengthWithoutTuplet frac.Frac   `yaml:"length_without_tuplet"`
	Constituents        []frac.Frac `yaml:"constituents,flow"`
}

// Notate assigns each fragment the tuplet of its beat's chosen divisor and decomposes its written
// length. Beats past the end of divisors, or with divisor 0, get no tuplet.
func Notate(fragments []Fragment, beats scheme.BeatSource, divisors []int) ([]NotatedFragment, error) {
	out := make([]NotatedFragment, 0, len(fragments))
	for _, f := range fragments {
		b := beats.Beat(f.Beat)
		divisor := 0
		if f.Beat < len(divisors) {
			divisor = divisors[f.Beat]
		}
		nf := NotatedFragment{
			Fragment:            f,
			LengthWithoutTuplet: f.Length,
		}
		if t := TupletFor(b.BeatLength, divisor); t != nil {
			nf.Tuplet = t
			nf.LengthWithoutTuplet = f.Length.MulInt(int64(t.Actual)).DivInt(int64(t.Normal))
			nf.TupletStart = f.Start == b.Start
			nf.TupletEnd = f.End() == b.End()
		}
		var err error
		nf.Constituents, err = UndottedConstituents(nf.LengthWithoutTuplet)
		if err != nil {
			return nil, fmt.Errorf("fragment at %v in beat %d: %w", f.Start, f.Beat, err)
		}
		out = append(out, nf)
	}
	return out, nil
}

// Voice fills rests up to end, splits at beats and notates one quantized voice.
func Voice(voice []quantize.QuantizedNote, beats BeatLocator, divisors []int, end frac.Frac) ([]NotatedFragment, error) {
	return Notate(SplitAtBeats(FillRests(voice, end), beats), beats, divisors)
}
