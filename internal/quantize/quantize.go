// Package quantize snaps performed notes onto the best-fitting subdivision grid of each beat.
package quantize

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

// ErrInvalidNote is returned for notes with a negative or non-finite start or length.
var ErrInvalidNote = errors.New("invalid note")

// Options controls the divisor search.
type Options struct {
	// OnsetTerminationWeighting is 0 to judge a grid by onsets only, 1 to judge it by terminations only.
	OnsetTerminationWeighting float64 `yaml:"onset_termination_weighting"`
}

// DefaultOptions weights attacks over releases.
func DefaultOptions() Options {
	return Options{
		OnsetTerminationWeighting: 0.3,
	}
}

// Result is a quantized voice.
type Result struct {
	// Notes in the same order as the input.
	Notes []QuantizedNote
	// Divisors holds the chosen divisor of every beat up to the last one containing an event.
	// Beats without onsets or terminations get 0.
	Divisors []int
}

type event struct {
	time float64
	note int
}

func checkNote(i int, n Note) error {
	if math.IsNaN(n.StartTime) || math.IsInf(n.StartTime, 0) || n.StartTime < 0 {
		return fmt.Errorf("note %d starts at %v: %w", i, n.StartTime, ErrInvalidNote)
	}
	if math.IsNaN(n.Length) || math.IsInf(n.Length, 0) || n.Length < 0 {
		return fmt.Errorf("note %d has length %v: %w", i, n.Length, ErrInvalidNote)
	}
	return nil
}

// squaredError sums the squared distance of each event to the nearest multiple of piece after beatStart.
func squaredError(events []event, beatStart, piece float64) float64 {
	var total float64
	for _, ev := range events {
		offset := ev.time - beatStart
		d := offset - math.Round(offset/piece)*piece
		total += d * d
	}
	return total
}

// Quantize walks the beats in order. Every beat containing onsets or terminations picks the division
// minimizing undesirability times the weighted squared snapping error; the earliest division wins
// ties. Events then snap to that grid. A note whose length snaps to zero is made one piece long,
// extending its end if that stays within the beat and moving its start back otherwise.
func Quantize(notes []Note, beats scheme.BeatSource, opts Options) (*Result, error) {
	w := opts.OnsetTerminationWeighting
	if math.IsNaN(w) || w < 0 || w > 1 {
		return nil, fmt.Errorf("onset/termination weighting %v is outside [0, 1]", w)
	}
	onsets := make([]event, len(notes))
	terminations := make([]event, len(notes))
	for i, n := range notes {
		if err := checkNote(i, n); err != nil {
			return nil, err
		}
		onsets[i] = event{time: n.StartTime, note: i}
		terminations[i] = event{time: n.End(), note: i}
	}
	byTime := func(a, b event) int {
		return cmp.Compare(a.time, b.time)
	}
	slices.SortStableFunc(onsets, byTime)
	slices.SortStableFunc(terminations, byTime)

	starts := make([]frac.Frac, len(notes))
	ends := make([]frac.Frac, len(notes))
	var divisors []int
	oi, ti := 0, 0
	for beat := 0; oi < len(onsets) || ti < len(terminations); beat++ {
		b := beats.Beat(beat)
		beatEnd := b.EndSeconds()
		oEnd := oi
		for oEnd < len(onsets) && onsets[oEnd].time < beatEnd {
			oEnd++
		}
		tEnd := ti
		for tEnd < len(terminations) && terminations[tEnd].time < beatEnd {
			tEnd++
		}
		if oEnd == oi && tEnd == ti {
			divisors = append(divisors, 0)
			continue
		}
		if len(b.Divisions) == 0 {
			return nil, fmt.Errorf("beat %d: %w", beat, scheme.ErrNoDivisions)
		}

		beatSeconds := b.LengthSeconds()
		best := b.Divisions[0].Divisor
		bestScore := math.Inf(1)
		for _, d := range b.Divisions {
			piece := beatSeconds / float64(d.Divisor)
			onsetErr := squaredError(onsets[oi:oEnd], b.StartSeconds, piece)
			termErr := squaredError(terminations[ti:tEnd], b.StartSeconds, piece)
			score := d.Undesirability * (w*termErr + (1-w)*onsetErr)
			if score < bestScore {
				best, bestScore = d.Divisor, score
			}
		}

		pieceSeconds := beatSeconds / float64(best)
		pieceQuarters := b.BeatLength.DivInt(int64(best))
		snap := func(t float64) frac.Frac {
			pieces := math.Round((t - b.StartSeconds) / pieceSeconds)
			return b.Start.Add(pieceQuarters.MulInt(int64(pieces)))
		}
		for _, ev := range onsets[oi:oEnd] {
			starts[ev.note] = snap(ev.time)
		}
		for _, ev := range terminations[ti:tEnd] {
			end := snap(ev.time)
			if end == starts[ev.note] {
				if !b.End().Less(end.Add(pieceQuarters)) {
					end = end.Add(pieceQuarters)
				} else {
					starts[ev.note] = starts[ev.note].Sub(pieceQuarters)
				}
			}
			ends[ev.note] = end
		}
		divisors = append(divisors, best)
		oi, ti = oEnd, tEnd
	}

	out := make([]QuantizedNote, len(notes))
	for i, n := range notes {
		out[i] = QuantizedNote{
			Start:   starts[i],
			Length:  ends[i].Sub(starts[i]),
			Pitch:   slices.Clone(n.Pitch),
			Volume:  n.Volume,
			Variant: n.Variant,
			Tie:     n.Tie,
		}
	}
	return &Result{
		Notes:    out,
		Divisors: divisors,
	}, nil
}
