// Package notate turns quantized voices into beat-aligned, tied fragments with tuplet ratios and
// single-notehead duration pieces.
package notate

import (
	"slices"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

// BeatLocator places beats and finds the beat containing a position.
type BeatLocator interface {
	scheme.BeatSource
	BeatIndexAt(q frac.Frac) int
}

// Fragment is a piece of a note lying entirely inside one beat.
type Fragment struct {
	quantize.QuantizedNote `yaml:",inline"`
	Beat                   int `yaml:"beat"`
}

// FillRests returns the voice sorted by start with rests inserted into every gap between 0 and end.
func FillRests(voice []quantize.QuantizedNote, end frac.Frac) []quantize.QuantizedNote {
	sorted := slices.Clone(voice)
	slices.SortStableFunc(sorted, func(a, b quantize.QuantizedNote) int {
		return a.CompareStart(b)
	})
	var out []quantize.QuantizedNote
	var pos frac.Frac
	for _, n := range sorted {
		if pos.Less(n.Start) {
			out = append(out, quantize.QuantizedNote{Start: pos, Length: n.Start.Sub(pos)})
		}
		out = append(out, n)
		pos = frac.Max(pos, n.End())
	}
	if pos.Less(end) {
		out = append(out, quantize.QuantizedNote{Start: pos, Length: end.Sub(pos)})
	}
	return out
}

func tieRoles(orig quantize.Tie) (first, middle, last quantize.Tie) {
	first, middle, last = quantize.TieStart, quantize.TieContinue, quantize.TieStop
	if orig == quantize.TieStop || orig == quantize.TieContinue {
		first = quantize.TieContinue
	}
	if orig == quantize.TieStart || orig == quantize.TieContinue {
		last = quantize.TieContinue
	}
	return first, middle, last
}

// SplitAtBeats cuts every note at each beat boundary strictly inside it. Pieces of a pitched note are
// tied: the first starts the tie, inner pieces continue it and the last stops it, unless the note
// was already part of a tie chain. Rests are cut without ties. Notes without length are dropped.
func SplitAtBeats(voice []quantize.QuantizedNote, beats BeatLocator) []Fragment {
	var out []Fragment
	for _, n := range voice {
		if n.Length.Sign() <= 0 {
			continue
		}
		end := n.End()
		var pieces []Fragment
		for i, start := beats.BeatIndexAt(n.Start), n.Start; start.Less(end); i++ {
			b := beats.Beat(i)
			if !start.Less(b.End()) {
				continue
			}
			pieceEnd := frac.Min(end, b.End())
			piece := n
			piece.Start = start
			piece.Length = pieceEnd.Sub(start)
			pieces = append(pieces, Fragment{QuantizedNote: piece, Beat: i})
			start = pieceEnd
		}
		if len(pieces) > 1 && !n.IsRest() {
			first, middle, last := tieRoles(n.Tie)
			for j := range pieces {
				switch j {
				case 0:
					pieces[j].Tie = first
				case len(pieces) - 1:
					pieces[j].Tie = last
				default:
					pieces[j].Tie = middle
				}
			}
		}
		out = append(out, pieces...)
	}
	return out
}
