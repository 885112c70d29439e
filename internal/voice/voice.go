// Package voice merges simultaneous notes into chords and splits note lists into monophonic voices.
package voice

import (
	"slices"
)

// DefaultMaxOverlap is the overlap in seconds tolerated between consecutive notes of a recorded voice.
const DefaultMaxOverlap = 0.01

// DefaultQuantizedMaxOverlap is the overlap in quarter notes tolerated after quantization.
const DefaultQuantizedMaxOverlap = 0.001

// Note is implemented by both performed and quantized notes.
type Note[N any] interface {
	CompareStart(other N) int
	// Overhang returns how far the note extends past the start of next.
	Overhang(next N) float64
	// SameSlot reports whether two notes can sound as one chord.
	SameSlot(other N) bool
	IsRest() bool
	Pitches() []float64
	WithPitch(pitch []float64) N
}

// CollapseChords sorts notes by start and merges each adjacent pair that shares a slot into one chord.
// After a merge the same position is checked again, so any number of simultaneous notes end up as a
// single chord. Rests are never merged, and neither are exact duplicates.
func CollapseChords[N Note[N]](notes []N) []N {
	out := slices.Clone(notes)
	slices.SortStableFunc(out, func(a, b N) int {
		return a.CompareStart(b)
	})
	for i := 0; i+1 < len(out); {
		a, b := out[i], out[i+1]
		if a.IsRest() || b.IsRest() || !a.SameSlot(b) || slices.Equal(a.Pitches(), b.Pitches()) {
			i++
			continue
		}
		pitch := make([]float64, 0, len(a.Pitches())+len(b.Pitches()))
		pitch = append(pitch, a.Pitches()...)
		pitch = append(pitch, b.Pitches()...)
		out[i] = a.WithPitch(pitch)
		out = slices.Delete(out, i+1, i+2)
	}
	return out
}

// SeparateVoices sorts notes by start and puts each one into the first voice, in creation order,
// whose last note overhangs it by less than maxOverlap. A note that fits nowhere opens a new voice.
func SeparateVoices[N Note[N]](notes []N, maxOverlap float64) [][]N {
	sorted := slices.Clone(notes)
	slices.SortStableFunc(sorted, func(a, b N) int {
		return a.CompareStart(b)
	})
	var voices [][]N
	for _, n := range sorted {
		placed := false
		for i, v := range voices {
			if v[len(v)-1].Overhang(n) < maxOverlap {
				voices[i] = append(v, n)
				placed = true
				break
			}
		}
		if !placed {
			voices = append(voices, []N{n})
		}
	}
	return voices
}
