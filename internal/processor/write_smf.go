package processor

import (
	"fmt"
	"math"
	"strconv"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

const (
	// fallbackTicksPerQuarter is used when no exact resolution fits into a MIDI header.
	fallbackTicksPerQuarter = 960
	maxTicksPerQuarter      = 32767
)

// exactTicksPerQuarter returns the least common multiple of all denominators in the score, or the
// fallback resolution if that does not fit.
func exactTicksPerQuarter(s *Score) int64 {
	tpq := int64(1)
	ok := true
	add := func(f frac.Frac) {
		if !ok {
			return
		}
		tpq = frac.LCM(tpq, f.Den())
		if tpq > maxTicksPerQuarter {
			ok = false
		}
	}
	add(s.Length)
	for _, m := range s.Measures {
		add(m.Start)
	}
	for _, t := range s.Tempos {
		add(t.Start)
	}
	for _, p := range s.Parts {
		for _, v := range p.Voices {
			for _, f := range v.Fragments {
				add(f.Start)
				add(f.Length)
			}
		}
	}
	if !ok {
		return fallbackTicksPerQuarter
	}
	return tpq
}

func clampByte(x float64, lo, hi uint8) uint8 {
	return uint8(min(max(math.Round(x), float64(lo)), float64(hi)))
}

func noteChannel(v quantize.Variant) uint8 {
	ch, err := strconv.Atoi(v["channel"])
	if err != nil || ch < 0 || ch > 15 {
		return 0
	}
	return uint8(ch)
}

// clocksPerClick returns the metronome clocks of the first beat of a measure, 24 per quarter note.
func clocksPerClick(ts scheme.TimeSignature) uint8 {
	beats, err := scheme.BeatLengths(ts)
	if err != nil || len(beats) == 0 {
		return 24
	}
	c := beats[0].MulInt(24)
	if c.Den() != 1 || c.Num() > 255 {
		return 24
	}
	return uint8(c.Num())
}

// ScoreToSMF renders a score as a type 1 MIDI file: a conductor track with meter and tempo, and one
// track per voice. Tied fragments sound as one note. A ticksPerQuarter of 0 picks the smallest
// resolution at which every position is exact.
func ScoreToSMF(s *Score, ticksPerQuarter int) (*smf.SMF, error) {
	tpq := int64(ticksPerQuarter)
	if tpq == 0 {
		tpq = exactTicksPerQuarter(s)
	}
	if tpq < 0 || tpq > maxTicksPerQuarter {
		return nil, fmt.Errorf("ticks per quarter %d out of range: %w", tpq, ErrTimeFormat)
	}
	toTick := func(f frac.Frac) int64 {
		t := f.MulInt(tpq)
		if t.Den() == 1 {
			return t.Num()
		}
		return int64(math.Round(t.Float64()))
	}
	end := toTick(s.Length)

	var tracks [][]timedEvent
	addEvent := func(t int, tick int64, msg smf.Message) {
		for t >= len(tracks) {
			tracks = append(tracks, nil)
		}
		tracks[t] = append(tracks[t], timedEvent{tick: tick, msg: msg})
	}

	addEvent(0, 0, smf.MetaTrackSequenceName("conductor"))
	var prev scheme.TimeSignature
	for _, m := range s.Measures {
		if m.TimeSignature == prev {
			continue
		}
		ts := m.TimeSignature
		addEvent(0, toTick(m.Start), smf.MetaTimeSig(uint8(ts.Num), uint8(ts.Denom), clocksPerClick(ts), 8))
		prev = ts
	}
	for _, t := range s.Tempos {
		addEvent(0, toTick(t.Start), smf.MetaTempo(t.Tempo))
	}

	for _, p := range s.Parts {
		for j, v := range p.Voices {
			track := len(tracks)
			addEvent(track, 0, smf.MetaTrackSequenceName(fmt.Sprintf("%s %d", p.Name, j+1)))
			for _, f := range v.Fragments {
				if f.IsRest() {
					continue
				}
				ch := noteChannel(f.Variant)
				startsNote := f.Tie != quantize.TieStop && f.Tie != quantize.TieContinue
				endsNote := f.Tie != quantize.TieStart && f.Tie != quantize.TieContinue
				for _, pitch := range f.Pitch {
					key := clampByte(pitch, 0, 127)
					if startsNote {
						addEvent(track, toTick(f.Start), smf.Message(midi.NoteOn(ch, key, clampByte(f.Volume*127, 1, 127))))
					}
					if endsNote {
						addEvent(track, toTick(f.End()), smf.Message(midi.NoteOff(ch, key)))
					}
				}
			}
		}
	}

	out := smf.NewSMF1()
	out.TimeFormat = smf.MetricTicks(tpq)
	for _, t := range tracks {
		out.Add(toTrack(t, end))
	}
	return out, nil
}
