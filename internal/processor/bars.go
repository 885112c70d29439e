package processor

import (
	"cmp"
	"fmt"
	"log"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

// maxPartialDenom bounds the denominator used to express a bar cut short by a time signature change.
const maxPartialDenom = 64

type timeSig struct {
	tick       int64
	num, denom int
}

// partialSignature expresses a bar of the given length in ticks as a time signature, starting at
// denom and doubling it until the length fits.
func partialSignature(length, ticksPerQuarter int64, denom int) scheme.TimeSignature {
	f := frac.New(length*int64(denom), 4*ticksPerQuarter)
	for f.Den() != 1 && denom < maxPartialDenom {
		f = f.MulInt(2)
		denom *= 2
	}
	num := f.Num()
	if f.Den() != 1 {
		num = max(1, int64(math.Round(f.Float64())))
		log.Printf("rounding partial bar of %d ticks to %d/%d", length, num, denom)
	}
	return scheme.TimeSignature{Num: int(num), Denom: denom}
}

func (m MeasureConfig) equal(o MeasureConfig) bool {
	return m.TimeSignature == o.TimeSignature && m.Tempo == o.Tempo &&
		slices.Equal(m.BeatTempos, o.BeatTempos) && len(m.Beats) == 0 && len(o.Beats) == 0
}

// barConfig samples the tempo at each beat of a bar.
func barConfig(ts scheme.TimeSignature, begin int64, tempo *tempoMap) (MeasureConfig, error) {
	beats, err := scheme.BeatLengths(ts)
	if err != nil {
		return MeasureConfig{}, err
	}
	m := MeasureConfig{TimeSignature: ts.String()}
	var pos frac.Frac
	tpq := frac.Int(tempo.ticksPerQuarter)
	for _, b := range beats {
		tick := begin + int64(math.Round(pos.Mul(tpq).Float64()))
		m.BeatTempos = append(m.BeatTempos, tempo.BPM(tick))
		pos = pos.Add(b)
	}
	if slices.Min(m.BeatTempos) == slices.Max(m.BeatTempos) {
		m.Tempo = m.BeatTempos[0]
		m.BeatTempos = nil
	}
	return m, nil
}

// MeterFromSMF derives one measure config per bar from the time signature and tempo events of a
// MIDI file, up to the last playable event. Trailing repetitions of the last bar are left out.
func MeterFromSMF(mid *smf.SMF) ([]MeasureConfig, error) {
	tempo, err := newTempoMap(mid)
	if err != nil {
		return nil, err
	}
	tpq := tempo.ticksPerQuarter
	sigs := []timeSig{{tick: 0, num: 4, denom: 4}}
	var lastTick int64
	err = forEachEvent(mid, func(tick int64, track int, msg smf.Message) error {
		if msg.IsPlayable() {
			lastTick = max(lastTick, tick)
		}
		var num, denom, cpt, dsqpq uint8
		if msg.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq) {
			sigs = append(sigs, timeSig{tick: tick, num: int(num), denom: int(denom)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// If there are multiple time signatures at the same tick, only keep the LAST one.
	// As CompactFunc keeps the first of a set of duplicates, we first reverse and then call CompactFunc.
	slices.Reverse(sigs)
	slices.SortStableFunc(sigs, func(a, b timeSig) int {
		return cmp.Compare(a.tick, b.tick)
	})
	sigs = slices.CompactFunc(sigs, func(a, b timeSig) bool {
		return a.tick == b.tick
	})

	var measures []MeasureConfig
	var tick int64
	pos := 0
	for len(measures) == 0 || tick < lastTick {
		for pos+1 < len(sigs) && sigs[pos+1].tick <= tick {
			pos++
		}
		sig := sigs[pos]
		ts := scheme.TimeSignature{Num: sig.num, Denom: sig.denom}
		if err := ts.Validate(); err != nil {
			return nil, fmt.Errorf("time signature at tick %d: %w", sig.tick, err)
		}
		whole := 4 * tpq
		if (whole*int64(sig.num))%int64(sig.denom) != 0 {
			return nil, fmt.Errorf("unusual bar duration: %d ticks per whole in a %v time signature: %w", whole, ts, ErrTimeFormat)
		}
		length := whole * int64(sig.num) / int64(sig.denom)
		if pos+1 < len(sigs) && tick+length > sigs[pos+1].tick {
			length = sigs[pos+1].tick - tick
			ts = partialSignature(length, tpq, sig.denom)
		}
		m, err := barConfig(ts, tick, tempo)
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", len(measures)+1, err)
		}
		measures = append(measures, m)
		tick += length
	}
	for len(measures) > 1 && measures[len(measures)-1].equal(measures[len(measures)-2]) {
		measures = measures[:len(measures)-1]
	}
	log.Printf("meter from MIDI: %d distinct bars up to tick %d", len(measures), lastTick)
	return measures, nil
}
