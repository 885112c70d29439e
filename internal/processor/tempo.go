package processor

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrTimeFormat is returned for MIDI files not using metric ticks.
var ErrTimeFormat = errors.New("only metric ticks time format is supported")

// defaultBPM is the tempo of a MIDI file before its first tempo event.
const defaultBPM = 120.0

type tempoChange struct {
	tick    int64
	bpm     float64
	seconds float64
}

// tempoMap converts between ticks and seconds of one MIDI file.
type tempoMap struct {
	ticksPerQuarter int64
	changes         []tempoChange
}

func ticksPerQuarter(mid *smf.SMF) (int64, error) {
	mt, ok := mid.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return 0, fmt.Errorf("time format %v: %w", mid.TimeFormat, ErrTimeFormat)
	}
	return int64(mt), nil
}

// newTempoMap collects the tempo events of all tracks. Of several events on one tick, the last one wins.
func newTempoMap(mid *smf.SMF) (*tempoMap, error) {
	tpq, err := ticksPerQuarter(mid)
	if err != nil {
		return nil, err
	}
	changes := []tempoChange{{tick: 0, bpm: defaultBPM}}
	err = forEachEvent(mid, func(tick int64, track int, msg smf.Message) error {
		var bpm float64
		if !msg.GetMetaTempo(&bpm) || bpm <= 0 {
			return nil
		}
		changes = append(changes, tempoChange{tick: tick, bpm: bpm})
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Keep the last change per tick; CompactFunc keeps the first of a run, hence the reversal.
	slices.Reverse(changes)
	slices.SortStableFunc(changes, func(a, b tempoChange) int {
		return cmp.Compare(a.tick, b.tick)
	})
	changes = slices.CompactFunc(changes, func(a, b tempoChange) bool {
		return a.tick == b.tick
	})
	for i := 1; i < len(changes); i++ {
		prev := changes[i-1]
		changes[i].seconds = prev.seconds + float64(changes[i].tick-prev.tick)*60/(prev.bpm*float64(tpq))
	}
	return &tempoMap{ticksPerQuarter: tpq, changes: changes}, nil
}

func (m *tempoMap) at(tick int64) tempoChange {
	i, found := slices.BinarySearchFunc(m.changes, tick, func(c tempoChange, t int64) int {
		return cmp.Compare(c.tick, t)
	})
	if !found {
		i--
	}
	return m.changes[i]
}

// BPM returns the tempo in quarter notes per minute at the given tick.
func (m *tempoMap) BPM(tick int64) float64 {
	return m.at(tick).bpm
}

// Seconds returns the time of the given tick.
func (m *tempoMap) Seconds(tick int64) float64 {
	c := m.at(tick)
	return c.seconds + float64(tick-c.tick)*60/(c.bpm*float64(m.ticksPerQuarter))
}
