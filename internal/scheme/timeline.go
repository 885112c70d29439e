package scheme

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/MarcTheSpark/playcorder/internal/frac"
)

// ErrEmptyTimeline is returned when a timeline or beat sequence has nothing in it.
var ErrEmptyTimeline = errors.New("timeline has no beats")

// PlacedBeat is a beat scheme at its position on a timeline.
type PlacedBeat struct {
	*BeatScheme
	// Index of the beat counted from the start of the timeline.
	Index int
	// Measure containing the beat, or -1 for a plain beat sequence.
	Measure int
	// Start in quarter notes and in seconds.
	Start        frac.Frac
	StartSeconds float64
}

func (b PlacedBeat) End() frac.Frac {
	return b.Start.Add(b.BeatLength)
}

func (b PlacedBeat) EndSeconds() float64 {
	return b.StartSeconds + b.LengthSeconds()
}

// BeatSource yields placed beats by index. Every index >= 0 is valid: sources repeat their
// final material indefinitely.
type BeatSource interface {
	Beat(i int) PlacedBeat
}

// PlacedMeasure is a measure scheme at its position on a timeline.
type PlacedMeasure struct {
	*MeasureScheme
	Index        int
	FirstBeat    int
	Start        frac.Frac
	StartSeconds float64
}

func (m PlacedMeasure) End() frac.Frac {
	return m.Start.Add(m.Length())
}

// TempoMark records a tempo change at a position in quarter notes.
type TempoMark struct {
	Start      frac.Frac `yaml:"start"`
	Tempo      float64   `yaml:"tempo"`
	BeatLength frac.Frac `yaml:"beat_length"`
}

// Timeline lays measures end to end. Past its end the last measure repeats forever; repeated
// positions are computed, not stored.
type Timeline struct {
	measures []*MeasureScheme
	beats    []PlacedBeat
	// first beat index of each measure
	firstBeat     []int
	starts        []frac.Frac
	startSeconds  []float64
	length        frac.Frac
	lengthSeconds float64
}

// NewTimeline places the given measures.
func NewTimeline(measures []*MeasureScheme) (*Timeline, error) {
	if len(measures) == 0 {
		return nil, ErrEmptyTimeline
	}
	t := &Timeline{
		measures: measures,
	}
	var pos frac.Frac
	var seconds float64
	for mi, m := range measures {
		if m == nil || len(m.Beats) == 0 {
			return nil, fmt.Errorf("measure %d: %w", mi, ErrEmptyTimeline)
		}
		t.firstBeat = append(t.firstBeat, len(t.beats))
		t.starts = append(t.starts, pos)
		t.startSeconds = append(t.startSeconds, seconds)
		for _, b := range m.Beats {
			t.beats = append(t.beats, PlacedBeat{
				BeatScheme:   b,
				Index:        len(t.beats),
				Measure:      mi,
				Start:        pos,
				StartSeconds: seconds,
			})
			pos = pos.Add(b.BeatLength)
			seconds += b.LengthSeconds()
		}
	}
	t.length = pos
	t.lengthSeconds = seconds
	return t, nil
}

// Measures returns the explicitly given measures.
func (t *Timeline) Measures() []*MeasureScheme {
	return t.measures
}

func (t *Timeline) last() *MeasureScheme {
	return t.measures[len(t.measures)-1]
}

// Beat returns the i-th beat, repeating the last measure past the explicit ones.
func (t *Timeline) Beat(i int) PlacedBeat {
	if i < 0 {
		panic(fmt.Sprintf("scheme: negative beat index %d", i))
	}
	if i < len(t.beats) {
		return t.beats[i]
	}
	last := t.last()
	n := len(last.Beats)
	k, j := (i-len(t.beats))/n, (i-len(t.beats))%n
	base := t.beats[len(t.beats)-n+j]
	return PlacedBeat{
		BeatScheme:   base.BeatScheme,
		Index:        i,
		Measure:      len(t.measures) + k,
		Start:        base.Start.Add(last.Length().MulInt(int64(k + 1))),
		StartSeconds: base.StartSeconds + last.LengthSeconds()*float64(k+1),
	}
}

// Measure returns the i-th measure, repeating the last one past the explicit ones.
func (t *Timeline) Measure(i int) PlacedMeasure {
	if i < 0 {
		panic(fmt.Sprintf("scheme: negative measure index %d", i))
	}
	if i < len(t.measures) {
		return PlacedMeasure{
			MeasureScheme: t.measures[i],
			Index:         i,
			FirstBeat:     t.firstBeat[i],
			Start:         t.starts[i],
			StartSeconds:  t.startSeconds[i],
		}
	}
	last := t.last()
	k := i - len(t.measures)
	return PlacedMeasure{
		MeasureScheme: last,
		Index:         i,
		FirstBeat:     len(t.beats) + k*len(last.Beats),
		Start:         t.length.Add(last.Length().MulInt(int64(k))),
		StartSeconds:  t.lengthSeconds + last.LengthSeconds()*float64(k),
	}
}

// BeatIndexAt returns the index of the beat containing the position q in quarter notes.
// Positions before 0 map to the first beat.
func (t *Timeline) BeatIndexAt(q frac.Frac) int {
	if q.Sign() <= 0 {
		return 0
	}
	if q.Less(t.length) {
		return sort.Search(len(t.beats), func(i int) bool {
			return q.Less(t.beats[i].End())
		})
	}
	last := t.last()
	over := q.Sub(t.length).Div(last.Length())
	k := over.Num() / over.Den()
	rem := q.Sub(t.length).Sub(last.Length().MulInt(k))
	n := len(last.Beats)
	var pos frac.Frac
	j := 0
	for ; j < n-1; j++ {
		pos = pos.Add(last.Beats[j].BeatLength)
		if rem.Less(pos) {
			break
		}
	}
	return len(t.beats) + int(k)*n + j
}

// BeatIndexAtSeconds returns the index of the beat containing the time s.
// Times before 0 map to the first beat.
func (t *Timeline) BeatIndexAtSeconds(s float64) int {
	if s <= 0 {
		return 0
	}
	if s < t.lengthSeconds {
		i := sort.Search(len(t.beats), func(i int) bool {
			return s < t.beats[i].EndSeconds()
		})
		if i < len(t.beats) {
			return i
		}
	}
	last := t.last()
	measureSeconds := last.LengthSeconds()
	k := int(math.Floor((s - t.lengthSeconds) / measureSeconds))
	if k < 0 {
		k = 0
	}
	rem := s - t.lengthSeconds - measureSeconds*float64(k)
	n := len(last.Beats)
	var pos float64
	j := 0
	for ; j < n-1; j++ {
		pos += last.Beats[j].LengthSeconds()
		if rem < pos {
			break
		}
	}
	return len(t.beats) + k*n + j
}

// SecondsAt converts a position in quarter notes to seconds.
func (t *Timeline) SecondsAt(q frac.Frac) float64 {
	b := t.Beat(t.BeatIndexAt(q))
	return b.StartSeconds + q.Sub(b.Start).Float64()*60/b.Tempo
}

// QuartersLength converts a recording length in seconds to quarter notes, rounded up to the end of
// the beat in which the recording stops.
func (t *Timeline) QuartersLength(seconds float64) frac.Frac {
	if seconds <= 0 {
		return frac.Frac{}
	}
	b := t.Beat(t.BeatIndexAtSeconds(seconds))
	if b.StartSeconds == seconds {
		return b.Start
	}
	return b.End()
}

// MeasureMarks returns the measures starting before upTo; there is always at least one.
func (t *Timeline) MeasureMarks(upTo frac.Frac) []PlacedMeasure {
	marks := []PlacedMeasure{t.Measure(0)}
	for i := 1; ; i++ {
		m := t.Measure(i)
		if !m.Start.Less(upTo) {
			return marks
		}
		marks = append(marks, m)
	}
}

// TempoMarks returns a mark for the first beat and for every beat starting before upTo whose tempo
// or beat length differs from the previous one.
func (t *Timeline) TempoMarks(upTo frac.Frac) []TempoMark {
	first := t.Beat(0)
	marks := []TempoMark{{Start: first.Start, Tempo: first.Tempo, BeatLength: first.BeatLength}}
	prev := first
	for i := 1; ; i++ {
		b := t.Beat(i)
		if !b.Start.Less(upTo) {
			return marks
		}
		if b.Tempo != prev.Tempo || b.BeatLength != prev.BeatLength {
			marks = append(marks, TempoMark{Start: b.Start, Tempo: b.Tempo, BeatLength: b.BeatLength})
		}
		prev = b
	}
}

// BeatSequence is a plain list of beats whose last beat repeats forever.
type BeatSequence struct {
	beats []PlacedBeat
}

// NewBeatSequence places the given beats end to end.
func NewBeatSequence(beats ...*BeatScheme) (*BeatSequence, error) {
	if len(beats) == 0 {
		return nil, ErrEmptyTimeline
	}
	s := &BeatSequence{}
	var pos frac.Frac
	var seconds float64
	for i, b := range beats {
		s.beats = append(s.beats, PlacedBeat{
			BeatScheme:   b,
			Index:        i,
			Measure:      -1,
			Start:        pos,
			StartSeconds: seconds,
		})
		pos = pos.Add(b.BeatLength)
		seconds += b.LengthSeconds()
	}
	return s, nil
}

// Beat returns the i-th beat, repeating the last one past the explicit ones.
func (s *BeatSequence) Beat(i int) PlacedBeat {
	if i < 0 {
		panic(fmt.Sprintf("scheme: negative beat index %d", i))
	}
	if i < len(s.beats) {
		return s.beats[i]
	}
	last := s.beats[len(s.beats)-1]
	k := i - len(s.beats) + 1
	return PlacedBeat{
		BeatScheme:   last.BeatScheme,
		Index:        i,
		Measure:      -1,
		Start:        last.Start.Add(last.BeatLength.MulInt(int64(k))),
		StartSeconds: last.StartSeconds + last.LengthSeconds()*float64(k),
	}
}

// BeatIndexAt returns the index of the beat containing the position q in quarter notes.
func (s *BeatSequence) BeatIndexAt(q frac.Frac) int {
	if q.Sign() <= 0 {
		return 0
	}
	last := s.beats[len(s.beats)-1]
	if q.Less(last.Start) {
		return sort.Search(len(s.beats), func(i int) bool {
			return q.Less(s.beats[i].End())
		})
	}
	over := q.Sub(last.Start).Div(last.BeatLength)
	return last.Index + int(over.Num()/over.Den())
}
