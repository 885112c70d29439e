package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
)

func on(tick int64, ch, key uint8) timedEvent {
	return timedEvent{tick, smf.Message(midi.NoteOn(ch, key, 127))}
}

func off(tick int64, ch, key uint8) timedEvent {
	return timedEvent{tick, smf.Message(midi.NoteOff(ch, key))}
}

func meta(tick int64, msg smf.Message) timedEvent {
	return timedEvent{tick, msg}
}

func testSMF(tracks ...[]timedEvent) *smf.SMF {
	var end int64
	for _, t := range tracks {
		for _, ev := range t {
			end = max(end, ev.tick)
		}
	}
	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(480)
	for _, t := range tracks {
		s.Add(toTrack(t, end))
	}
	return s
}

func TestTempoMap(t *testing.T) {
	mid := testSMF([]timedEvent{
		meta(0, smf.MetaTempo(60)),
		meta(480, smf.MetaTempo(90)),
		meta(480, smf.MetaTempo(120)),
		meta(960, smf.MetaTempo(120)),
	})
	m, err := newTempoMap(mid)
	require.NoError(t, err)
	assert.Equal(t, 60.0, m.BPM(479))
	assert.Equal(t, 120.0, m.BPM(480))
	assert.InDelta(t, 0.5, m.Seconds(240), 1e-9)
	assert.InDelta(t, 1.0, m.Seconds(480), 1e-9)
	assert.InDelta(t, 1.5, m.Seconds(960), 1e-9)
}

func TestRecordingFromSMF(t *testing.T) {
	mid := testSMF(
		[]timedEvent{
			meta(0, smf.MetaTrackSequenceName("Melody")),
			on(0, 0, 60), off(480, 0, 60),
			on(480, 0, 64), off(960, 0, 64),
			on(960, 0, 67),
			on(1200, 0, 67),
			off(1440, 0, 67),
		},
		[]timedEvent{
			meta(0, smf.MetaTrackSequenceName("Bass")),
			on(0, 1, 36),
		},
	)
	rec, err := RecordingFromSMF(mid, "")
	require.NoError(t, err)
	require.Len(t, rec.Parts, 2)
	assert.Equal(t, "Melody", rec.Parts[0].Name)
	assert.Equal(t, "Bass", rec.Parts[1].Name)

	type want struct {
		start, length, pitch float64
	}
	require.Len(t, rec.Parts[0].Notes, 4)
	var got []want
	for _, n := range rec.Parts[0].Notes {
		got = append(got, want{n.StartTime, n.Length, n.Pitch[0]})
		assert.Equal(t, quantize.Variant{"channel": "0"}, n.Variant)
		assert.Equal(t, 1.0, n.Volume)
	}
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.25}, []float64{got[0].start, got[1].start, got[2].start, got[3].start}, 1e-9)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.25, 0.25}, []float64{got[0].length, got[1].length, got[2].length, got[3].length}, 1e-9)
	assert.Equal(t, []float64{60, 64, 67, 67}, []float64{got[0].pitch, got[1].pitch, got[2].pitch, got[3].pitch})

	require.Len(t, rec.Parts[1].Notes, 1)
	bass := rec.Parts[1].Notes[0]
	assert.InDelta(t, 1.5, bass.Length, 1e-9)
	assert.Equal(t, quantize.Variant{"channel": "1"}, bass.Variant)
	assert.InDelta(t, 1.5, rec.Length(), 1e-9)

	rec, err = RecordingFromSMF(mid, "^Mel")
	require.NoError(t, err)
	require.Len(t, rec.Parts, 1)
	assert.Equal(t, "Melody", rec.Parts[0].Name)

	_, err = RecordingFromSMF(mid, "(")
	assert.Error(t, err)
}

func TestForEachEventStop(t *testing.T) {
	mid := testSMF([]timedEvent{on(0, 0, 60), off(480, 0, 60), on(960, 0, 62), off(1440, 0, 62)})
	var ticks []int64
	err := forEachEvent(mid, func(tick int64, track int, msg smf.Message) error {
		if tick > 480 {
			return StopIteration
		}
		ticks = append(ticks, tick)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 480}, ticks)
}

func TestNoteTrackerPlaying(t *testing.T) {
	tempo, err := newTempoMap(testSMF([]timedEvent{meta(0, smf.MetaTempo(60))}))
	require.NoError(t, err)
	tracker := newNoteTracker(tempo)
	assert.False(t, tracker.Playing())
	tracker.Handle(0, 0, smf.Message(midi.NoteOn(0, 60, 100)))
	assert.True(t, tracker.Playing())
	tracker.Handle(480, 0, smf.Message(midi.NoteOff(0, 60)))
	assert.False(t, tracker.Playing())
	notes := tracker.Finish(480)
	require.Len(t, notes[0], 1)
	assert.InDelta(t, 1.0, notes[0][0].Length, 1e-9)
}

func TestRecordingFromSMFIgnoresTrailingEvents(t *testing.T) {
	mid := testSMF(
		[]timedEvent{meta(0, smf.MetaTrackSequenceName("Melody")), on(0, 0, 60), off(480, 0, 60)},
		[]timedEvent{meta(0, smf.MetaTrackSequenceName("Click")), on(0, 9, 42), off(240, 9, 42), on(1920, 9, 42), off(2160, 9, 42)},
	)
	tracks, err := selectTracks(mid, "^Mel")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(480), tracks[0].LastNote)

	rec, err := RecordingFromSMF(mid, "^Mel")
	require.NoError(t, err)
	require.Len(t, rec.Parts, 1)
	require.Len(t, rec.Parts[0].Notes, 1)
	assert.InDelta(t, 0.5, rec.Parts[0].Notes[0].Length, 1e-9)
}

func TestMeterFromSMF(t *testing.T) {
	mid := testSMF(
		[]timedEvent{
			meta(0, smf.MetaTimeSig(4, 4, 24, 8)),
			meta(0, smf.MetaTempo(60)),
			meta(480, smf.MetaTempo(120)),
			meta(960, smf.MetaTimeSig(3, 4, 24, 8)),
		},
		[]timedEvent{on(960, 0, 60), off(3840, 0, 60)},
	)
	measures, err := MeterFromSMF(mid)
	require.NoError(t, err)
	assert.Equal(t, []MeasureConfig{
		{TimeSignature: "2/4", BeatTempos: []float64{60, 120}},
		{TimeSignature: "3/4", Tempo: 120},
	}, measures)

	c := Merge(DefaultConfig(), Config{Measures: measures})
	tl, err := BuildTimeline(&c, barlicity.NewCalculator())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tl.Beat(1).StartSeconds, 1e-9)
	assert.InDelta(t, 1.5, tl.Beat(2).StartSeconds, 1e-9)
	assert.InDelta(t, 3.0, tl.Beat(5).StartSeconds, 1e-9)
}

func TestPartialSignature(t *testing.T) {
	tests := []struct {
		length int64
		denom  int
		want   string
	}{
		{960, 4, "2/4"},
		{720, 4, "3/8"},
		{240, 8, "1/8"},
		{1, 4, "1/64"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, partialSignature(tt.length, 480, tt.denom).String(), "length %d", tt.length)
	}
}

func TestSortNoteOffFirst(t *testing.T) {
	events := []timedEvent{
		on(10, 0, 60),
		off(10, 0, 60),
		meta(10, smf.MetaTempo(100)),
		on(0, 0, 60),
	}
	sortNoteOffFirst(events)
	assert.Equal(t, int64(0), events[0].tick)
	assert.True(t, events[1].msg.Is(smf.MetaTempoMsg))
	assert.True(t, events[2].msg.GetNoteEnd(nil, nil))
	assert.Equal(t, 2, eventRank(events[3].msg))
}

func TestExactTicksPerQuarter(t *testing.T) {
	s := &Score{Length: frac.Int(4)}
	assert.Equal(t, int64(1), exactTicksPerQuarter(s))
	s.Measures = []MeasureMark{{Start: frac.New(3, 2)}}
	assert.Equal(t, int64(2), exactTicksPerQuarter(s))
	s.Measures = append(s.Measures, MeasureMark{Start: frac.New(1, 3)})
	assert.Equal(t, int64(6), exactTicksPerQuarter(s))
	s.Measures = append(s.Measures, MeasureMark{Start: frac.New(1, 7*11*13*37)})
	assert.Equal(t, int64(fallbackTicksPerQuarter), exactTicksPerQuarter(s))
}
