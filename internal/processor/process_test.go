package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
)

func note(start, length float64, pitch ...float64) quantize.Note {
	return quantize.Note{
		StartTime: start,
		Length:    length,
		Pitch:     pitch,
		Volume:    1,
		Variant:   quantize.Variant{"channel": "0"},
	}
}

func gridRecording() *Recording {
	return &Recording{Parts: []Part{{
		Name:  "Piano",
		Notes: []quantize.Note{note(0, 0.5, 60), note(0.5, 0.5, 62), note(1, 0.5, 64)},
	}}}
}

func TestProcessGrid(t *testing.T) {
	score, err := Process(gridRecording(), &Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, score.RunID)
	assert.Equal(t, frac.Int(4), score.Length)
	assert.Equal(t, []MeasureMark{{Start: frac.Frac{}, TimeSignature: scheme.TimeSignature{Num: 4, Denom: 4}}}, score.Measures)
	assert.Equal(t, []scheme.TempoMark{{Start: frac.Frac{}, Tempo: 60, BeatLength: frac.Int(1)}}, score.Tempos)

	require.Len(t, score.Parts, 1)
	require.Len(t, score.Parts[0].Voices, 1)
	v := score.Parts[0].Voices[0]
	assert.Equal(t, []int{2, 2}, v.Divisors)
	require.Len(t, v.Fragments, 6)

	starts := []frac.Frac{{}, frac.New(1, 2), frac.Int(1), frac.New(3, 2), frac.Int(2), frac.Int(3)}
	lengths := []frac.Frac{frac.New(1, 2), frac.New(1, 2), frac.New(1, 2), frac.New(1, 2), frac.Int(1), frac.Int(1)}
	for i, f := range v.Fragments {
		assert.Equal(t, starts[i], f.Start, "fragment %d", i)
		assert.Equal(t, lengths[i], f.Length, "fragment %d", i)
		assert.Nil(t, f.Tuplet, "fragment %d", i)
		assert.Equal(t, i >= 3, f.IsRest(), "fragment %d", i)
	}
}

func TestProcessSeparatesOverlappingNotes(t *testing.T) {
	rec := &Recording{Parts: []Part{{
		Name: "Piano",
		Notes: []quantize.Note{
			note(0, 2, 48),
			note(0, 1, 60),
			note(0, 1, 64),
			note(1, 1, 62),
		},
	}}}
	score, err := Process(rec, &Config{})
	require.NoError(t, err)
	require.Len(t, score.Parts[0].Voices, 2)
	first := score.Parts[0].Voices[0].Fragments
	// The long bass note keeps the first voice; the chord and the following note share the second.
	assert.Equal(t, []float64{48}, first[0].Pitch)
	assert.Equal(t, quantize.TieStart, first[0].Tie)
	assert.Equal(t, quantize.TieStop, first[1].Tie)
	second := score.Parts[0].Voices[1].Fragments
	assert.Equal(t, []float64{60, 64}, second[0].Pitch)
	assert.Equal(t, []float64{62}, second[1].Pitch)
}

func TestProcessCoversRecordingLength(t *testing.T) {
	// The note ends just past the bar line and snaps back onto it.
	rec := &Recording{Parts: []Part{{Name: "Piano", Notes: []quantize.Note{note(0, 4.01, 60)}}}}
	score, err := Process(rec, &Config{})
	require.NoError(t, err)
	assert.Equal(t, frac.Int(8), score.Length)
	require.Len(t, score.Measures, 2)
	assert.Equal(t, frac.Int(4), score.Measures[1].Start)

	fragments := score.Parts[0].Voices[0].Fragments
	require.Len(t, fragments, 8)
	assert.Equal(t, frac.Int(4), fragments[3].End())
	assert.Equal(t, quantize.TieStop, fragments[3].Tie)
	last := fragments[len(fragments)-1]
	assert.True(t, last.IsRest())
	assert.Equal(t, frac.Int(8), last.End())
}

func TestProcessEmptyRecording(t *testing.T) {
	score, err := Process(&Recording{}, &Config{TimeSignature: "3/4"})
	require.NoError(t, err)
	assert.Equal(t, frac.Int(3), score.Length)
	assert.Empty(t, score.Parts)
}

func TestProcessErrors(t *testing.T) {
	_, err := Process(gridRecording(), &Config{TimeSignature: "3/5"})
	assert.ErrorIs(t, err, scheme.ErrTimeSignature)

	rec := gridRecording()
	rec.Parts[0].Notes = append(rec.Parts[0].Notes, note(3, -1, 60))
	_, err = Process(rec, &Config{})
	assert.ErrorIs(t, err, quantize.ErrInvalidNote)
}

func TestScoreToSMFRoundTrip(t *testing.T) {
	score, err := Process(gridRecording(), &Config{})
	require.NoError(t, err)
	mid, err := ScoreToSMF(score, 0)
	require.NoError(t, err)
	assert.Equal(t, smf.MetricTicks(2), mid.TimeFormat)
	require.Len(t, mid.Tracks, 2)

	rec, err := RecordingFromSMF(mid, "")
	require.NoError(t, err)
	require.Len(t, rec.Parts, 1)
	assert.Equal(t, "Piano 1", rec.Parts[0].Name)
	require.Len(t, rec.Parts[0].Notes, 3)
	for i, n := range rec.Parts[0].Notes {
		want := gridRecording().Parts[0].Notes[i]
		assert.InDelta(t, want.StartTime, n.StartTime, 1e-9)
		assert.InDelta(t, want.Length, n.Length, 1e-9)
		assert.Equal(t, want.Pitch, n.Pitch)
	}

	again, err := ProcessSMF(mid, &Config{MeterFromInput: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, score.Measures, again.Measures)
	assert.Equal(t, score.Parts[0].Voices, again.Parts[0].Voices)
}

func TestScoreToSMFTies(t *testing.T) {
	score, err := Process(&Recording{Parts: []Part{{
		Name:  "Piano",
		Notes: []quantize.Note{note(0.5, 1, 60)},
	}}}, &Config{})
	require.NoError(t, err)
	mid, err := ScoreToSMF(score, 480)
	require.NoError(t, err)
	rec, err := RecordingFromSMF(mid, "")
	require.NoError(t, err)
	require.Len(t, rec.Parts[0].Notes, 1)
	assert.InDelta(t, 0.5, rec.Parts[0].Notes[0].StartTime, 1e-9)
	assert.InDelta(t, 1.0, rec.Parts[0].Notes[0].Length, 1e-9)

	_, err = ScoreToSMF(score, 40000)
	assert.ErrorIs(t, err, ErrTimeFormat)
}
