package notate

import (
	"testing"

	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeline(t *testing.T, sigs ...string) *scheme.Timeline {
	t.Helper()
	var measures []*scheme.MeasureScheme
	for _, s := range sigs {
		ts, err := scheme.ParseTimeSignature(s)
		require.NoError(t, err)
		m, err := scheme.FromTimeSignature(ts, scheme.DefaultMeasureOptions(60))
		require.NoError(t, err)
		measures = append(measures, m)
	}
	tl, err := scheme.NewTimeline(measures)
	require.NoError(t, err)
	return tl
}

func qn(start, length frac.Frac, pitch ...float64) quantize.QuantizedNote {
	return quantize.QuantizedNote{Start: start, Length: length, Pitch: pitch}
}

func TestSplitAtBeatsTwoFragments(t *testing.T) {
	tl := timeline(t, "4/4")
	note := qn(frac.New(1, 2), frac.Int(1), 60)
	got := SplitAtBeats([]quantize.QuantizedNote{note}, tl)
	require.Len(t, got, 2)
	assert.Equal(t, frac.New(1, 2), got[0].Length)
	assert.Equal(t, frac.New(1, 2), got[1].Length)
	assert.Equal(t, note.Length, got[0].Length.Add(got[1].Length))
	assert.Equal(t, quantize.TieStart, got[0].Tie)
	assert.Equal(t, quantize.TieStop, got[1].Tie)
	assert.Equal(t, 0, got[0].Beat)
	assert.Equal(t, 1, got[1].Beat)
}

func TestSplitAtBeatsTieRoles(t *testing.T) {
	tl := timeline(t, "4/4")
	tests := []struct {
		orig quantize.Tie
		want []quantize.Tie
	}{
		{quantize.TieNone, []quantize.Tie{"start", "continue", "stop"}},
		{quantize.TieStart, []quantize.Tie{"start", "continue", "continue"}},
		{quantize.TieStop, []quantize.Tie{"continue", "continue", "stop"}},
		{quantize.TieContinue, []quantize.Tie{"continue", "continue", "continue"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.orig), func(t *testing.T) {
			note := qn(frac.New(1, 2), frac.Int(2), 60)
			note.Tie = tt.orig
			got := SplitAtBeats([]quantize.QuantizedNote{note}, tl)
			var ties []quantize.Tie
			for _, f := range got {
				ties = append(ties, f.Tie)
			}
			assert.Equal(t, tt.want, ties)
		})
	}

	single := qn(frac.Frac{}, frac.New(1, 2), 60)
	single.Tie = quantize.TieStop
	got := SplitAtBeats([]quantize.QuantizedNote{single}, tl)
	require.Len(t, got, 1)
	assert.Equal(t, quantize.TieStop, got[0].Tie)
}

func TestSplitAtBeatsRestsHaveNoTies(t *testing.T) {
	tl := timeline(t, "6/8")
	got := SplitAtBeats([]quantize.QuantizedNote{qn(frac.Int(1), frac.Int(3))}, tl)
	require.Len(t, got, 3)
	for _, f := range got {
		assert.Equal(t, quantize.TieNone, f.Tie)
	}
	assert.Equal(t, []frac.Frac{frac.New(1, 2), frac.New(3, 2), frac.Int(1)},
		[]frac.Frac{got[0].Length, got[1].Length, got[2].Length})
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Beat, got[1].Beat, got[2].Beat})
}

func TestFillRests(t *testing.T) {
	voice := []quantize.QuantizedNote{
		qn(frac.New(3, 2), frac.New(1, 2), 62),
		qn(frac.New(1, 2), frac.New(1, 2), 60),
	}
	got := FillRests(voice, frac.Int(3))
	require.Len(t, got, 5)
	starts := []frac.Frac{frac.Frac{}, frac.New(1, 2), frac.Int(1), frac.New(3, 2), frac.Int(2)}
	for i, n := range got {
		assert.Equal(t, starts[i], n.Start, "note %d", i)
	}
	assert.True(t, got[0].IsRest())
	assert.True(t, got[2].IsRest())
	assert.True(t, got[4].IsRest())
	assert.Equal(t, frac.Int(1), got[4].Length)

	assert.Len(t, FillRests(nil, frac.Int(2)), 1)
	assert.Empty(t, FillRests(nil, frac.Frac{}))
}

func TestTupletFor(t *testing.T) {
	tests := []struct {
		beat    frac.Frac
		divisor int
		want    *Tuplet
	}{
		{frac.Int(1), 0, nil},
		{frac.Int(1), 2, nil},
		{frac.Int(1), 4, nil},
		{frac.Int(1), 8, nil},
		{frac.Int(1), 3, &Tuplet{3, 2, frac.New(1, 2)}},
		{frac.Int(1), 5, &Tuplet{5, 4, frac.New(1, 4)}},
		{frac.Int(1), 6, &Tuplet{6, 4, frac.New(1, 4)}},
		{frac.New(3, 2), 3, nil},
		{frac.New(3, 2), 6, nil},
		{frac.New(3, 2), 2, &Tuplet{2, 3, frac.New(1, 2)}},
		{frac.New(3, 2), 4, &Tuplet{4, 3, frac.New(1, 2)}},
		{frac.Int(2), 3, &Tuplet{3, 2, frac.Int(1)}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TupletFor(tt.beat, tt.divisor), "beat %v divisor %d", tt.beat, tt.divisor)
	}
}

func TestUndottedConstituents(t *testing.T) {
	tests := []struct {
		in   frac.Frac
		want []frac.Frac
	}{
		{frac.Int(1), []frac.Frac{frac.Int(1)}},
		{frac.New(3, 2), []frac.Frac{frac.Int(1), frac.New(1, 2)}},
		{frac.New(7, 4), []frac.Frac{frac.Int(1), frac.New(1, 2), frac.New(1, 4)}},
		{frac.Int(5), []frac.Frac{frac.Int(4), frac.Int(1)}},
		{frac.New(5, 16), []frac.Frac{frac.New(1, 4), frac.New(1, 16)}},
	}
	for _, tt := range tests {
		got, err := UndottedConstituents(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := UndottedConstituents(frac.New(1, 3))
	assert.ErrorIs(t, err, ErrNotDyadic)
	_, err = UndottedConstituents(frac.Frac{})
	assert.ErrorIs(t, err, ErrEmptyDuration)
}

func TestNotateTriplets(t *testing.T) {
	tl := timeline(t, "2/4")
	voice := []quantize.QuantizedNote{
		qn(frac.Frac{}, frac.New(1, 3), 60),
		qn(frac.New(1, 3), frac.New(2, 3), 62),
		qn(frac.Int(1), frac.Int(1), 64),
	}
	got, err := Voice(voice, tl, []int{3, 2}, frac.Int(2))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, &Tuplet{3, 2, frac.New(1, 2)}, got[0].Tuplet)
	assert.True(t, got[0].TupletStart)
	assert.False(t, got[0].TupletEnd)
	assert.Equal(t, frac.New(1, 2), got[0].LengthWithoutTuplet)
	assert.Equal(t, []frac.Frac{frac.New(1, 2)}, got[0].Constituents)

	assert.False(t, got[1].TupletStart)
	assert.True(t, got[1].TupletEnd)
	assert.Equal(t, frac.Int(1), got[1].LengthWithoutTuplet)

	assert.Nil(t, got[2].Tuplet)
	assert.Equal(t, []frac.Frac{frac.Int(1)}, got[2].Constituents)
}

func TestNotateConstituentsSumToWrittenLength(t *testing.T) {
	tl := timeline(t, "3/4", "7/8")
	// Beats are 1, 1, 1, 3/2, 1, 1 and then 3/2 again; the fifth stays empty.
	divisors := []int{3, 4, 6, 3, 0, 5, 2}
	var voice []quantize.QuantizedNote
	for i, div := range divisors {
		if div == 0 {
			continue
		}
		b := tl.Beat(i)
		piece := b.BeatLength.DivInt(int64(div))
		for p := 0; p < div; {
			n := 1 + (p+i)%2
			if p+n > div {
				n = div - p
			}
			note := qn(b.Start.Add(piece.MulInt(int64(p))), piece.MulInt(int64(n)), float64(60+p))
			// Join notes meeting at a beat boundary so that some of them need ties.
			if last := len(voice) - 1; p == 0 && last >= 0 && voice[last].End() == note.Start {
				voice[last].Length = voice[last].Length.Add(note.Length)
			} else {
				voice = append(voice, note)
			}
			p += n
		}
	}
	end := tl.Beat(len(divisors) - 1).End()
	got, err := Voice(voice, tl, divisors, end)
	require.NoError(t, err)

	var total frac.Frac
	for _, f := range got {
		total = total.Add(f.Length)
		var sum frac.Frac
		for i, c := range f.Constituents {
			if i > 0 {
				assert.True(t, c.Less(f.Constituents[i-1]))
			}
			sum = sum.Add(c)
		}
		assert.Equal(t, f.LengthWithoutTuplet, sum)
		if f.Tuplet != nil {
			assert.Equal(t, f.Length, f.LengthWithoutTuplet.MulInt(int64(f.Tuplet.Normal)).DivInt(int64(f.Tuplet.Actual)))
		} else {
			assert.Equal(t, f.Length, f.LengthWithoutTuplet)
		}
		b := tl.Beat(f.Beat)
		assert.False(t, f.Start.Less(b.Start))
		assert.False(t, b.End().Less(f.End()))
	}
	assert.Equal(t, end, total)
}
