package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeKeepsUnsetFields(t *testing.T) {
	def := DefaultConfig()
	got := Merge(def, Config{TimeSignature: "6/8", MaxDivisions: 6})
	assert.Equal(t, "6/8", got.TimeSignature)
	assert.Equal(t, 6, got.MaxDivisions)
	assert.Equal(t, def.Tempo, got.Tempo)
	assert.Equal(t, def.MaxIndigestibility, got.MaxIndigestibility)
	assert.Equal(t, 0.2, *got.SimplicityPreference)
}

func TestMergeExplicitZeroPointer(t *testing.T) {
	got := Merge(DefaultConfig(), Config{SimplicityPreference: ptr(0.0), MeterFromInput: ptr(true)})
	assert.Equal(t, 0.0, *got.SimplicityPreference)
	assert.True(t, *got.MeterFromInput)
	assert.Equal(t, 0.3, *got.OnsetTerminationWeighting)
}

func TestMergePrecedence(t *testing.T) {
	file := Config{Tempo: 90, TimeSignature: "3/4"}
	flags := Config{Tempo: 120}
	got := Merge(Merge(DefaultConfig(), file), flags)
	assert.Equal(t, 120.0, got.Tempo)
	assert.Equal(t, "3/4", got.TimeSignature)
	assert.Equal(t, 8, got.MaxDivisions)
}

func TestMergeSlicesReplace(t *testing.T) {
	a := Config{Measures: []MeasureConfig{{TimeSignature: "4/4"}}}
	b := Config{Measures: []MeasureConfig{{TimeSignature: "3/4"}, {TimeSignature: "2/4"}}}
	assert.Equal(t, b.Measures, Merge(a, b).Measures)
	assert.Equal(t, a.Measures, Merge(a, Config{}).Measures)
}
