package processor

import (
	"fmt"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
	"github.com/MarcTheSpark/playcorder/internal/voice"
)

// BeatConfig describes one beat of a hand-built measure.
type BeatConfig struct {
	// Length in quarter notes, as "3/2" or 1.5.
	Length string `yaml:"length"`
	// Tempo overrides the measure tempo.
	Tempo float64 `yaml:"tempo,omitempty"`
	// Divisors bypasses the indigestibility filter.
	Divisors []int `yaml:"divisors,omitempty,flow"`
	// Divisions gives divisors with explicit undesirabilities.
	Divisions []scheme.Division `yaml:"divisions,omitempty"`
}

// MeasureConfig describes one measure of the quantization timeline.
type MeasureConfig struct {
	TimeSignature string `yaml:"time_signature"`
	// Tempo in quarter notes per minute; defaults to the global tempo.
	Tempo float64 `yaml:"tempo,omitempty"`
	// BeatTempos sets one tempo per automatically grouped beat.
	BeatTempos []float64 `yaml:"beat_tempos,omitempty,flow"`
	// Beats replaces the automatic beat grouping.
	Beats []BeatConfig `yaml:"beats,omitempty"`
}

// Config holds all quantization settings. The last measure repeats until the recording ends.
type Config struct {
	Tempo         float64         `yaml:"tempo,omitempty"`
	TimeSignature string          `yaml:"time_signature,omitempty"`
	Measures      []MeasureConfig `yaml:"measures,omitempty"`
	// MeterFromInput takes measures from the time signature and tempo events of a MIDI input.
	MeterFromInput *bool `yaml:"meter_from_input,omitempty"`

	MaxDivisions              int      `yaml:"max_divisions,omitempty"`
	MaxIndigestibility        float64  `yaml:"max_indigestibility,omitempty"`
	SimplicityPreference      *float64 `yaml:"simplicity_preference,omitempty"`
	OnsetTerminationWeighting *float64 `yaml:"onset_termination_weighting,omitempty"`

	// MaxOverlap in seconds between notes of one recorded voice.
	MaxOverlap float64 `yaml:"max_overlap,omitempty"`
	// QuantizedMaxOverlap in quarter notes between notes of one quantized voice.
	QuantizedMaxOverlap float64 `yaml:"quantized_max_overlap,omitempty"`

	// TrackRE selects MIDI tracks by name; empty selects all tracks with notes.
	TrackRE string `yaml:"track_re,omitempty"`
	// TicksPerQuarter for MIDI output; 0 picks the smallest exact resolution.
	TicksPerQuarter int `yaml:"ticks_per_quarter,omitempty"`

	// InputSHA256 pins the expected checksum of the decrypted input.
	InputSHA256 string `yaml:"input_sha256,omitempty"`
}

func ptr[T any](v T) *T {
	return &v
}

// DefaultConfig returns the settings used for anything a config file leaves out.
func DefaultConfig() Config {
	return Config{
		Tempo:                     60,
		TimeSignature:             "4/4",
		MeterFromInput:            ptr(false),
		MaxDivisions:              8,
		MaxIndigestibility:        4,
		SimplicityPreference:      ptr(0.2),
		OnsetTerminationWeighting: ptr(quantize.DefaultOptions().OnsetTerminationWeighting),
		MaxOverlap:                voice.DefaultMaxOverlap,
		QuantizedMaxOverlap:       voice.DefaultQuantizedMaxOverlap,
	}
}

func (c *Config) beatOptions(calc *barlicity.Calculator) scheme.BeatOptions {
	pref := 0.0
	if c.SimplicityPreference != nil {
		pref = *c.SimplicityPreference
	}
	return scheme.BeatOptions{
		MaxDivisions:         c.MaxDivisions,
		MaxIndigestibility:   c.MaxIndigestibility,
		SimplicityPreference: pref,
		Calculator:           calc,
	}
}

func (c *Config) quantizeOptions() quantize.Options {
	opts := quantize.DefaultOptions()
	if c.OnsetTerminationWeighting != nil {
		opts.OnsetTerminationWeighting = *c.OnsetTerminationWeighting
	}
	return opts
}

func buildBeat(b BeatConfig, tempo float64, opts scheme.BeatOptions) (*scheme.BeatScheme, error) {
	length, err := frac.Parse(b.Length)
	if err != nil {
		return nil, err
	}
	if b.Tempo != 0 {
		tempo = b.Tempo
	}
	switch {
	case len(b.Divisions) > 0:
		return scheme.NewBeatSchemeWithWeights(tempo, length, b.Divisions)
	case len(b.Divisors) > 0:
		return scheme.NewBeatSchemeWithDivisors(tempo, length, b.Divisors, opts)
	default:
		return scheme.NewBeatScheme(tempo, length, opts)
	}
}

func buildMeasure(m MeasureConfig, c *Config, calc *barlicity.Calculator) (*scheme.MeasureScheme, error) {
	ts, err := scheme.ParseTimeSignature(m.TimeSignature)
	if err != nil {
		return nil, err
	}
	tempo := m.Tempo
	if tempo == 0 {
		tempo = c.Tempo
	}
	opts := c.beatOptions(calc)
	if len(m.Beats) == 0 {
		return scheme.FromTimeSignature(ts, scheme.MeasureOptions{
			Tempo:      tempo,
			BeatTempos: m.BeatTempos,
			Beat:       opts,
		})
	}
	beats := make([]*scheme.BeatScheme, len(m.Beats))
	for i, b := range m.Beats {
		beats[i], err = buildBeat(b, tempo, opts)
		if err != nil {
			return nil, fmt.Errorf("beat %d: %w", i, err)
		}
	}
	return scheme.NewMeasureScheme(ts, beats)
}

// BuildTimeline turns the measure settings into a timeline. Without explicit measures, a single
// measure of TimeSignature at Tempo repeats throughout.
func BuildTimeline(c *Config, calc *barlicity.Calculator) (*scheme.Timeline, error) {
	measures := c.Measures
	if len(measures) == 0 {
		measures = []MeasureConfig{{TimeSignature: c.TimeSignature}}
	}
	built := make([]*scheme.MeasureScheme, len(measures))
	for i, m := range measures {
		var err error
		built[i], err = buildMeasure(m, c, calc)
		if err != nil {
			return nil, fmt.Errorf("measure %d (%s): %w", i+1, m.TimeSignature, err)
		}
	}
	return scheme.NewTimeline(built)
}
