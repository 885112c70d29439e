package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MarcTheSpark/playcorder/internal/processor"
)

// overrides holds the flags that take precedence over config file values.
type overrides struct {
	tempo                     float64
	timeSignature             string
	maxDivisions              int
	maxIndigestibility        float64
	simplicityPreference      float64
	onsetTerminationWeighting float64
	trackRE                   string
	meterFromInput            bool
	ticksPerQuarter           int
}

func (o *overrides) registerScheme(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&o.tempo, "tempo", 0, "tempo in quarter notes per minute")
	f.StringVar(&o.timeSignature, "time-signature", "", "time signature of the repeating measure, like 6/8")
	f.IntVar(&o.maxDivisions, "max-divisions", 0, "largest divisor considered per beat")
	f.Float64Var(&o.maxIndigestibility, "max-indigestibility", 0, "divisors at or above this indigestibility are not considered")
	f.Float64Var(&o.simplicityPreference, "simplicity-preference", 0, "how strongly simple divisors are preferred; 0 treats all alike")
}

func (o *overrides) registerQuantize(cmd *cobra.Command) {
	o.registerScheme(cmd)
	f := cmd.Flags()
	f.Float64Var(&o.onsetTerminationWeighting, "onset-termination-weighting", 0, "weight of note ends against note starts, between 0 and 1")
	f.StringVar(&o.trackRE, "track-re", "", "regular expression selecting MIDI tracks by name")
	f.BoolVar(&o.meterFromInput, "meter-from-input", false, "take measures and tempo from the MIDI input")
	f.IntVar(&o.ticksPerQuarter, "ticks-per-quarter", 0, "resolution of MIDI output; 0 picks an exact one")
}

// config returns the flags the user set as a config layer.
func (o *overrides) config(cmd *cobra.Command) processor.Config {
	f := cmd.Flags()
	var c processor.Config
	if f.Changed("tempo") {
		c.Tempo = o.tempo
	}
	if f.Changed("time-signature") {
		c.TimeSignature = o.timeSignature
		// An explicit time signature replaces measures from the config file.
		c.Measures = []processor.MeasureConfig{{TimeSignature: o.timeSignature}}
	}
	if f.Changed("max-divisions") {
		c.MaxDivisions = o.maxDivisions
	}
	if f.Changed("max-indigestibility") {
		c.MaxIndigestibility = o.maxIndigestibility
	}
	if f.Changed("simplicity-preference") {
		c.SimplicityPreference = &o.simplicityPreference
	}
	if f.Changed("onset-termination-weighting") {
		c.OnsetTerminationWeighting = &o.onsetTerminationWeighting
	}
	if f.Changed("track-re") {
		c.TrackRE = o.trackRE
	}
	if f.Changed("meter-from-input") {
		c.MeterFromInput = &o.meterFromInput
	}
	if f.Changed("ticks-per-quarter") {
		c.TicksPerQuarter = o.ticksPerQuarter
	}
	return c
}
