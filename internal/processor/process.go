package processor

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/frac"
	"github.com/MarcTheSpark/playcorder/internal/notate"
	"github.com/MarcTheSpark/playcorder/internal/quantize"
	"github.com/MarcTheSpark/playcorder/internal/scheme"
	"github.com/MarcTheSpark/playcorder/internal/voice"
)

// MeasureMark is a bar line with the time signature of the measure following it.
type MeasureMark struct {
	Start         frac.Frac            `yaml:"start"`
	TimeSignature scheme.TimeSignature `yaml:"time_signature"`
}

// Voice is one monophonic line of notated fragments.
type Voice struct {
	// Divisors holds the chosen divisor per beat; 0 means the beat had no events.
	Divisors  []int                    `yaml:"divisors,flow"`
	Fragments []notate.NotatedFragment `yaml:"fragments"`
}

type ScorePart struct {
	Name   string  `yaml:"name"`
	Voices []Voice `yaml:"voices"`
}

// Score is the quantized and notated form of a recording.
type Score struct {
	RunID    string             `yaml:"run_id"`
	Length   frac.Frac          `yaml:"length"`
	Measures []MeasureMark      `yaml:"measures"`
	Tempos   []scheme.TempoMark `yaml:"tempos"`
	Parts    []ScorePart        `yaml:"parts"`
}

type quantizedVoice struct {
	notes    []quantize.QuantizedNote
	divisors []int
}

// quantizePart separates a part into voices in seconds, quantizes each of them, and separates the
// result again, as quantization can make notes collide. Sub-voices keep their parent's divisors.
func quantizePart(p Part, tl *scheme.Timeline, c *Config) ([]quantizedVoice, error) {
	recorded := voice.SeparateVoices(voice.CollapseChords(p.Notes), c.MaxOverlap)
	var out []quantizedVoice
	for i, v := range recorded {
		res, err := quantize.Quantize(v, tl, c.quantizeOptions())
		if err != nil {
			return nil, fmt.Errorf("voice %d: %w", i+1, err)
		}
		for _, sub := range voice.SeparateVoices(voice.CollapseChords(res.Notes), c.QuantizedMaxOverlap) {
			out = append(out, quantizedVoice{notes: sub, divisors: res.Divisors})
		}
	}
	return out, nil
}

// Process quantizes and notates a recording. Settings missing from cfg come from DefaultConfig.
// The score ends at the first bar line after both the recording and its quantized notes end.
func Process(rec *Recording, cfg *Config) (*Score, error) {
	c := Merge(DefaultConfig(), *cfg)
	runID := uuid.NewString()
	tl, err := BuildTimeline(&c, barlicity.NewCalculator())
	if err != nil {
		return nil, fmt.Errorf("could not build timeline: %w", err)
	}

	parts := make([][]quantizedVoice, len(rec.Parts))
	var end frac.Frac
	for i, p := range rec.Parts {
		parts[i], err = quantizePart(p, tl, &c)
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Name, err)
		}
		log.Printf("%s: part %q: %d notes in %d voices", runID, p.Name, len(p.Notes), len(parts[i]))
		for _, v := range parts[i] {
			for _, n := range v.notes {
				end = frac.Max(end, n.End())
			}
		}
	}

	end = frac.Max(end, tl.QuartersLength(rec.Length()))
	marks := tl.MeasureMarks(end)
	score := &Score{
		RunID:  runID,
		Length: marks[len(marks)-1].End(),
		Tempos: tl.TempoMarks(end),
	}
	for _, m := range marks {
		score.Measures = append(score.Measures, MeasureMark{Start: m.Start, TimeSignature: m.TimeSignature})
	}
	dumpTimeline(runID, score)

	for i, p := range rec.Parts {
		sp := ScorePart{Name: p.Name}
		for j, v := range parts[i] {
			fragments, err := notate.Voice(v.notes, tl, v.divisors, score.Length)
			if err != nil {
				return nil, fmt.Errorf("part %q voice %d: %w", p.Name, j+1, err)
			}
			sp.Voices = append(sp.Voices, Voice{Divisors: v.divisors, Fragments: fragments})
		}
		score.Parts = append(score.Parts, sp)
	}
	return score, nil
}

// ProcessSMF reads the selected tracks of a MIDI file and processes them. With MeterFromInput set,
// the file's own time signatures and tempos replace the configured measures.
func ProcessSMF(mid *smf.SMF, cfg *Config) (*Score, error) {
	c := Merge(DefaultConfig(), *cfg)
	rec, err := RecordingFromSMF(mid, c.TrackRE)
	if err != nil {
		return nil, fmt.Errorf("could not read notes: %w", err)
	}
	if *c.MeterFromInput {
		c.Measures, err = MeterFromSMF(mid)
		if err != nil {
			return nil, fmt.Errorf("could not read meter: %w", err)
		}
	}
	return Process(rec, &c)
}
