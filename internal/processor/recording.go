package processor

import (
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/quantize"
)

// Part is the recording of one instrument.
type Part struct {
	Name  string          `yaml:"name"`
	Notes []quantize.Note `yaml:"notes"`
}

// Recording is a performance with times in seconds.
type Recording struct {
	Parts []Part `yaml:"parts"`
}

// Length returns the end of the last note in seconds.
func (r *Recording) Length() float64 {
	var end float64
	for _, p := range r.Parts {
		for _, n := range p.Notes {
			end = max(end, n.End())
		}
	}
	return end
}

// RecordingFromSMF reads the notes of a MIDI file into one part per selected track,
// converting ticks to seconds through the file's tempo events.
func RecordingFromSMF(mid *smf.SMF, trackRE string) (*Recording, error) {
	tracks, err := selectTracks(mid, trackRE)
	if err != nil {
		return nil, err
	}
	tempo, err := newTempoMap(mid)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int]bool, len(tracks))
	var notesEnd int64
	for _, t := range tracks {
		wanted[t.Index] = true
		notesEnd = max(notesEnd, t.LastNote)
	}
	tracker := newNoteTracker(tempo)
	var lastTick int64
	err = forEachEvent(mid, func(tick int64, track int, msg smf.Message) error {
		// Hanging notes are closed at the end of the file, so only stop when nothing sounds.
		if tick > notesEnd && !tracker.Playing() {
			return StopIteration
		}
		lastTick = tick
		if wanted[track] {
			tracker.Handle(tick, track, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notes := tracker.Finish(lastTick)
	rec := &Recording{}
	for _, t := range tracks {
		rec.Parts = append(rec.Parts, Part{
			Name:  t.Name,
			Notes: notes[t.Index],
		})
	}
	return rec, nil
}
