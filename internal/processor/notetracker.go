package processor

import (
	"cmp"
	"log"
	"maps"
	"slices"
	"strconv"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MarcTheSpark/playcorder/internal/quantize"
)

type key struct {
	track    int
	ch, note uint8
}

type sounding struct {
	start    int64
	velocity uint8
}

// noteTracker pairs note-on and note-off events into notes.
type noteTracker struct {
	tempo  *tempoMap
	active map[key]sounding
	notes  map[int][]quantize.Note
}

func newNoteTracker(tempo *tempoMap) *noteTracker {
	return &noteTracker{
		tempo:  tempo,
		active: map[key]sounding{},
		notes:  map[int][]quantize.Note{},
	}
}

// Playing reports whether any note is sounding.
func (t *noteTracker) Playing() bool {
	return len(t.active) > 0
}

func (t *noteTracker) emit(k key, s sounding, end int64) {
	start := t.tempo.Seconds(s.start)
	t.notes[k.track] = append(t.notes[k.track], quantize.Note{
		StartTime: start,
		Length:    t.tempo.Seconds(end) - start,
		Pitch:     []float64{float64(k.note)},
		Volume:    float64(s.velocity) / 127,
		Variant:   quantize.Variant{"channel": strconv.Itoa(int(k.ch))},
	})
}

// Handle processes one event. A note-on for a key that is already sounding ends the
// sounding note and restarts it, unless both start on the same tick.
func (t *noteTracker) Handle(tick int64, track int, msg smf.Message) {
	var ch, note, velocity uint8
	if msg.GetNoteStart(&ch, &note, &velocity) {
		k := key{track, ch, note}
		if prev, found := t.active[k]; found {
			if prev.start == tick {
				return
			}
			t.emit(k, prev, tick)
		}
		t.active[k] = sounding{start: tick, velocity: velocity}
		return
	}
	if msg.GetNoteEnd(&ch, &note) {
		k := key{track, ch, note}
		prev, found := t.active[k]
		if !found {
			return
		}
		delete(t.active, k)
		if tick > prev.start {
			t.emit(k, prev, tick)
		}
	}
}

// Finish ends all still sounding notes at the given tick and returns the notes per track,
// each sorted by start time.
func (t *noteTracker) Finish(tick int64) map[int][]quantize.Note {
	keys := slices.SortedFunc(maps.Keys(t.active), func(a, b key) int {
		return cmp.Or(cmp.Compare(a.track, b.track), cmp.Compare(a.ch, b.ch), cmp.Compare(a.note, b.note))
	})
	for _, k := range keys {
		s := t.active[k]
		log.Printf("note %d on channel %d of track %d never ends; ending it at tick %d", k.note, k.ch, k.track, tick)
		if tick > s.start {
			t.emit(k, s, tick)
		}
	}
	clear(t.active)
	for _, notes := range t.notes {
		slices.SortStableFunc(notes, quantize.Note.CompareStart)
	}
	return t.notes
}
