package processor

import (
	"cmp"
	"slices"

	"gitlab.com/gomidi/midi/v2/smf"
)

type timedEvent struct {
	tick int64
	msg  smf.Message
}

func eventRank(msg smf.Message) int {
	var ch, key, velocity uint8
	switch {
	case msg.GetNoteEnd(nil, nil):
		return 1
	case msg.GetNoteStart(&ch, &key, &velocity):
		return 2
	}
	return 0
}

// sortNoteOffFirst orders events by tick. Within a tick, meta events come first, then note-offs, then
// note-ons, so a note repeated without a gap is released before it restarts.
func sortNoteOffFirst(events []timedEvent) {
	slices.SortStableFunc(events, func(a, b timedEvent) int {
		return cmp.Or(cmp.Compare(a.tick, b.tick), cmp.Compare(eventRank(a.msg), eventRank(b.msg)))
	})
}

// toTrack sorts the events and encodes them as a track closed at end.
func toTrack(events []timedEvent, end int64) smf.Track {
	sortNoteOffFirst(events)
	var track smf.Track
	var last int64
	for _, ev := range events {
		track = append(track, smf.Event{
			Delta:   uint32(ev.tick - last),
			Message: ev.msg,
		})
		last = ev.tick
	}
	track.Close(uint32(max(end, last) - last))
	return track
}
