package processor

import (
	"errors"

	"gitlab.com/gomidi/midi/v2/smf"
)

// StopIteration can be returned from a callback to end iteration without failure.
var StopIteration = errors.New("forEachEvent: StopIteration")

// forEachEvent calls yield for every event of the file in absolute tick order across all tracks.
// At equal ticks, note-off events come first so that a repeated note is released before it restarts.
func forEachEvent(mid *smf.SMF, yield func(tick int64, track int, msg smf.Message) error) error {
	// next is the index of the next event of each track, last the tick of the previous one.
	next := make([]int, len(mid.Tracks))
	last := make([]int64, len(mid.Tracks))
	for {
		best := -1
		var bestTick int64
		var bestOff bool
		for i, t := range mid.Tracks {
			if next[i] >= len(t) {
				continue
			}
			ev := t[next[i]]
			tick := last[i] + int64(ev.Delta)
			off := ev.Message.GetNoteEnd(nil, nil)
			if best < 0 || tick < bestTick || (tick == bestTick && off && !bestOff) {
				best, bestTick, bestOff = i, tick, off
			}
		}
		if best < 0 {
			return nil
		}
		msg := mid.Tracks[best][next[best]].Message
		next[best]++
		last[best] = bestTick
		if msg.Is(smf.MetaEndOfTrackMsg) {
			continue
		}
		err := yield(bestTick, best, msg)
		if errors.Is(err, StopIteration) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
