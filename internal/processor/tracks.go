package processor

import (
	"fmt"
	"log"
	"regexp"

	"gitlab.com/gomidi/midi/v2/smf"
)

type trackInfo struct {
	Index int
	Name  string
	// LastNote is the tick of the last note event.
	LastNote int64
}

// trackName returns the first track name event of a track, or a name derived from its index.
func trackName(t smf.Track, i int) string {
	var name string
	for _, ev := range t {
		if ev.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return fmt.Sprintf("track %d", i+1)
}

// lastNote returns the tick of the last note event of a track, and whether it starts any note.
func lastNote(t smf.Track) (int64, bool) {
	var ch, key, velocity uint8
	var tick, last int64
	found := false
	for _, ev := range t {
		tick += int64(ev.Delta)
		if ev.Message.GetNoteStart(&ch, &key, &velocity) {
			found = true
			last = tick
		} else if ev.Message.GetNoteEnd(&ch, &key) {
			last = tick
		}
	}
	return last, found
}

// selectTracks returns the tracks with notes whose name matches trackRE. An empty trackRE matches all.
func selectTracks(mid *smf.SMF, trackRE string) ([]trackInfo, error) {
	re, err := regexp.Compile(trackRE)
	if err != nil {
		return nil, fmt.Errorf("invalid track regexp %q: %w", trackRE, err)
	}
	var selected []trackInfo
	for i, t := range mid.Tracks {
		name := trackName(t, i)
		last, ok := lastNote(t)
		if !ok {
			continue
		}
		if !re.MatchString(name) {
			log.Printf("skipping track %d: %s", i, name)
			continue
		}
		log.Printf("using track %d: %s", i, name)
		selected = append(selected, trackInfo{Index: i, Name: name, LastNote: last})
	}
	return selected, nil
}
