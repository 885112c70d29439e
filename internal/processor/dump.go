package processor

import (
	"log"
)

// dumpTimeline logs the time signatures and tempos of a score in concise form.
func dumpTimeline(runID string, s *Score) {
	for _, t := range s.Tempos {
		log.Printf("%s: @ %v: tempo is %v quarters per minute, beat %v.", runID, t.Start, t.Tempo, t.BeatLength)
	}
	start := 0
	for i := 1; i <= len(s.Measures); i++ {
		if i < len(s.Measures) && s.Measures[i].TimeSignature == s.Measures[start].TimeSignature {
			continue
		}
		plural := "s"
		if i-start == 1 {
			plural = ""
		}
		log.Printf("%s: %d @ %v: %d bar%s of %v.", runID, start+1, s.Measures[start].Start, i-start, plural, s.Measures[start].TimeSignature)
		start = i
	}
	log.Printf("%s: %d @ %v: end.", runID, len(s.Measures)+1, s.Length)
}
