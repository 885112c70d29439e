package barlicity

import (
	"slices"
)

// Undesirabilities rescales raw indigestibilities linearly into [1, 1+simplicityPreference].
// The smallest raw value maps to 1 and the largest to 1+simplicityPreference. If all values are equal,
// every candidate gets 1.
func Undesirabilities(raws []float64, simplicityPreference float64) []float64 {
	if len(raws) == 0 {
		return nil
	}
	lo, hi := slices.Min(raws), slices.Max(raws)
	out := make([]float64, len(raws))
	for i, raw := range raws {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = 1 + simplicityPreference*(raw-lo)/(hi-lo)
	}
	return out
}
