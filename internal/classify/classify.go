// Package classify maps detected emissions to coarse service labels using
// a fixed band table. It is a best-effort heuristic layer: no rule match
// is not an error, it is the Unknown label.
package classify

// Service is a coarse service classification label.
type Service string

const (
	ServiceTETRA    Service = "TETRA"
	ServiceDMRTETRA Service = "DMR/TETRA"
	ServicePMRDMR   Service = "PMR/DMR"
	ServiceUnknown  Service = "Unknown"
)

// Rule matches a frequency band, optionally narrowed by an occupied
// bandwidth window. Frequency and bandwidth edges are inclusive.
type Rule struct {
	Service      Service
	FreqLow      float64 // Hz
	FreqHigh     float64 // Hz
	BandwidthLow float64 // Hz, 0 means no bandwidth constraint
	BandwidthHig float64 // Hz, 0 means no bandwidth constraint
}

// Bands is the classification table, checked in order with the most
// specific rule first; the first match wins. Edges are exact, editable
// configuration rather than hidden logic.
var Bands = []Rule{
	{Service: ServiceTETRA, FreqLow: 380e6, FreqHigh: 400e6, BandwidthLow: 18e3, BandwidthHig: 30e3},
	{Service: ServiceDMRTETRA, FreqLow: 400e6, FreqHigh: 430e6},
	{Service: ServicePMRDMR, FreqLow: 440e6, FreqHigh: 470e6},
}

func (r Rule) matches(freqHz, bandwidthHz float64) bool {
	if freqHz < r.FreqLow || freqHz > r.FreqHigh {
		return false
	}
	if r.BandwidthLow != 0 && bandwidthHz < r.BandwidthLow {
		return false
	}
	if r.BandwidthHig != 0 && bandwidthHz > r.BandwidthHig {
		return false
	}
	return true
}

// Classify returns the service label for a (frequency, bandwidth) pair.
// It is total: every input yields exactly one label.
func Classify(freqHz, bandwidthHz float64) Service {
	for _, rule := range Bands {
		if rule.matches(freqHz, bandwidthHz) {
			return rule.Service
		}
	}
	return ServiceUnknown
}
