package dsp

// DefaultPeakThreshold is the minimum power in dB a bin must exceed to be
// considered a peak candidate.
const DefaultPeakThreshold = -40.0

// halfPowerMargin is the drop from peak power that bounds the occupied
// bandwidth walk (-3 dB points).
const halfPowerMargin = 3.0

// Peak describes one detected spectral peak.
type Peak struct {
	Bin       int     // index into the power spectrum
	Frequency float64 // center frequency in Hz
	Power     float64 // power at the peak bin in dB
	Bandwidth float64 // estimated occupied bandwidth in Hz, >= 0
}

// FindPeaks locates strict local maxima above threshold in ps and
// estimates each peak's occupied bandwidth. centerHz and sampleRateHz
// anchor the bin-to-frequency mapping. Peaks are returned in ascending
// bin order.
func FindPeaks(ps PowerSpectrum, threshold, centerHz, sampleRateHz float64) []Peak {
	if len(ps) < 3 {
		return nil
	}

	binWidth := sampleRateHz / float64(len(ps))

	var peaks []Peak
	for i := 1; i < len(ps)-1; i++ {
		if ps[i] <= threshold || ps[i] <= ps[i-1] || ps[i] <= ps[i+1] {
			continue
		}
		peaks = append(peaks, Peak{
			Bin:       i,
			Frequency: BinFrequency(centerHz, sampleRateHz, len(ps), i),
			Power:     ps[i],
			Bandwidth: occupiedBandwidth(ps, i, binWidth),
		})
	}
	return peaks
}

// occupiedBandwidth walks outward from the peak bin while power stays
// within the half-power margin of the peak. The walk stops at the array
// bounds without wrapping, so a peak near an edge yields a truncated,
// under-estimated bandwidth.
func occupiedBandwidth(ps PowerSpectrum, peak int, binWidth float64) float64 {
	edge := ps[peak] - halfPowerMargin

	left := peak
	for left > 0 && ps[left-1] > edge {
		left--
	}

	right := peak
	for right < len(ps)-1 && ps[right+1] > edge {
		right++
	}

	return float64(right-left) * binWidth
}
