package dsp

import (
	"math/cmplx"
	"time"
)

// DefaultFrameTolerance is the accepted fractional deviation between a
// detected repetition interval and the expected frame length.
const DefaultFrameTolerance = 0.10

// correlationPeakRatio is the fraction of the zero-lag energy a lag must
// reach to count as a repetition peak. Independent noise stays well below
// it; a repeated frame structure within the block stays well above.
const correlationPeakRatio = 0.5

// FrameSamples converts a frame duration to a whole number of samples at
// the given sample rate.
func FrameSamples(sampleRateHz float64, frame time.Duration) int {
	return int(sampleRateHz * frame.Seconds())
}

// Autocorrelate computes the raw autocorrelation of block for lags
// 0..len/2: R[i] = sum_j block[j] * conj(block[j+i]). The cost is
// quadratic in the block length.
func Autocorrelate(block []complex128) []complex128 {
	half := len(block) / 2
	r := make([]complex128, half+1)
	for lag := 0; lag <= half; lag++ {
		var sum complex128
		for j := 0; j+lag < len(block); j++ {
			sum += block[j] * cmplx.Conj(block[j+lag])
		}
		r[lag] = sum
	}
	return r
}

// DetectFramePeriod reports whether block contains periodic framing at
// frameSamples spacing, within tolerance as a fraction of frameSamples.
// It finds local-maximum lags of the autocorrelation magnitude and
// accepts iff the spacing between two consecutive peak lags matches the
// expected frame length.
func DetectFramePeriod(block []complex128, frameSamples int, tolerance float64) bool {
	if frameSamples <= 0 || len(block) < 2*frameSamples {
		return false
	}

	r := Autocorrelate(block)
	peaks := correlationPeaks(r)
	if len(peaks) < 2 {
		return false
	}

	limit := tolerance * float64(frameSamples)
	for i := 1; i < len(peaks); i++ {
		spacing := float64(peaks[i] - peaks[i-1])
		if abs(spacing-float64(frameSamples)) < limit {
			return true
		}
	}
	return false
}

// correlationPeaks returns the lags that are strict local maxima of |R|
// and carry at least correlationPeakRatio of the zero-lag energy. Lag 0
// anchors the threshold and always heads the list.
func correlationPeaks(r []complex128) []int {
	if len(r) < 3 {
		return nil
	}

	floor := correlationPeakRatio * cmplx.Abs(r[0])

	lags := []int{0}
	for i := 1; i < len(r)-1; i++ {
		m := cmplx.Abs(r[i])
		if m < floor {
			continue
		}
		if m > cmplx.Abs(r[i-1]) && m > cmplx.Abs(r[i+1]) {
			lags = append(lags, i)
		}
	}
	return lags
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
