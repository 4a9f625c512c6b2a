// Package dsp implements the numeric core of the analyzer: the power
// spectrum transform, peak and bandwidth extraction, modulation shape
// estimation and TDMA frame correlation. Everything here is stateless
// apart from reusable FFT plans and is safe to exercise from tests
// without any device attached.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// powerFloor is the smallest squared magnitude fed into the logarithm.
// A block with zero energy maps to a finite floor instead of -Inf.
const powerFloor = 1e-12

// PowerSpectrum is a sequence of per-bin power values in dB, ordered by
// ascending frequency: bin 0 is centerHz - sampleRate/2, the DC bin sits
// at len/2.
type PowerSpectrum []float64

// Transform converts fixed-size IQ sample blocks into power spectra.
// It caches the FFT plan for its block size and may be reused across
// blocks, but is not safe for concurrent use.
type Transform struct {
	fft *fourier.CmplxFFT
	n   int
}

// NewTransform creates a transform for blocks of n samples.
func NewTransform(n int) *Transform {
	return &Transform{fft: fourier.NewCmplxFFT(n), n: n}
}

// Size returns the block length the transform was planned for.
func (t *Transform) Size() int { return t.n }

// PowerSpectrum computes the log-magnitude spectrum of one sample block.
// The block length must match the transform size. The result has the
// same length as the input and contains no non-finite values.
func (t *Transform) PowerSpectrum(block []complex128) PowerSpectrum {
	coeffs := t.fft.Coefficients(nil, block)

	// Reorder so the spectrum runs from -fs/2 to +fs/2.
	ps := make(PowerSpectrum, len(coeffs))
	half := len(coeffs) / 2
	for i, c := range coeffs {
		idx := i + half
		if i >= half {
			idx = i - half
		}
		mag := cmplx.Abs(c)
		p := mag * mag
		if p < powerFloor {
			p = powerFloor
		}
		ps[idx] = 10 * math.Log10(p)
	}
	return ps
}

// BinFrequency returns the center frequency in Hz of bin i for a spectrum
// of n bins taken at centerHz with the given sample rate.
func BinFrequency(centerHz, sampleRateHz float64, n, i int) float64 {
	binWidth := sampleRateHz / float64(n)
	return centerHz - sampleRateHz/2 + float64(i)*binWidth
}
