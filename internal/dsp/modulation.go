package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/stat"
)

// Modulation is a coarse modulation family label. The estimator behind it
// is a dispersion heuristic, not a demodulator: labels are deterministic
// and reproducible for the same block but carry no accuracy guarantee.
type Modulation string

const (
	ModulationASK     Modulation = "ASK"
	ModulationPSK     Modulation = "PSK"
	ModulationQAM     Modulation = "QAM"
	ModulationFMPM    Modulation = "FM/PM"
	ModulationUnknown Modulation = "Unknown"
)

// Decision thresholds over the two dispersion statistics.
const (
	ampVarLow     = 0.2
	phaseVarLow   = 0.3
	dispersionHig = 0.5
)

// EstimateModulation classifies the modulation family of a sample block
// from the variance of its instantaneous amplitude and of its wrapped
// instantaneous phase (radians). Both statistics are computed over the
// entire block. Unmatched combinations resolve to Unknown.
func EstimateModulation(block []complex128) Modulation {
	if len(block) < 2 {
		return ModulationUnknown
	}

	amps := make([]float64, len(block))
	phases := make([]float64, len(block))
	for i, s := range block {
		amps[i] = cmplx.Abs(s)
		phases[i] = cmplx.Phase(s)
	}

	ampVar := stat.Variance(amps, nil)
	phaseVar := stat.Variance(phases, nil)

	switch {
	case ampVar >= dispersionHig && phaseVar >= dispersionHig:
		return ModulationQAM
	case ampVar >= dispersionHig:
		return ModulationASK
	case phaseVar >= dispersionHig:
		return ModulationPSK
	case ampVar < ampVarLow && phaseVar >= phaseVarLow:
		return ModulationFMPM
	default:
		return ModulationUnknown
	}
}
