// Package spectrum defines the records produced by the analysis pipeline:
// detected signals, completed scan results and the bounded spectral
// history behind the waterfall view.
package spectrum

import (
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/classify"
	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
)

// Signal is one detected emission at one sampling step. It is immutable
// once constructed and is the unit handed to persistence and export
// collaborators.
type Signal struct {
	Frequency  float64          `json:"frequency"`  // Center frequency in Hz
	Power      float64          `json:"power"`      // Peak power in dB
	Bandwidth  float64          `json:"bandwidth"`  // Occupied bandwidth in Hz
	Timestamp  time.Time        `json:"timestamp"`  // When the emission was detected
	Service    classify.Service `json:"service"`    // Coarse service classification
	Modulation dsp.Modulation   `json:"modulation"` // Estimated modulation family
}

// ScanResult is the outcome of one completed scan session. Signals appear
// in detection order, which for a scan is ascending frequency.
type ScanResult struct {
	StartFrequency float64       `json:"startFrequency"` // Hz
	EndFrequency   float64       `json:"endFrequency"`   // Hz
	StepFrequency  float64       `json:"stepFrequency"`  // Hz
	Signals        []Signal      `json:"signals,omitempty"`
	Elapsed        time.Duration `json:"elapsed"` // Wall-clock scan time
	Device         string        `json:"device"`  // Device descriptor
}

// Frame is one time-stamped power spectrum as held by the History buffer.
type Frame struct {
	Timestamp time.Time         `json:"timestamp"`
	Spectrum  dsp.PowerSpectrum `json:"spectrum"`
}
