// Package synth implements a deterministic software-defined sample
// source. It stands in for radio hardware in offline runs and demos:
// a configurable carrier appears when the device is tuned near the
// carrier frequency, optionally repeating a burst pattern at a fixed
// frame interval, over a seeded noise floor.
package synth

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/constanza1110101/tetra-analyzer/internal/sdr"
)

// Config describes the synthetic emission.
type Config struct {
	SampleRate float64 `yaml:"sampleRate"` // Hz
	CarrierHz  float64 `yaml:"carrier"`    // absolute carrier frequency in Hz, 0 for noise only
	Amplitude  float64 `yaml:"amplitude"`  // carrier amplitude, default 1.0
	NoiseLevel float64 `yaml:"noise"`      // stddev of additive noise per component
	FrameHz    float64 `yaml:"frameRate"`  // burst repetition rate in Hz, 0 for continuous carrier
	Seed       int64   `yaml:"seed"`       // noise seed, fixed for reproducibility
}

// Device generates IQ blocks locally.
type Device struct {
	config Config
	rng    *rand.Rand
	center float64
	phase  float64
}

// New creates a synthetic device.
func New(config *Config) (*Device, error) {
	c := *config
	if c.Amplitude == 0 {
		c.Amplitude = 1.0
	}
	return &Device{
		config: c,
		rng:    rand.New(rand.NewSource(c.Seed)),
	}, nil
}

// Retune records the tuned center frequency.
func (d *Device) Retune(ctx context.Context, centerHz float64) error {
	if err := ctx.Err(); err != nil {
		return &sdr.AcquisitionError{Op: "retune", Err: err}
	}
	d.center = centerHz
	d.phase = 0
	return nil
}

// ReadBlock synthesizes one block of n samples. The carrier only appears
// when its offset from the tuned center falls inside the device passband.
func (d *Device) ReadBlock(ctx context.Context, n int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, &sdr.AcquisitionError{Op: "read", Err: err}
	}

	block := make([]complex128, n)

	offset := d.config.CarrierHz - d.center
	hasCarrier := d.config.CarrierHz != 0 && math.Abs(offset) < d.config.SampleRate/2

	step := 2 * math.Pi * offset / d.config.SampleRate
	var frameSamples int
	if d.config.FrameHz > 0 {
		frameSamples = int(d.config.SampleRate / d.config.FrameHz)
	}

	for i := range block {
		if hasCarrier {
			on := true
			if frameSamples > 0 {
				// Burst occupies the first quarter of each frame.
				on = i%frameSamples < frameSamples/4
			}
			if on {
				block[i] = complex(d.config.Amplitude, 0) * cmplx.Exp(complex(0, d.phase))
			}
			d.phase += step
		}
		if d.config.NoiseLevel > 0 {
			block[i] += complex(
				d.rng.NormFloat64()*d.config.NoiseLevel,
				d.rng.NormFloat64()*d.config.NoiseLevel,
			)
		}
	}
	return block, nil
}

// SampleRate returns the configured sample rate in Hz.
func (d *Device) SampleRate() float64 { return d.config.SampleRate }

// Device returns the device type.
func (d *Device) Device() string { return "synth" }

// ID identifies the synthetic source by its carrier.
func (d *Device) ID() string { return "synth" }

// Close is a no-op for the synthetic device.
func (d *Device) Close() error { return nil }
