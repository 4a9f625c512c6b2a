package session

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"sync"
	"testing"

	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

// fakeDevice is an in-memory sdr.Device whose blocks come from a
// per-center-frequency generator.
type fakeDevice struct {
	sampleRate float64
	blocks     func(centerHz float64, n int) ([]complex128, error)
	retuneErr  func(centerHz float64) error
	onRead     func()

	centerHz float64
	tuned    []float64
	reads    int
}

func (d *fakeDevice) Retune(_ context.Context, centerHz float64) error {
	if d.retuneErr != nil {
		if err := d.retuneErr(centerHz); err != nil {
			return err
		}
	}
	d.centerHz = centerHz
	d.tuned = append(d.tuned, centerHz)
	return nil
}

func (d *fakeDevice) ReadBlock(_ context.Context, n int) ([]complex128, error) {
	d.reads++
	block, err := d.blocks(d.centerHz, n)
	if d.onRead != nil {
		d.onRead()
	}
	return block, err
}

func (d *fakeDevice) SampleRate() float64 { return d.sampleRate }
func (d *fakeDevice) Device() string      { return "fake" }
func (d *fakeDevice) ID() string          { return "test-0" }
func (d *fakeDevice) Close() error        { return nil }

// zeroBlocks yields silent blocks for every center frequency.
func zeroBlocks(_ float64, n int) ([]complex128, error) {
	return make([]complex128, n), nil
}

// toneBlocks yields a complex exponential at offsetHz above center, but
// only when tuned to atHz; silence everywhere else.
func toneBlocks(atHz, offsetHz, sampleRate float64) func(float64, int) ([]complex128, error) {
	return func(centerHz float64, n int) ([]complex128, error) {
		block := make([]complex128, n)
		if centerHz != atHz {
			return block, nil
		}
		step := 2 * math.Pi * offsetHz / sampleRate
		for i := range block {
			block[i] = cmplx.Exp(complex(0, step*float64(i)))
		}
		return block, nil
	}
}

// framedBlocks yields blocks built from one seeded random frame repeated
// end to end, for TDMA periodicity tests.
func framedBlocks(frameSamples int, seed int64) func(float64, int) ([]complex128, error) {
	rng := rand.New(rand.NewSource(seed))
	frame := make([]complex128, frameSamples)
	for i := range frame {
		frame[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return func(_ float64, n int) ([]complex128, error) {
		block := make([]complex128, n)
		for i := range block {
			block[i] = frame[i%frameSamples]
		}
		return block, nil
	}
}

// fakeStore records every persistence call.
type fakeStore struct {
	mu      sync.Mutex
	signals []spectrum.Signal
	spectra []spectrum.Frame
	err     error
}

func (f *fakeStore) StoreSignal(_ context.Context, sig spectrum.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, sig)
	return f.err
}

func (f *fakeStore) StoreSpectrum(_ context.Context, frame spectrum.Frame, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spectra = append(f.spectra, frame)
	return f.err
}

// fakeExporter records finalization calls.
type fakeExporter struct {
	result  *spectrum.ScanResult
	frames  []spectrum.Frame
	exports int
}

func (f *fakeExporter) Export(_ context.Context, result *spectrum.ScanResult) error {
	f.result = result
	f.exports++
	return nil
}

func (f *fakeExporter) ExportHistory(_ context.Context, frames []spectrum.Frame, _ float64) error {
	f.frames = frames
	f.exports++
	return nil
}

var errDeviceGone = errors.New("device gone")

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateSweeping, "sweeping"},
		{StateMonitoring, "monitoring"},
		{StateComplete, "complete"},
		{StateCancelled, "cancelled"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, expected %q", tt.state, got, tt.want)
		}
	}
}
