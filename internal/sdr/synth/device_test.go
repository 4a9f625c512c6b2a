package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr"
)

func TestDevice_CarrierInPassband(t *testing.T) {
	dev, err := New(&Config{
		SampleRate: 1.024e6,
		CarrierHz:  390.1e6,
	})
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	ctx := context.Background()
	if err := dev.Retune(ctx, 390e6); err != nil {
		t.Fatalf("Retune failed: %v", err)
	}

	block, err := dev.ReadBlock(ctx, 1024)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if len(block) != 1024 {
		t.Fatalf("expected 1024 samples, got %d", len(block))
	}

	ps := dsp.NewTransform(1024).PowerSpectrum(block)
	peaks := dsp.FindPeaks(ps, dsp.DefaultPeakThreshold, 390e6, dev.SampleRate())
	if len(peaks) != 1 {
		t.Fatalf("expected one carrier peak, got %d", len(peaks))
	}

	binWidth := dev.SampleRate() / 1024
	if d := peaks[0].Frequency - 390.1e6; d > binWidth || d < -binWidth {
		t.Errorf("carrier detected at %f, off by %f Hz", peaks[0].Frequency, d)
	}
}

func TestDevice_CarrierOutsidePassband(t *testing.T) {
	dev, err := New(&Config{
		SampleRate: 1.024e6,
		CarrierHz:  420e6,
	})
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	ctx := context.Background()
	if err := dev.Retune(ctx, 390e6); err != nil {
		t.Fatalf("Retune failed: %v", err)
	}

	block, err := dev.ReadBlock(ctx, 1024)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	for i, s := range block {
		if s != 0 {
			t.Fatalf("sample %d is %v, expected silence with the carrier out of band", i, s)
		}
	}
}

func TestDevice_DeterministicNoise(t *testing.T) {
	config := Config{SampleRate: 1.024e6, NoiseLevel: 0.1, Seed: 42}

	a, err := New(&config)
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}
	b, err := New(&config)
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	ctx := context.Background()
	blockA, err := a.ReadBlock(ctx, 256)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	blockB, err := b.ReadBlock(ctx, 256)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}

	for i := range blockA {
		if blockA[i] != blockB[i] {
			t.Fatalf("sample %d differs across identically seeded devices", i)
		}
	}
}

func TestDevice_FramedBurst(t *testing.T) {
	dev, err := New(&Config{
		SampleRate: 64e3,
		CarrierHz:  390e6,
		FrameHz:    1000, // 64 samples per frame
	})
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	ctx := context.Background()
	if err := dev.Retune(ctx, 390e6); err != nil {
		t.Fatalf("Retune failed: %v", err)
	}

	block, err := dev.ReadBlock(ctx, 512)
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}

	// Burst fills the first quarter of each 64-sample frame.
	for i, s := range block {
		on := i%64 < 16
		if on && s == 0 {
			t.Fatalf("sample %d silent inside a burst", i)
		}
		if !on && s != 0 {
			t.Fatalf("sample %d active outside a burst", i)
		}
	}

	if !dsp.DetectFramePeriod(block, 64, dsp.DefaultFrameTolerance) {
		t.Error("expected the burst pattern to register as periodic framing")
	}
}

func TestDevice_ContextCancellation(t *testing.T) {
	dev, err := New(&Config{SampleRate: 1.024e6})
	if err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var acqErr *sdr.AcquisitionError
	if err := dev.Retune(ctx, 390e6); !errors.As(err, &acqErr) {
		t.Errorf("expected an acquisition error from Retune, got %v", err)
	}
	if _, err := dev.ReadBlock(ctx, 256); !errors.As(err, &acqErr) {
		t.Errorf("expected an acquisition error from ReadBlock, got %v", err)
	}
}
