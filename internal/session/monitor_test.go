package session

import (
	"context"
	"testing"
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/classify"
	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

const (
	monitorSampleRate = 64e3
	monitorBlockSize  = 512
	monitorFrame      = time.Millisecond // 64 samples per frame
)

func monitorConfig() MonitorConfig {
	return MonitorConfig{
		FrequencyHz:   390e6,
		Duration:      10 * time.Second,
		BlockSize:     monitorBlockSize,
		FrameDuration: monitorFrame,
	}
}

func TestMonitorSession_CancelAfterFirstBlock(t *testing.T) {
	dev := &fakeDevice{
		sampleRate: monitorSampleRate,
		blocks:     framedBlocks(64, 1),
	}
	store := &fakeStore{}
	exporter := &fakeExporter{}

	sess, err := NewMonitorSession(dev, monitorConfig(),
		WithMonitorStore(store), WithMonitorExporter(exporter))
	if err != nil {
		t.Fatalf("Failed to create monitor session: %v", err)
	}
	dev.onRead = sess.Cancel

	signals, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sess.State() != StateCancelled {
		t.Errorf("expected state cancelled, got %s", sess.State())
	}
	if dev.reads != 1 {
		t.Errorf("expected exactly one block read before cancellation, got %d", dev.reads)
	}
	if sess.History().Len() != 1 {
		t.Errorf("expected one history frame, got %d", sess.History().Len())
	}

	if len(signals) != 1 {
		t.Fatalf("expected one detection from the framed block, got %d", len(signals))
	}
	sig := signals[0]
	if sig.Frequency != 390e6 {
		t.Errorf("expected signal at 390 MHz, got %f", sig.Frequency)
	}
	if sig.Service != classify.ServiceTETRA {
		t.Errorf("expected TETRA label, got %s", sig.Service)
	}
	if sig.Bandwidth != nominalTETRABandwidth {
		t.Errorf("expected nominal bandwidth %f, got %f", float64(nominalTETRABandwidth), sig.Bandwidth)
	}
	if sig.Modulation != nominalTETRAModulation {
		t.Errorf("expected nominal modulation %s, got %s", nominalTETRAModulation, sig.Modulation)
	}

	if len(store.spectra) != 1 || len(store.signals) != 1 {
		t.Errorf("expected one stored spectrum and one stored signal, got %d and %d",
			len(store.spectra), len(store.signals))
	}
	if len(exporter.frames) != 1 {
		t.Errorf("cancelled session must still export its history, got %d frames", len(exporter.frames))
	}
}

func TestMonitorSession_CompletesOnDuration(t *testing.T) {
	dev := &fakeDevice{sampleRate: monitorSampleRate, blocks: zeroBlocks}

	config := monitorConfig()
	config.Duration = 30 * time.Millisecond
	config.HistoryCapacity = 10

	sess, err := NewMonitorSession(dev, config)
	if err != nil {
		t.Fatalf("Failed to create monitor session: %v", err)
	}

	signals, err := sess.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sess.State() != StateComplete {
		t.Errorf("expected state complete, got %s", sess.State())
	}
	if len(signals) != 0 {
		t.Errorf("expected no detections on silence, got %d", len(signals))
	}
	if n := sess.History().Len(); n < 1 || n > 10 {
		t.Errorf("history depth %d outside the configured bound", n)
	}
}

func TestMonitorSession_ReadErrorEndsCancelled(t *testing.T) {
	dev := &fakeDevice{
		sampleRate: monitorSampleRate,
		blocks: func(_ float64, _ int) ([]complex128, error) {
			return nil, errDeviceGone
		},
	}
	exporter := &fakeExporter{}

	sess, err := NewMonitorSession(dev, monitorConfig(), WithMonitorExporter(exporter))
	if err != nil {
		t.Fatalf("Failed to create monitor session: %v", err)
	}

	if _, err := sess.Run(context.Background()); err == nil {
		t.Fatal("expected Run to surface the read error")
	}
	if sess.State() != StateCancelled {
		t.Errorf("expected state cancelled after a read error, got %s", sess.State())
	}
	if exporter.exports != 1 {
		t.Errorf("failed session must still finalize the history, got %d exports", exporter.exports)
	}
}

func TestMonitorSession_ContextCancellation(t *testing.T) {
	dev := &fakeDevice{sampleRate: monitorSampleRate, blocks: zeroBlocks}

	sess, err := NewMonitorSession(dev, monitorConfig())
	if err != nil {
		t.Fatalf("Failed to create monitor session: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	dev.onRead = cancel

	if _, err := sess.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.State() != StateCancelled {
		t.Errorf("expected state cancelled, got %s", sess.State())
	}
}

func TestNewMonitorSession_Defaults(t *testing.T) {
	dev := &fakeDevice{sampleRate: monitorSampleRate, blocks: zeroBlocks}

	sess, err := NewMonitorSession(dev, MonitorConfig{FrequencyHz: 390e6, BlockSize: 512})
	if err != nil {
		t.Fatalf("Failed to create monitor session: %v", err)
	}

	if sess.config.Duration != DefaultMonitorDuration {
		t.Errorf("expected default duration %s, got %s", DefaultMonitorDuration, sess.config.Duration)
	}
	if sess.config.FrameDuration != DefaultFrameDuration {
		t.Errorf("expected default frame duration %s, got %s", DefaultFrameDuration, sess.config.FrameDuration)
	}
	if sess.config.FrameTolerance != dsp.DefaultFrameTolerance {
		t.Errorf("expected default tolerance %f, got %f", dsp.DefaultFrameTolerance, sess.config.FrameTolerance)
	}
	if sess.History().Capacity() != spectrum.DefaultHistoryCapacity {
		t.Errorf("expected default history capacity %d, got %d", spectrum.DefaultHistoryCapacity, sess.History().Capacity())
	}
}

func TestNewMonitorSession_Validation(t *testing.T) {
	dev := &fakeDevice{sampleRate: monitorSampleRate, blocks: zeroBlocks}

	if _, err := NewMonitorSession(dev, MonitorConfig{FrequencyHz: 0, BlockSize: 512}); err == nil {
		t.Error("expected a validation error for a zero frequency")
	}
	if _, err := NewMonitorSession(dev, MonitorConfig{FrequencyHz: 390e6, BlockSize: 0}); err == nil {
		t.Error("expected a validation error for a zero block size")
	}
}
