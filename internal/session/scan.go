package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/classify"
	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr"
	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

// DefaultSettleDelay is the pause after retuning before samples are
// considered valid.
const DefaultSettleDelay = 50 * time.Millisecond

// ScanConfig describes a frequency sweep.
type ScanConfig struct {
	StartHz     float64       // first center frequency, inclusive
	EndHz       float64       // last center frequency, inclusive
	StepHz      float64       // cursor advance per step
	BlockSize   int           // samples per acquisition window
	ThresholdDB float64       // peak detection threshold
	Settle      time.Duration // delay after each retune
}

// WithScanLogger sets the logger for the scan session.
func WithScanLogger(logger *slog.Logger) func(*ScanSession) {
	return func(s *ScanSession) {
		s.logger = logger.With(
			slog.String("device", s.device.Device()),
			slog.String("deviceID", s.device.ID()),
		)
	}
}

// WithScanStore sets the persistence collaborator for detected signals.
func WithScanStore(store Store) func(*ScanSession) {
	return func(s *ScanSession) {
		s.store = store
	}
}

// WithScanExporter sets the reporting collaborator for the finished result.
func WithScanExporter(exporter Exporter) func(*ScanSession) {
	return func(s *ScanSession) {
		s.exporter = exporter
	}
}

// ScanSession sweeps a frequency range, analyzing one sample block per
// step and accumulating detected signals in ascending frequency order.
// Its state moves Idle -> Sweeping -> Complete; any acquisition failure
// aborts the whole sweep.
type ScanSession struct {
	device   sdr.Device
	config   ScanConfig
	logger   *slog.Logger
	store    Store
	exporter Exporter

	transform *dsp.Transform
	state     atomic.Int32
	signals   []spectrum.Signal
}

// NewScanSession creates a scan session over the given device.
func NewScanSession(device sdr.Device, config ScanConfig, options ...func(*ScanSession)) (*ScanSession, error) {
	if config.StepHz <= 0 {
		return nil, fmt.Errorf("invalid scan step: %f", config.StepHz)
	}
	if config.StartHz > config.EndHz {
		return nil, fmt.Errorf("invalid scan range: start=%f end=%f", config.StartHz, config.EndHz)
	}
	if config.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", config.BlockSize)
	}

	s := ScanSession{
		device:    device,
		config:    config,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		transform: dsp.NewTransform(config.BlockSize),
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// State returns the session's current lifecycle state.
func (s *ScanSession) State() State { return State(s.state.Load()) }

// Run performs the sweep and returns the finalized result. Signals are
// produced in strictly increasing frequency order. A retune or read
// failure at any step is fatal and returns without a finalized export;
// the caller decides whether to surface partial data.
func (s *ScanSession) Run(ctx context.Context) (*spectrum.ScanResult, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSweeping)) {
		return nil, fmt.Errorf("scan session already used (state %s)", s.State())
	}

	started := time.Now()
	s.logger.Info("starting scan",
		slog.Float64("startHz", s.config.StartHz),
		slog.Float64("endHz", s.config.EndHz),
		slog.Float64("stepHz", s.config.StepHz))

	for freq := s.config.StartHz; freq <= s.config.EndHz; freq += s.config.StepHz {
		if err := s.step(ctx, freq); err != nil {
			return nil, fmt.Errorf("scanning %0.f Hz: %w", freq, err)
		}
	}

	s.state.Store(int32(StateComplete))

	result := &spectrum.ScanResult{
		StartFrequency: s.config.StartHz,
		EndFrequency:   s.config.EndHz,
		StepFrequency:  s.config.StepHz,
		Signals:        s.signals,
		Elapsed:        time.Since(started),
		Device:         fmt.Sprintf("%s (%s)", s.device.Device(), s.device.ID()),
	}

	s.logger.Info("scan complete",
		slog.Int("signals", len(result.Signals)),
		slog.Duration("elapsed", result.Elapsed))

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, result); err != nil {
			s.logger.Error(fmt.Sprintf("exporting scan result: %s", err))
		}
	}

	return result, nil
}

// step retunes, settles, acquires one block and analyzes it.
func (s *ScanSession) step(ctx context.Context, centerHz float64) error {
	if err := s.device.Retune(ctx, centerHz); err != nil {
		return err
	}

	if s.config.Settle > 0 {
		timer := time.NewTimer(s.config.Settle)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	block, err := s.device.ReadBlock(ctx, s.config.BlockSize)
	if err != nil {
		return err
	}

	ps := s.transform.PowerSpectrum(block)
	peaks := dsp.FindPeaks(ps, s.config.ThresholdDB, centerHz, s.device.SampleRate())
	if len(peaks) == 0 {
		return nil
	}

	modulation := dsp.EstimateModulation(block)
	now := time.Now()

	for _, peak := range peaks {
		sig := spectrum.Signal{
			Frequency:  peak.Frequency,
			Power:      peak.Power,
			Bandwidth:  peak.Bandwidth,
			Timestamp:  now,
			Service:    classify.Classify(peak.Frequency, peak.Bandwidth),
			Modulation: modulation,
		}
		s.signals = append(s.signals, sig)

		s.logger.Debug("signal detected",
			slog.Float64("frequency", sig.Frequency),
			slog.Float64("power", sig.Power),
			slog.Float64("bandwidth", sig.Bandwidth),
			slog.String("service", string(sig.Service)))

		if s.store != nil {
			if err := s.store.StoreSignal(ctx, sig); err != nil {
				s.logger.Error(fmt.Sprintf("storing signal: %s", err))
			}
		}
	}
	return nil
}
