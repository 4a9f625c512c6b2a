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

const (
	// DefaultFrameDuration is the TETRA TDMA slot interval the correlator
	// looks for.
	DefaultFrameDuration = 14167 * time.Microsecond

	// DefaultMonitorDuration bounds a monitor session when no duration is
	// configured.
	DefaultMonitorDuration = 60 * time.Second

	// Nominal values reported on a positive periodicity detection. The
	// correlator only proves periodic framing, not instantaneous
	// bandwidth or modulation, so the synthesized signal carries protocol
	// nominal values rather than measured ones.
	nominalTETRABandwidth  = 25e3
	nominalTETRAModulation = dsp.ModulationPSK
)

// MonitorConfig describes a fixed-frequency monitoring run.
type MonitorConfig struct {
	FrequencyHz     float64       // center frequency to watch
	Duration        time.Duration // total monitoring time
	BlockSize       int           // samples per acquisition window
	FrameDuration   time.Duration // expected TDMA frame interval
	FrameTolerance  float64       // accepted fractional deviation
	HistoryCapacity int           // waterfall depth, 0 for the default
}

// WithMonitorLogger sets the logger for the monitor session.
func WithMonitorLogger(logger *slog.Logger) func(*MonitorSession) {
	return func(s *MonitorSession) {
		s.logger = logger.With(
			slog.String("device", s.device.Device()),
			slog.String("deviceID", s.device.ID()),
		)
	}
}

// WithMonitorStore sets the persistence collaborator.
func WithMonitorStore(store Store) func(*MonitorSession) {
	return func(s *MonitorSession) {
		s.store = store
	}
}

// WithMonitorExporter sets the reporting collaborator for the history.
func WithMonitorExporter(exporter Exporter) func(*MonitorSession) {
	return func(s *MonitorSession) {
		s.exporter = exporter
	}
}

// MonitorSession repeatedly samples one frequency, maintaining a bounded
// spectral history and watching for TDMA framing. Its state moves
// Idle -> Monitoring -> Complete, or -> Cancelled when the cancellation
// flag is observed. The flag is the only cross-goroutine shared state: an
// external controller may call Cancel at any time and the loop observes
// it within one sampling iteration.
type MonitorSession struct {
	device   sdr.Device
	config   MonitorConfig
	logger   *slog.Logger
	store    Store
	exporter Exporter

	transform *dsp.Transform
	history   *spectrum.History
	state     atomic.Int32
	cancelled atomic.Bool
	signals   []spectrum.Signal
}

// NewMonitorSession creates a monitor session over the given device.
func NewMonitorSession(device sdr.Device, config MonitorConfig, options ...func(*MonitorSession)) (*MonitorSession, error) {
	if config.FrequencyHz <= 0 {
		return nil, fmt.Errorf("invalid monitor frequency: %f", config.FrequencyHz)
	}
	if config.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", config.BlockSize)
	}
	if config.Duration <= 0 {
		config.Duration = DefaultMonitorDuration
	}
	if config.FrameDuration <= 0 {
		config.FrameDuration = DefaultFrameDuration
	}
	if config.FrameTolerance <= 0 {
		config.FrameTolerance = dsp.DefaultFrameTolerance
	}

	s := MonitorSession{
		device:    device,
		config:    config,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		transform: dsp.NewTransform(config.BlockSize),
		history:   spectrum.NewHistory(config.HistoryCapacity),
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// State returns the session's current lifecycle state.
func (s *MonitorSession) State() State { return State(s.state.Load()) }

// Cancel requests the sampling loop to stop. Safe to call from any
// goroutine, any number of times; the loop observes it within one
// iteration.
func (s *MonitorSession) Cancel() { s.cancelled.Store(true) }

// History returns the session's spectral history buffer. It must not be
// read until Run has returned.
func (s *MonitorSession) History() *spectrum.History { return s.history }

// Run monitors until the configured duration elapses or Cancel is
// observed, returning the accumulated signals in detection order. Both
// terminal paths finalize: the history snapshot is handed to the
// exporter if one is attached.
func (s *MonitorSession) Run(ctx context.Context) ([]spectrum.Signal, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateMonitoring)) {
		return nil, fmt.Errorf("monitor session already used (state %s)", s.State())
	}

	frameSamples := dsp.FrameSamples(s.device.SampleRate(), s.config.FrameDuration)

	s.logger.Info("starting monitor",
		slog.Float64("frequency", s.config.FrequencyHz),
		slog.Duration("duration", s.config.Duration),
		slog.Int("frameSamples", frameSamples))

	if err := s.device.Retune(ctx, s.config.FrequencyHz); err != nil {
		s.state.Store(int32(StateCancelled))
		return nil, fmt.Errorf("tuning monitor frequency: %w", err)
	}

	started := time.Now()
	var runErr error

	for time.Since(started) < s.config.Duration {
		if s.cancelled.Load() || ctx.Err() != nil {
			break
		}

		block, err := s.device.ReadBlock(ctx, s.config.BlockSize)
		if err != nil {
			runErr = err
			break
		}

		now := time.Now()
		ps := s.transform.PowerSpectrum(block)
		s.history.Append(now, ps)

		if s.store != nil {
			frame := spectrum.Frame{Timestamp: now, Spectrum: ps}
			if err := s.store.StoreSpectrum(ctx, frame, s.config.FrequencyHz); err != nil {
				s.logger.Error(fmt.Sprintf("storing spectrum: %s", err))
			}
		}

		if !dsp.DetectFramePeriod(block, frameSamples, s.config.FrameTolerance) {
			continue
		}

		sig := spectrum.Signal{
			Frequency:  s.config.FrequencyHz,
			Power:      maxPower(ps),
			Bandwidth:  nominalTETRABandwidth,
			Timestamp:  now,
			Service:    classify.ServiceTETRA,
			Modulation: nominalTETRAModulation,
		}
		s.signals = append(s.signals, sig)

		s.logger.Info("TDMA framing detected",
			slog.Float64("frequency", sig.Frequency),
			slog.Float64("power", sig.Power))

		if s.store != nil {
			if err := s.store.StoreSignal(ctx, sig); err != nil {
				s.logger.Error(fmt.Sprintf("storing signal: %s", err))
			}
		}
	}

	if s.cancelled.Load() || ctx.Err() != nil || runErr != nil {
		s.state.Store(int32(StateCancelled))
	} else {
		s.state.Store(int32(StateComplete))
	}

	s.logger.Info("monitor finished",
		slog.String("state", s.State().String()),
		slog.Int("signals", len(s.signals)),
		slog.Int("historyDepth", s.history.Len()))

	if s.exporter != nil {
		if err := s.exporter.ExportHistory(ctx, s.history.Snapshot(), s.config.FrequencyHz); err != nil {
			s.logger.Error(fmt.Sprintf("exporting history: %s", err))
		}
	}

	if runErr != nil {
		return s.signals, fmt.Errorf("monitoring %0.f Hz: %w", s.config.FrequencyHz, runErr)
	}
	return s.signals, nil
}

// maxPower returns the strongest bin of a spectrum, or 0 for an empty one.
func maxPower(ps dsp.PowerSpectrum) float64 {
	if len(ps) == 0 {
		return 0
	}
	m := ps[0]
	for _, v := range ps[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
