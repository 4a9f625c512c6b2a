package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/constanza1110101/tetra-analyzer/internal/export"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr/rtltcp"
	"github.com/constanza1110101/tetra-analyzer/internal/sdr/synth"
	"github.com/constanza1110101/tetra-analyzer/internal/session"
	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
	"github.com/constanza1110101/tetra-analyzer/internal/storage"
)

const storageDir = "data"

// RunScan wires up the device, storage and exporter, then executes one
// scan session.
func RunScan(ctx context.Context, config *Config, logger *slog.Logger) error {
	device, err := createDevice(config, logger)
	if err != nil {
		return fmt.Errorf("creating device: %w", err)
	}
	defer device.Close()

	store, sessionStore, err := createStorage(ctx, config, "scan", device)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}
	defer store.Close()

	options := []func(*session.ScanSession){
		session.WithScanLogger(logger),
		session.WithScanStore(sessionStore),
	}
	if config.Storage.ExportCSV {
		options = append(options, session.WithScanExporter(&export.CSV{W: os.Stdout}))
	}

	sess, err := session.NewScanSession(device, session.ScanConfig{
		StartHz:     config.Scan.Start,
		EndHz:       config.Scan.End,
		StepHz:      config.Scan.Step,
		BlockSize:   config.Device.BlockSize,
		ThresholdDB: config.Analysis.PeakThreshold,
		Settle:      time.Duration(config.Scan.Settle),
	}, options...)
	if err != nil {
		return fmt.Errorf("creating scan session: %w", err)
	}

	result, err := sess.Run(ctx)
	if err != nil {
		return fmt.Errorf("running scan: %w", err)
	}

	logger.Info(fmt.Sprintf("scanned %s to %s",
		humanize.SI(result.StartFrequency, "Hz"),
		humanize.SI(result.EndFrequency, "Hz")),
		slog.Int("signals", len(result.Signals)),
		slog.Duration("elapsed", result.Elapsed))
	return nil
}

// RunMonitor wires up the device and storage, then executes one monitor
// session. Cancellation of ctx (e.g. SIGINT) is forwarded to the
// session's cancel flag.
func RunMonitor(ctx context.Context, config *Config, logger *slog.Logger) error {
	device, err := createDevice(config, logger)
	if err != nil {
		return fmt.Errorf("creating device: %w", err)
	}
	defer device.Close()

	store, sessionStore, err := createStorage(ctx, config, "monitor", device)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}
	defer store.Close()

	options := []func(*session.MonitorSession){
		session.WithMonitorLogger(logger),
		session.WithMonitorStore(sessionStore),
	}
	if config.Storage.ExportCSV {
		options = append(options, session.WithMonitorExporter(&export.CSV{W: os.Stdout}))
	}

	sess, err := session.NewMonitorSession(device, session.MonitorConfig{
		FrequencyHz:     config.Monitor.Frequency,
		Duration:        time.Duration(config.Monitor.Duration),
		BlockSize:       config.Device.BlockSize,
		FrameDuration:   time.Duration(config.Analysis.FrameDuration),
		FrameTolerance:  config.Analysis.FrameTolerance,
		HistoryCapacity: config.Analysis.HistoryCapacity,
	}, options...)
	if err != nil {
		return fmt.Errorf("creating monitor session: %w", err)
	}

	stop := context.AfterFunc(ctx, sess.Cancel)
	defer stop()

	signals, err := sess.Run(ctx)
	if err != nil {
		return fmt.Errorf("running monitor: %w", err)
	}

	logger.Info(fmt.Sprintf("monitored %s", humanize.SI(config.Monitor.Frequency, "Hz")),
		slog.String("state", sess.State().String()),
		slog.Int("detections", len(signals)),
		slog.Int("historyDepth", sess.History().Len()))
	return nil
}

func createDevice(config *Config, logger *slog.Logger) (sdr.Device, error) {
	switch config.Device.Type {
	case DeviceRTLTCP:
		return rtltcp.New(config.Device.RTLTCP, rtltcp.WithLogger(logger))
	case DeviceSynth:
		return synth.New(config.Device.Synth)
	default:
		return nil, fmt.Errorf("unknown device type %q", config.Device.Type)
	}
}

// createStorage opens a timestamped session database and binds a session
// row to it for the collaborator interface the sessions consume.
func createStorage(ctx context.Context, config *Config, mode string, device sdr.Device) (*storage.Store, session.Store, error) {
	dir := config.Storage.DataDirectory
	if dir == "" {
		dir = storageDir
	}

	stat, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("storage directory %q: %w", dir, err)
	}
	if !stat.IsDir() {
		return nil, nil, fmt.Errorf("invalid storage directory %q", dir)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("tetra_%s_%s.sqlite", mode, time.Now().UTC().Format("20060102_150405")))
	store := storage.New(dbPath)

	sessionID, err := store.CreateSession(ctx, mode, device.Device(), device.ID(), config.Device)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("creating session record: %w", err)
	}

	return store, &boundStore{store: store, sessionID: sessionID, sampleRate: device.SampleRate()}, nil
}

// boundStore adapts the storage layer to the session collaborator
// interface, fixing the session row and sample rate.
type boundStore struct {
	store      *storage.Store
	sessionID  int64
	sampleRate float64
}

func (b *boundStore) StoreSignal(ctx context.Context, sig spectrum.Signal) error {
	return b.store.InsertSignal(ctx, b.sessionID, sig)
}

func (b *boundStore) StoreSpectrum(ctx context.Context, frame spectrum.Frame, centerHz float64) error {
	return b.store.InsertSpectrum(ctx, b.sessionID, frame, centerHz, b.sampleRate)
}
