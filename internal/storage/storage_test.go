package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/classify"
	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.sqlite"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func TestStore_SessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "scan", "synth", "synth-0", map[string]any{"step": 25000})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected a positive session ID, got %d", id)
	}

	sess, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if sess.Mode != "scan" || sess.DeviceType != "synth" || sess.DeviceID != "synth-0" {
		t.Errorf("unexpected session fields: %+v", sess)
	}
	if sess.UUID == "" {
		t.Error("session has no UUID")
	}
	if !sess.Config.Valid {
		t.Error("session config was not persisted")
	}

	all, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(all) != 1 || all[0].ID != id {
		t.Errorf("expected one session with ID %d, got %+v", id, all)
	}
}

func TestStore_InsertSignal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "scan", "synth", "synth-0", nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	sig := spectrum.Signal{
		Frequency:  390e6,
		Power:      -25.5,
		Bandwidth:  25e3,
		Timestamp:  time.Now(),
		Service:    classify.ServiceTETRA,
		Modulation: dsp.ModulationPSK,
	}
	if err := s.InsertSignal(ctx, id, sig); err != nil {
		t.Fatalf("Failed to insert signal: %v", err)
	}
}

func TestStore_SpectraRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "monitor", "synth", "synth-0", nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	want := [][]float64{
		{-120, -80.5, -40},
		{-110, -75.25, -35},
	}
	base := time.Now()
	for i, powers := range want {
		frame := spectrum.Frame{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Spectrum:  powers,
		}
		if err := s.InsertSpectrum(ctx, id, frame, 390e6, 2e6); err != nil {
			t.Fatalf("Failed to insert spectrum %d: %v", i, err)
		}
	}

	rows, err := s.Spectra(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load spectra: %v", err)
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d spectra, got %d", len(want), len(rows))
	}
	for i, row := range rows {
		if row.CenterFrequency != 390e6 || row.SampleRate != 2e6 {
			t.Errorf("row %d: unexpected tuning %f/%f", i, row.CenterFrequency, row.SampleRate)
		}
		if len(row.Powers) != len(want[i]) {
			t.Fatalf("row %d: expected %d bins, got %d", i, len(want[i]), len(row.Powers))
		}
		for j, p := range row.Powers {
			if p != want[i][j] {
				t.Errorf("row %d bin %d: expected %f, got %f", i, j, want[i][j], p)
			}
		}
	}
}

func TestPowersCodec(t *testing.T) {
	powers := []float64{0, -120, 42.42, math.Inf(-1)}

	decoded, err := decodePowers(encodePowers(powers), len(powers))
	if err != nil {
		t.Fatalf("Failed to decode powers: %v", err)
	}
	for i := range powers {
		if decoded[i] != powers[i] {
			t.Errorf("bin %d: expected %f, got %f", i, powers[i], decoded[i])
		}
	}

	if _, err := decodePowers(make([]byte, 7), 1); err == nil {
		t.Error("expected an error for a truncated blob")
	}
}
