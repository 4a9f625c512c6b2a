// Package session implements the two orchestrators of the analysis
// pipeline: the frequency scan session and the fixed-frequency monitor
// session. Sessions own their accumulators and history exclusively;
// results are handed to collaborators only after the sampling loop has
// exited.
package session

import (
	"context"

	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

// State describes where a session is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateSweeping
	StateMonitoring
	StateComplete
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSweeping:
		return "sweeping"
	case StateMonitoring:
		return "monitoring"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Store is the persistence collaborator. Calls are best-effort and
// sequential in detection order; a failed store never drops the record
// from the in-memory accumulator.
type Store interface {
	StoreSignal(ctx context.Context, sig spectrum.Signal) error
	StoreSpectrum(ctx context.Context, frame spectrum.Frame, centerHz float64) error
}

// Exporter is the reporting collaborator, invoked once per completed
// session with already-finalized data. The sessions perform no file or
// rendering I/O themselves.
type Exporter interface {
	Export(ctx context.Context, result *spectrum.ScanResult) error
	ExportHistory(ctx context.Context, frames []spectrum.Frame, centerHz float64) error
}
