// Package sdr defines the acquisition collaborator consumed by scan and
// monitor sessions: a tunable source of fixed-size IQ sample blocks.
// Implementations live in subpackages; sessions only see the Device
// interface, which keeps deterministic fakes trivial in tests.
package sdr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrShortRead is returned when a device delivers fewer samples than
	// requested.
	ErrShortRead = errors.New("short read from device")

	// ErrRetuneRejected is returned when a device refuses a tuning request.
	ErrRetuneRejected = errors.New("retune rejected")
)

// AcquisitionError wraps a device failure with the operation that caused
// it. Acquisition errors are fatal to the session that encounters them;
// retry policy belongs to the device implementation, not the session.
type AcquisitionError struct {
	Op  string // "retune" or "read"
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition %s: %s", e.Op, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Device is a tunable IQ sample source. All methods must only be called
// from a single session's sampling goroutine.
type Device interface {
	// Retune points the front end at a new center frequency in Hz.
	Retune(ctx context.Context, centerHz float64) error

	// ReadBlock acquires one block of n IQ samples at the device's
	// configured sample rate. It may block waiting on the hardware.
	ReadBlock(ctx context.Context, n int) ([]complex128, error)

	// SampleRate returns the device's sample rate in Hz.
	SampleRate() float64

	// Device returns the device type (e.g. "rtl-tcp", "synth").
	Device() string

	// ID returns a unique device identifier.
	ID() string

	// Close releases the device.
	Close() error
}
