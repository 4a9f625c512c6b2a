package spectrum

import (
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
)

// DefaultHistoryCapacity bounds how many spectra a monitor session keeps
// for the waterfall view.
const DefaultHistoryCapacity = 100

// History is a bounded, insertion-ordered sequence of power spectra. When
// the capacity is exceeded the oldest frame is evicted (FIFO). A History
// is owned by exactly one monitor session and must not be appended to
// from more than one goroutine.
type History struct {
	frames   []Frame
	capacity int
}

// NewHistory creates a history holding at most capacity spectra. A
// non-positive capacity falls back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		frames:   make([]Frame, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a spectrum at the tail, evicting the head frame if the
// buffer is full.
func (h *History) Append(ts time.Time, ps dsp.PowerSpectrum) {
	if len(h.frames) == h.capacity {
		copy(h.frames, h.frames[1:])
		h.frames = h.frames[:h.capacity-1]
	}
	h.frames = append(h.frames, Frame{Timestamp: ts, Spectrum: ps})
}

// Len returns the number of frames currently held.
func (h *History) Len() int { return len(h.frames) }

// Capacity returns the maximum number of frames the history holds.
func (h *History) Capacity() int { return h.capacity }

// Snapshot returns the frames in insertion order. The returned slice is
// a copy; callers may hand it to rendering collaborators freely.
func (h *History) Snapshot() []Frame {
	out := make([]Frame, len(h.frames))
	copy(out, h.frames)
	return out
}
