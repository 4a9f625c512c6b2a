package spectrum

import (
	"testing"
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
)

// taggedSpectrum builds a one-bin spectrum whose value identifies the
// frame it belongs to.
func taggedSpectrum(tag int) dsp.PowerSpectrum {
	return dsp.PowerSpectrum{float64(tag)}
}

func TestHistory_AppendWithinCapacity(t *testing.T) {
	h := NewHistory(5)
	base := time.Now()

	for i := 0; i < 3; i++ {
		h.Append(base.Add(time.Duration(i)*time.Second), taggedSpectrum(i))
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", h.Len())
	}
	if h.Capacity() != 5 {
		t.Errorf("expected capacity 5, got %d", h.Capacity())
	}
}

func TestHistory_FIFOEviction(t *testing.T) {
	const capacity = 5
	h := NewHistory(capacity)
	base := time.Now()

	for i := 0; i < 8; i++ {
		h.Append(base.Add(time.Duration(i)*time.Second), taggedSpectrum(i))
	}

	if h.Len() != capacity {
		t.Fatalf("expected %d frames after overflow, got %d", capacity, h.Len())
	}

	frames := h.Snapshot()
	for i, f := range frames {
		want := i + 3 // frames 0..2 evicted
		if f.Spectrum[0] != float64(want) {
			t.Errorf("frame %d: expected tag %d, got %f", i, want, f.Spectrum[0])
		}
	}
	for i := 1; i < len(frames); i++ {
		if !frames[i].Timestamp.After(frames[i-1].Timestamp) {
			t.Errorf("frame %d is not newer than frame %d", i, i-1)
		}
	}
}

func TestHistory_DefaultCapacity(t *testing.T) {
	if h := NewHistory(0); h.Capacity() != DefaultHistoryCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultHistoryCapacity, h.Capacity())
	}
	if h := NewHistory(-3); h.Capacity() != DefaultHistoryCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultHistoryCapacity, h.Capacity())
	}
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	h := NewHistory(3)
	h.Append(time.Now(), taggedSpectrum(1))

	snap := h.Snapshot()
	snap[0] = Frame{}

	if got := h.Snapshot()[0].Spectrum[0]; got != 1 {
		t.Errorf("mutating a snapshot leaked into the history: got tag %f", got)
	}
}
