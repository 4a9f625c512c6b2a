// Package export writes finalized session results to flat files. The
// sessions themselves never touch the filesystem; they hand completed
// data here.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/constanza1110101/tetra-analyzer/internal/spectrum"
)

// CSV writes scan results and history summaries as CSV.
type CSV struct {
	W io.Writer
}

// Export writes one row per detected signal, in detection order.
func (c *CSV) Export(ctx context.Context, result *spectrum.ScanResult) error {
	w := csv.NewWriter(c.W)

	if err := w.Write([]string{
		"Timestamp",
		"Frequency",
		"Power",
		"Bandwidth",
		"Service",
		"Modulation",
	}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, sig := range result.Signals {
		if err := w.Write([]string{
			sig.Timestamp.UTC().Format(time.RFC3339Nano),
			fmt.Sprintf("%.0f", sig.Frequency),
			fmt.Sprintf("%.2f", sig.Power),
			fmt.Sprintf("%.0f", sig.Bandwidth),
			string(sig.Service),
			string(sig.Modulation),
		}); err != nil {
			return fmt.Errorf("writing CSV line: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// ExportHistory writes one summary row per history frame: its timestamp,
// bin count and the minimum, maximum and mean bin power.
func (c *CSV) ExportHistory(ctx context.Context, frames []spectrum.Frame, centerHz float64) error {
	w := csv.NewWriter(c.W)

	if err := w.Write([]string{
		"Timestamp",
		"CenterFrequency",
		"Bins",
		"MinPower",
		"MaxPower",
		"AvgPower",
	}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, frame := range frames {
		minP, maxP, avgP := summarize(frame.Spectrum)
		if err := w.Write([]string{
			frame.Timestamp.UTC().Format(time.RFC3339Nano),
			fmt.Sprintf("%.0f", centerHz),
			fmt.Sprintf("%d", len(frame.Spectrum)),
			fmt.Sprintf("%.2f", minP),
			fmt.Sprintf("%.2f", maxP),
			fmt.Sprintf("%.2f", avgP),
		}); err != nil {
			return fmt.Errorf("writing CSV line: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func summarize(ps []float64) (minP, maxP, avgP float64) {
	if len(ps) == 0 {
		return 0, 0, 0
	}
	minP, maxP = ps[0], ps[0]
	var sum float64
	for _, v := range ps {
		if v < minP {
			minP = v
		}
		if v > maxP {
			maxP = v
		}
		sum += v
	}
	return minP, maxP, sum / float64(len(ps))
}
