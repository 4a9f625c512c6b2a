package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"

	"github.com/constanza1110101/tetra-analyzer/internal/dsp"
	"github.com/constanza1110101/tetra-analyzer/internal/storage"
)

const (
	dpi      = 96.0
	fontSize = 12.0

	topBorder      = 40
	leftBorder     = 80
	bottomBorder   = 20
	rightBorder    = 20
	tickMarkHeight = 5
	pixelsPerLabel = 150

	timeFormat = "15:04:05"
)

// Renderer turns stored monitor spectra into a waterfall image: one
// image row per stored spectrum, oldest at the top.
type Renderer struct {
	config *Config
}

func NewRenderer(config *Config) *Renderer {
	return &Renderer{config: config}
}

// Render draws the waterfall for the given spectra rows.
func (r *Renderer) Render(rows []storage.SpectrumRow) (*image.RGBA, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no spectra to render")
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row.Powers))
	}

	minPower, maxPower := powerBounds(rows)
	if r.config.MinPower != nil {
		minPower = *r.config.MinPower
	}
	if r.config.MaxPower != nil {
		maxPower = *r.config.MaxPower
	}
	mapper := NewColorMapper(r.config.Theme, minPower, maxPower)

	fullWidth := width + leftBorder + rightBorder
	fullHeight := len(rows) + topBorder + bottomBorder
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for y, row := range rows {
		for x, power := range row.Powers {
			img.Set(leftBorder+x, topBorder+y, mapper.GetColor(power))
		}
	}

	if !r.config.NoAnnotations && r.config.FontFile != "" {
		if err := r.annotate(img, rows, width); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	return img, nil
}

// annotate draws the frequency scale along the top edge and timestamps
// along the left edge.
func (r *Renderer) annotate(img *image.RGBA, rows []storage.SpectrumRow, width int) error {
	fontBytes, err := os.ReadFile(r.config.FontFile)
	if err != nil {
		return fmt.Errorf("reading font file: %w", err)
	}
	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetSrc(image.Black)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	first := rows[0]

	// Frequency ticks across the top.
	labels := max(width/pixelsPerLabel, 1)
	for i := 0; i <= labels; i++ {
		x := i * width / labels
		bin := min(x, len(first.Powers)-1)
		freq := dsp.BinFrequency(first.CenterFrequency, first.SampleRate, len(first.Powers), bin)

		for dy := 0; dy < tickMarkHeight; dy++ {
			img.Set(leftBorder+x, topBorder-1-dy, color.Black)
		}

		pt := freetype.Pt(leftBorder+x-20, topBorder-tickMarkHeight-4)
		if _, err = ctx.DrawString(humanize.SI(freq, "Hz"), pt); err != nil {
			return fmt.Errorf("drawing frequency label: %w", err)
		}
	}

	// Timestamps down the left, one label per block of rows.
	rowsPerLabel := max(len(rows)/5, 1)
	for y := 0; y < len(rows); y += rowsPerLabel {
		pt := freetype.Pt(4, topBorder+y+int(ctx.PointToFixed(fontSize)>>6))
		if _, err = ctx.DrawString(rows[y].Timestamp.Local().Format(timeFormat), pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}

	return nil
}

// powerBounds returns the 5th and 95th percentile bin power across all
// rows, which keeps a handful of outlier bins from washing out the ramp.
func powerBounds(rows []storage.SpectrumRow) (minPower, maxPower float64) {
	var all []float64
	for _, row := range rows {
		all = append(all, row.Powers...)
	}
	sort.Float64s(all)

	minPower = all[len(all)*5/100]
	maxPower = all[len(all)*95/100]
	if maxPower <= minPower {
		maxPower = minPower + 1
	}
	return minPower, maxPower
}

// elapsed formats the covered time span for logging.
func elapsed(rows []storage.SpectrumRow) time.Duration {
	if len(rows) < 2 {
		return 0
	}
	return rows[len(rows)-1].Timestamp.Sub(rows[0].Timestamp)
}
