package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ClassicTheme   ColorTheme = "classic"
	GrayscaleTheme ColorTheme = "grayscale"
	JungleTheme    ColorTheme = "jungle"
	ThermalTheme   ColorTheme = "thermal"
	MarineTheme    ColorTheme = "marine"

	colorMapSize = 256
)

type ColorTheme string

// HSV represents a color in HSV color space.
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts HSV color space to RGB.
func (hsv HSV) RGB() color.Color {
	h := hsv.H
	s := hsv.S
	v := hsv.V

	if s <= 0.0 {
		rgb := uint8(v * 255)
		return color.RGBA{R: rgb, G: rgb, B: rgb, A: 0xff}
	}

	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

// getColorTheme returns the normalized-power-to-color function for a
// theme.
func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme: // Blue -> Red
		return func(power float64) color.Color {
			return colorful.Hsv(240-(power*240), 0.9+(power*0.1), math.Pow(power, 0.7))
		}

	case GrayscaleTheme: // Black -> White
		return func(power float64) color.Color {
			v := math.Pow(power, 0.7) * 255
			return color.RGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 0xff}
		}

	case JungleTheme: // Dark green -> Yellow
		return func(power float64) color.Color {
			return HSV{
				H: 120 - (power * 60),
				S: 1.0,
				V: 0.3 + (math.Pow(power, 0.6) * 0.7),
			}.RGB()
		}

	case MarineTheme: // Deep blue -> Cyan -> White
		return func(power float64) color.Color {
			return HSV{
				H: 240 - (power * 60),
				S: 1.0 - (power * 0.8),
				V: 0.3 + (math.Pow(power, 0.6) * 0.7),
			}.RGB()
		}

	case ThermalTheme: // Black -> Red -> Yellow -> White
		return func(power float64) color.Color {
			if power < 0.33 {
				p := power * 3
				return color.RGBA{R: uint8(p * 255), A: 0xff}
			} else if power < 0.66 {
				p := (power - 0.33) * 3
				return color.RGBA{R: 255, G: uint8(p * 255), A: 0xff}
			}
			p := (power - 0.66) * 3
			return color.RGBA{R: 255, G: 255, B: uint8(p * 255), A: 0xff}
		}

	default:
		return getColorTheme(ClassicTheme)
	}
}

// ColorMapper maps power values in dB onto a pre-computed color ramp.
type ColorMapper struct {
	colorMap      []color.Color
	minPower      float64
	powerPerIndex float64
}

// NewColorMapper builds a mapper for a theme over the [minPower,
// maxPower] dB range.
func NewColorMapper(theme ColorTheme, minPower, maxPower float64) *ColorMapper {
	if maxPower <= minPower {
		maxPower = minPower + 1
	}

	themeFn := getColorTheme(theme)
	cm := &ColorMapper{
		colorMap:      make([]color.Color, colorMapSize),
		minPower:      minPower,
		powerPerIndex: (maxPower - minPower) / float64(colorMapSize-1),
	}
	for i := range cm.colorMap {
		cm.colorMap[i] = themeFn(float64(i) / float64(colorMapSize-1))
	}
	return cm
}

// GetColor returns the ramp color for a power value, clamping to the
// configured range.
func (cm *ColorMapper) GetColor(power float64) color.Color {
	index := int((power - cm.minPower) / cm.powerPerIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= len(cm.colorMap) {
		return cm.colorMap[len(cm.colorMap)-1]
	}
	return cm.colorMap[index]
}
