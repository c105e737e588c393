package app

import (
	"image/color"
	"math"
)

// ColorTheme represents a predefined color scheme for depth visualization.
// Every theme maps 0 to the shallowest and 1 to the deepest depth.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Red shoals to blue deeps
	GrayscaleTheme ColorTheme = "grayscale" // White shoals to black deeps
	ThermalTheme   ColorTheme = "thermal"   // White to yellow to red to black
	MarineTheme    ColorTheme = "marine"    // Pale cyan to deep navy

	DefaultColorMapSize = 256
)

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

// ColorMapper maps depths onto a pre-computed color ramp
type ColorMapper struct {
	colorMap      []color.Color
	theme         func(float64) color.Color
	themeName     ColorTheme
	size          int
	depthPerIndex float64
	boundsMin     float64
}

// NewColorMapper creates a color mapper with the default map size
func NewColorMapper(theme ColorTheme, bounds DepthBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, bounds DepthBounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      size,
	}
	for i := range cm.size {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the depth range covered by the color ramp
func (cm *ColorMapper) UpdateBounds(bounds DepthBounds) {
	cm.boundsMin = bounds.Min
	cm.depthPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)
}

// GetColor returns the color of a depth. Depths outside the bounds are
// clamped to the ends of the ramp.
func (cm *ColorMapper) GetColor(depth *float64) color.Color {
	if depth == nil || cm.depthPerIndex <= 0 {
		return cm.colorMap[0]
	}

	index := int((*depth - cm.boundsMin) / cm.depthPerIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// HSV represents a color in HSV (Hue, Saturation, Value) color space
type HSV struct {
	H float64 // Hue angle in degrees [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value/Brightness [0-1]
}

// RGB converts HSV to RGB color space
func (hsv HSV) RGB() color.Color {
	if hsv.S <= 0.0 {
		v := uint8(hsv.V * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	h := math.Mod(hsv.H, 360)
	if h < 0 {
		h += 360
	}
	h /= 60

	i := int(h)
	f := h - float64(i)

	v := uint8(hsv.V * 255)
	p := uint8((hsv.V * (1 - hsv.S)) * 255)
	q := uint8((hsv.V * (1 - (hsv.S * f))) * 255)
	t := uint8((hsv.V * (1 - (hsv.S * (1 - f)))) * 255)

	switch i {
	case 0:
		return color.RGBA{R: v, G: t, B: p, A: 255}
	case 1:
		return color.RGBA{R: q, G: v, B: p, A: 255}
	case 2:
		return color.RGBA{R: p, G: v, B: t, A: 255}
	case 3:
		return color.RGBA{R: p, G: q, B: v, A: 255}
	case 4:
		return color.RGBA{R: t, G: p, B: v, A: 255}
	default:
		return color.RGBA{R: v, G: p, B: q, A: 255}
	}
}

// ramp interpolates linearly between evenly spaced color stops
func ramp(stops ...color.RGBA) func(float64) color.Color {
	return func(n float64) color.Color {
		n = math.Max(0, math.Min(1, n))
		pos := n * float64(len(stops)-1)
		i := min(int(pos), len(stops)-2)
		f := pos - float64(i)

		a, b := stops[i], stops[i+1]
		mix := func(x, y uint8) uint8 {
			return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
		}
		return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
	}
}

func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(n float64) color.Color {
			return HSV{H: n * 240, S: 0.9, V: 1 - n*0.3}.RGB()
		}

	case GrayscaleTheme:
		return func(n float64) color.Color {
			v := uint8((1 - math.Pow(n, 0.7)) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 255}
		}

	case ThermalTheme:
		return ramp(
			color.RGBA{R: 255, G: 255, B: 255, A: 255},
			color.RGBA{R: 255, G: 255, A: 255},
			color.RGBA{R: 255, A: 255},
			color.RGBA{A: 255},
		)

	default:
		return ramp(
			color.RGBA{R: 224, G: 255, B: 255, A: 255},
			color.RGBA{R: 64, G: 196, B: 220, A: 255},
			color.RGBA{R: 16, G: 80, B: 160, A: 255},
			color.RGBA{R: 8, G: 16, B: 64, A: 255},
		)
	}
}
