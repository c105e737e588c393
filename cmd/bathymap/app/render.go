package app

import (
	"fmt"
	"image"
	"image/draw"
)

const (
	fontSize = 12.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 40
	defaultRightBorder  = 40
)

// BorderConfig defines the sizes of white space around the raster
type BorderConfig struct {
	Top    int // Space for easting scale
	Left   int // Space for northing scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds the options of bathymetry rendering
type RenderConfig struct {
	FontSize      float64
	ColorTheme    ColorTheme
	ColorMapSize  int  // Number of colors in the ramp, 0 for default
	NoAnnotations bool // Render the bare raster without borders

	BorderConfig BorderConfig
}

// BathymetryRenderer draws a depth grid one pixel per cell, north up
type BathymetryRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

func NewBathymetryRenderer(config RenderConfig) (*BathymetryRenderer, error) {
	if _, ok := validThemes[config.ColorTheme]; !ok && config.ColorTheme != "" {
		return nil, fmt.Errorf("unknown color theme '%s'", config.ColorTheme)
	}
	if config.ColorTheme == "" {
		config.ColorTheme = MarineTheme
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}

	switch {
	case config.NoAnnotations:
		config.BorderConfig = BorderConfig{}
	default:
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &BathymetryRenderer{config: config}, nil
}

// Render creates an image of the grid colored within bounds
func (r *BathymetryRenderer) Render(grid *DepthGrid, bounds DepthBounds) (*image.RGBA, error) {
	borders := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0,
		grid.Width+borders.Left+borders.Right,
		grid.Height+borders.Top+borders.Bottom))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(borders.Left, borders.Top, borders.Left+grid.Width, borders.Top+grid.Height)

	if r.colorMap == nil {
		r.colorMap = NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)
	} else {
		r.colorMap.UpdateBounds(bounds)
	}

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			FontSize: r.config.FontSize,
			Borders:  borders,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, grid, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderGrid(img, area, grid)

	return img, nil
}

// renderGrid colors every filled cell; empty cells keep the background
func (r *BathymetryRenderer) renderGrid(img *image.RGBA, area image.Rectangle, grid *DepthGrid) {
	for row := range grid.Height {
		for col := range grid.Width {
			if depth := grid.Depth(col, row); depth != nil {
				img.Set(area.Min.X+col, area.Min.Y+row, r.colorMap.GetColor(depth))
			}
		}
	}
}
