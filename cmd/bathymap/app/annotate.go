package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	dpi            = 120.0
	tickMarkLength = 5
	pixelsPerLabel = 150.0
)

type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, grid *DepthGrid, bounds DepthBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *DepthGrid, DepthBounds) error
	}{
		{"drawing easting scale", a.drawEastingScale},
		{"drawing northing scale", a.drawNorthingScale},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, grid, bounds); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) fontHeight() (height, descent int) {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round(), metrics.Descent.Round()
}

// drawEastingScale labels distances east of the grid origin along the top
func (a *annotator) drawEastingScale(img *image.RGBA, grid *DepthGrid, _ DepthBounds) error {
	span := float64(grid.Width) * grid.CellSize
	step := niceDistanceStep(span, grid.Width)

	fontHeight, _ := a.fontHeight()
	textY := a.config.Borders.Top - fontHeight/2

	for d := 0.0; d <= span; d += step {
		x := a.config.Borders.Left + int(d/grid.CellSize)

		for y := a.config.Borders.Top - tickMarkLength; y < a.config.Borders.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatDistance(d)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing easting label: %w", err)
		}
	}
	return nil
}

// drawNorthingScale labels distances north of the grid origin along the
// left edge, counting up from the bottom row
func (a *annotator) drawNorthingScale(img *image.RGBA, grid *DepthGrid, _ DepthBounds) error {
	span := float64(grid.Height) * grid.CellSize
	step := niceDistanceStep(span, grid.Height)

	fontHeight, descent := a.fontHeight()
	bottom := a.config.Borders.Top + grid.Height

	for d := 0.0; d <= span; d += step {
		imgY := bottom - int(d/grid.CellSize)

		for x := a.config.Borders.Left - tickMarkLength; x < a.config.Borders.Left; x++ {
			img.Set(x, imgY, color.Black)
		}

		label := formatDistance(d)
		width := font.MeasureString(a.fontFace, label)
		textX := a.config.Borders.Left - tickMarkLength - 3 - width.Round()
		textY := imgY + fontHeight/2 - descent
		if _, err := a.context.DrawString(label, freetype.Pt(textX, textY)); err != nil {
			return fmt.Errorf("drawing northing label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, grid *DepthGrid, bounds DepthBounds) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Depth: %.1f - %.1f m", bounds.Min, bounds.Max))
	sb.WriteString("; ")
	sb.WriteString("Cell: " + formatDistance(grid.CellSize))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Pings: %s", humanize.Comma(int64(grid.Pings))))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Soundings: %s", humanize.Comma(int64(grid.Soundings))))
	sb.WriteString("; ")
	span := time.Duration(grid.TimestampEnd-grid.TimestampStart) * time.Millisecond
	sb.WriteString("Span: " + span.String())

	fontHeight, descent := a.fontHeight()
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - descent

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

// niceDistanceStep picks a 1, 2 or 5 times power of ten step giving about
// one label per pixelsPerLabel pixels
func niceDistanceStep(span float64, pixels int) float64 {
	if span <= 0 || pixels <= 0 {
		return 1
	}

	desiredSteps := math.Max(float64(pixels)/pixelsPerLabel, 1)
	target := span / desiredSteps
	magnitude := math.Pow(10, math.Floor(math.Log10(target)))

	for _, m := range []float64{1, 2, 5} {
		if m*magnitude >= target {
			return m * magnitude
		}
	}
	return 10 * magnitude
}

func formatDistance(meters float64) string {
	if meters == 0 {
		return "0 m"
	}
	return humanize.SIWithDigits(meters, 1, "m")
}
