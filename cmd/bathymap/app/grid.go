package app

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// maxGridSide caps the raster at a size image encoders still handle
const maxGridSide = 16384

var (
	ErrNoSoundings  = errors.New("no soundings to grid")
	ErrGridTooLarge = errors.New("grid too large")
)

// DepthGrid bins world-frame soundings into square horizontal cells and
// keeps the mean depth of each cell. X is easting, Y is northing and row 0
// is the northern edge of the grid.
type DepthGrid struct {
	Origin   r3.Vec // South-west corner
	CellSize float64
	Width    int
	Height   int

	TimestampStart int64
	TimestampEnd   int64
	Pings          int
	Soundings      int

	BoundsTracker *SmoothBounds

	sums   []float64
	counts []uint32
}

// NewDepthGrid grids the beams of the transformed pings, which must be in
// timestamp order.
func NewDepthGrid(pings []sonar.TransformedPing, cellSize float64, b *SmoothBounds) (*DepthGrid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, fmt.Errorf("invalid cell size %v", cellSize)
	}

	extent, ok := soundingExtent(pings)
	if !ok {
		return nil, ErrNoSoundings
	}

	size := extent.Size()
	width := int(math.Floor(size.X/cellSize)) + 1
	height := int(math.Floor(size.Y/cellSize)) + 1
	if width > maxGridSide || height > maxGridSide {
		return nil, fmt.Errorf("%w: %dx%d cells of %.2fm", ErrGridTooLarge, width, height, cellSize)
	}

	g := &DepthGrid{
		Origin:         extent.Min,
		CellSize:       cellSize,
		Width:          width,
		Height:         height,
		TimestampStart: pings[0].Timestamp,
		TimestampEnd:   pings[len(pings)-1].Timestamp,
		Pings:          len(pings),
		BoundsTracker:  b,
		sums:           make([]float64, width*height),
		counts:         make([]uint32, width*height),
	}

	for i := range pings {
		for _, v := range pings[i].Beams {
			g.add(v)
		}
	}

	for row := range g.Height {
		for col := range g.Width {
			g.BoundsTracker.Update(g.Depth(col, row))
		}
	}

	return g, nil
}

func (g *DepthGrid) add(v r3.Vec) {
	col := int((v.X - g.Origin.X) / g.CellSize)
	row := g.Height - 1 - int((v.Y-g.Origin.Y)/g.CellSize)

	i := row*g.Width + col
	g.sums[i] += -v.Z
	g.counts[i]++
	g.Soundings++
}

// Depth returns the mean depth of a cell, positive down, or nil when no
// sounding fell into it.
func (g *DepthGrid) Depth(col, row int) *float64 {
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return nil
	}

	i := row*g.Width + col
	if g.counts[i] == 0 {
		return nil
	}

	depth := g.sums[i] / float64(g.counts[i])
	return &depth
}

// Filled returns the number of cells holding at least one sounding
func (g *DepthGrid) Filled() int {
	var n int
	for _, c := range g.counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Extent returns the horizontal area covered by the grid cells
func (g *DepthGrid) Extent() r3.Box {
	return r3.Box{
		Min: r3.Vec{X: g.Origin.X, Y: g.Origin.Y},
		Max: r3.Vec{
			X: g.Origin.X + float64(g.Width)*g.CellSize,
			Y: g.Origin.Y + float64(g.Height)*g.CellSize,
		},
	}
}

func soundingExtent(pings []sonar.TransformedPing) (r3.Box, bool) {
	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}

	var found bool
	for i := range pings {
		for _, v := range pings[i].Beams {
			box.Min = r3.Vec{X: min(box.Min.X, v.X), Y: min(box.Min.Y, v.Y), Z: min(box.Min.Z, v.Z)}
			box.Max = r3.Vec{X: max(box.Max.X, v.X), Y: max(box.Max.Y, v.Y), Z: max(box.Max.Z, v.Z)}
			found = true
		}
	}
	return box, found
}
