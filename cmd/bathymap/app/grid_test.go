package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func testPings() []sonar.TransformedPing {
	return []sonar.TransformedPing{
		{Timestamp: 1000, Beams: []r3.Vec{{X: 100, Y: 200, Z: -10}, {X: 100.5, Y: 200.2, Z: -12}}},
		{Timestamp: 4000, Beams: []r3.Vec{{X: 103.2, Y: 202.7, Z: -20}}},
	}
}

func TestNewDepthGrid(t *testing.T) {
	g, err := NewDepthGrid(testPings(), 1, NewSmoothBounds(0.3))
	require.NoError(t, err)

	assert.Equal(t, r3.Vec{X: 100, Y: 200, Z: -20}, g.Origin)
	assert.Equal(t, 4, g.Width)
	assert.Equal(t, 3, g.Height)
	assert.Equal(t, 2, g.Pings)
	assert.Equal(t, 3, g.Soundings)
	assert.Equal(t, 2, g.Filled())
	assert.Equal(t, int64(1000), g.TimestampStart)
	assert.Equal(t, int64(4000), g.TimestampEnd)

	// south-west soundings land in the bottom row
	sw := g.Depth(0, 2)
	require.NotNil(t, sw)
	assert.InDelta(t, 11.0, *sw, 1e-9)

	ne := g.Depth(3, 0)
	require.NotNil(t, ne)
	assert.InDelta(t, 20.0, *ne, 1e-9)

	assert.Nil(t, g.Depth(1, 1))
	assert.Nil(t, g.Depth(-1, 0))
	assert.Nil(t, g.Depth(4, 0))

	assert.Equal(t, r3.Box{Min: r3.Vec{X: 100, Y: 200}, Max: r3.Vec{X: 104, Y: 203}}, g.Extent())
}

func TestNewDepthGrid_Errors(t *testing.T) {
	tests := []struct {
		name  string
		pings []sonar.TransformedPing
		cell  float64
		want  error
	}{
		{name: "no pings", cell: 1, want: ErrNoSoundings},
		{name: "no beams", pings: []sonar.TransformedPing{{Timestamp: 1}}, cell: 1, want: ErrNoSoundings},
		{
			name: "too large",
			pings: []sonar.TransformedPing{
				{Beams: []r3.Vec{{X: 0}, {X: 100_000}}},
			},
			cell: 1,
			want: ErrGridTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDepthGrid(tt.pings, tt.cell, NewSmoothBounds(0.3))
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewDepthGrid(testPings(), 0, NewSmoothBounds(0.3))
	require.ErrorContains(t, err, "invalid cell size")
}
