package app

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func TestSummary_Add(t *testing.T) {
	s := NewSummary()

	s.Add(&sonar.TransformedPing{
		Timestamp:   1000,
		FirstInFile: true,
		Beams:       []r3.Vec{{X: 1, Y: 2, Z: -10}, {X: -3, Y: 5, Z: -12}},
	})
	s.Add(&sonar.TransformedPing{
		Timestamp: 3500,
		Beams:     []r3.Vec{{X: 4, Y: -1, Z: -8}},
	})

	assert.Equal(t, 2, s.Pings)
	assert.Equal(t, 1, s.Files)
	assert.Equal(t, int64(1000), s.FirstTimestamp)
	assert.Equal(t, int64(3500), s.LastTimestamp)
	assert.Equal(t, 2500*time.Millisecond, s.Span())
	assert.Equal(t, r3.Vec{X: -3, Y: -1, Z: -12}, s.Bounds.Min)
	assert.Equal(t, r3.Vec{X: 4, Y: 5, Z: -8}, s.Bounds.Max)
}

func TestSummary_ObserveConcurrently(t *testing.T) {
	s := NewSummary()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				s.ObservePing(align.BracketInterior, (i+j)%10 == 0, 3)
			}
			s.ObservePingError(align.ErrPingOrder)
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, s.Brackets[align.BracketInterior])
	assert.Equal(t, 2400, s.Beams)
	assert.Equal(t, 80, s.Overrides)
	assert.Equal(t, 8, s.Errors)
}

func TestSummary_LogValue(t *testing.T) {
	s := NewSummary()
	for range 1500 {
		s.ObservePing(align.BracketInterior, false, 1)
	}
	s.Add(&sonar.TransformedPing{Timestamp: 0, Beams: []r3.Vec{{Z: -20}}})
	s.Add(&sonar.TransformedPing{Timestamp: 60000, Beams: []r3.Vec{{X: 120.5, Y: 30, Z: -25.5}}})

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("done", slog.Any("summary", s))

	out := buf.String()
	assert.Contains(t, out, "summary.beams=1,500")
	assert.Contains(t, out, "summary.brackets.interior=1500")
	assert.Contains(t, out, "summary.span=1m0s")
	assert.Contains(t, out, `summary.extent="120.5m x 30.0m"`)
	assert.Contains(t, out, "summary.depth=-25.50m..-20.00m")
}

func TestSummary_LogValueEmpty(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("done", slog.Any("summary", NewSummary()))

	assert.Contains(t, buf.String(), "summary.pings=0")
	assert.NotContains(t, buf.String(), "extent")
}
