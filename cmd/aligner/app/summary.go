package app

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// Summary accumulates statistics of an alignment run. Bracket and override
// counts arrive through the align.Observer methods, which may be called
// concurrently; the rest is accumulated from transformed pings.
type Summary struct {
	mu sync.Mutex

	Pings     int
	Beams     int
	Files     int
	Errors    int
	Overrides int
	Brackets  map[align.BracketKind]int

	FirstTimestamp int64
	LastTimestamp  int64

	Bounds r3.Box // World-frame extent of all beams
}

var _ align.Observer = (*Summary)(nil)

func NewSummary() *Summary {
	return &Summary{
		Brackets: make(map[align.BracketKind]int),
		Bounds: r3.Box{
			Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
			Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
		},
	}
}

// Add records a transformed ping
func (s *Summary) Add(tp *sonar.TransformedPing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Pings == 0 {
		s.FirstTimestamp = tp.Timestamp
	}
	s.LastTimestamp = tp.Timestamp
	s.Pings++

	if tp.FirstInFile {
		s.Files++
	}

	for _, b := range tp.Beams {
		s.Bounds.Min = r3.Vec{X: min(s.Bounds.Min.X, b.X), Y: min(s.Bounds.Min.Y, b.Y), Z: min(s.Bounds.Min.Z, b.Z)}
		s.Bounds.Max = r3.Vec{X: max(s.Bounds.Max.X, b.X), Y: max(s.Bounds.Max.Y, b.Y), Z: max(s.Bounds.Max.Z, b.Z)}
	}
}

func (s *Summary) ObserveCursor(int) {}

func (s *Summary) ObservePing(kind align.BracketKind, overridden bool, beams int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Brackets[kind]++
	s.Beams += beams
	if overridden {
		s.Overrides++
	}
}

func (s *Summary) ObservePingError(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
}

func (s *Summary) ObserveRun(time.Duration, error) {}

// Span returns the time covered by the aligned pings
func (s *Summary) Span() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.LastTimestamp-s.FirstTimestamp) * time.Millisecond
}

func (s *Summary) LogValue() slog.Value {
	span := s.Span()

	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("pings", humanize.Comma(int64(s.Pings))),
		slog.String("beams", humanize.Comma(int64(s.Beams))),
		slog.Int("files", s.Files),
		slog.Int("errors", s.Errors),
		slog.Int("overrides", s.Overrides),
		slog.Group("brackets",
			slog.Int(align.BracketLeading.String(), s.Brackets[align.BracketLeading]),
			slog.Int(align.BracketInterior.String(), s.Brackets[align.BracketInterior]),
			slog.Int(align.BracketTrailing.String(), s.Brackets[align.BracketTrailing]),
		),
		slog.Duration("span", span),
	}

	if s.Beams > 0 && !math.IsInf(s.Bounds.Min.X, 0) {
		size := s.Bounds.Size()
		attrs = append(attrs,
			slog.String("extent", fmt.Sprintf("%.1fm x %.1fm", size.X, size.Y)),
			slog.String("depth", fmt.Sprintf("%.2fm..%.2fm", s.Bounds.Min.Z, s.Bounds.Max.Z)),
		)
	}

	return slog.GroupValue(attrs...)
}
