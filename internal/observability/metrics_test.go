package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func TestAlignCollector_RecordsRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAlignCollector(reg)
	require.NoError(t, err)

	fixes := []navigation.Fix{
		{Timestamp: 100, Position: r3.Vec{X: 1}},
		{Timestamp: 200, Position: r3.Vec{X: 2}},
		{Timestamp: 300, Position: r3.Vec{X: 3}},
	}
	own := navigation.AttitudeFromDegrees(0, 0, 90)
	pings := []sonar.Ping{
		{Timestamp: 50, Beams: make([]r3.Vec, 4)},
		{Timestamp: 150, Beams: make([]r3.Vec, 4), Attitude: &own},
		{Timestamp: 250, Beams: make([]r3.Vec, 4)},
		{Timestamp: 350, Beams: make([]r3.Vec, 4)},
	}

	_, err = align.Align(context.Background(), pings, fixes, align.WithObserver(collector))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Pings.WithLabelValues("leading")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Pings.WithLabelValues("interior")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Pings.WithLabelValues("trailing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Overrides))
	assert.Equal(t, 16.0, testutil.ToFloat64(collector.Beams))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.CursorPosition))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.RunDurations, "align_run_duration_seconds"))
}

func TestAlignCollector_PingErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAlignCollector(reg)
	require.NoError(t, err)

	collector.ObservePingError(&align.PingError{Index: 3, Err: align.ErrPingOrder})
	collector.ObservePingError(fmt.Errorf("reading ping: %w", sonar.ErrMalformedRecord))
	collector.ObservePingError(fmt.Errorf("reading ping: %w", sonar.ErrMalformedRecord))
	collector.ObservePingError(errors.New("disk on fire"))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.PingErrors.WithLabelValues(ReasonOrder)))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.PingErrors.WithLabelValues(ReasonMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.PingErrors.WithLabelValues(ReasonOther)))

	collector.ObserveRun(time.Second, errors.New("failed"))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.RunDurations))
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: align.ErrPingOrder, want: ReasonOrder},
		{err: &align.PingError{Err: align.ErrPingOrder}, want: ReasonOrder},
		{err: align.ErrInterpolationDegenerate, want: ReasonDegenerate},
		{err: sonar.ErrMalformedRecord, want: ReasonMalformed},
		{err: context.Canceled, want: ReasonCanceled},
		{err: context.DeadlineExceeded, want: ReasonCanceled},
		{err: align.ErrInsufficientReferenceData, want: ReasonOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err), "reason for %v", tt.err)
	}
}

func TestNewAlignCollector_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewAlignCollector(reg)
	require.NoError(t, err)
	second, err := NewAlignCollector(reg)
	require.NoError(t, err)

	second.Overrides.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Overrides))
}

func TestAlignCollector_WriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAlignCollector(reg)
	require.NoError(t, err)

	collector.ObservePing(align.BracketInterior, false, 128)

	path := filepath.Join(t.TempDir(), "align.prom")
	require.NoError(t, collector.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	body := string(data)
	assert.True(t, strings.Contains(body, `align_pings_total{bracket="interior"} 1`), body)
	assert.True(t, strings.Contains(body, "align_beams_transformed_total 128"), body)
}
