package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// Error reasons used as the "reason" label of align_ping_errors_total.
const (
	ReasonOrder      = "order"
	ReasonDegenerate = "degenerate"
	ReasonMalformed  = "malformed"
	ReasonCanceled   = "canceled"
	ReasonOther      = "other"
)

// AlignCollector bundles Prometheus metrics for alignment runs. It implements
// align.Observer and is safe for concurrent use.
type AlignCollector struct {
	gatherer prometheus.Gatherer

	Pings          *prometheus.CounterVec
	Overrides      prometheus.Counter
	Beams          prometheus.Counter
	PingErrors     *prometheus.CounterVec
	CursorPosition prometheus.Gauge
	RunDurations   *prometheus.HistogramVec
}

var _ align.Observer = (*AlignCollector)(nil)

// NewAlignCollector registers alignment metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAlignCollector(reg prometheus.Registerer) (*AlignCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	pings, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "align_pings_total",
		Help: "Total number of aligned pings, labeled by bracket kind.",
	}, []string{"bracket"}), "align_pings_total")
	if err != nil {
		return nil, err
	}

	overrides, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "align_orientation_overrides_total",
		Help: "Total number of pings whose own attitude replaced the navigation attitude.",
	}), "align_orientation_overrides_total")
	if err != nil {
		return nil, err
	}

	beams, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "align_beams_transformed_total",
		Help: "Total number of beams transformed into the world frame.",
	}), "align_beams_transformed_total")
	if err != nil {
		return nil, err
	}

	pingErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "align_ping_errors_total",
		Help: "Total number of pings that could not be aligned, labeled by reason.",
	}, []string{"reason"}), "align_ping_errors_total")
	if err != nil {
		return nil, err
	}

	cursor, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "align_cursor_position",
		Help: "Index of the first navigation fix newer than the last aligned ping.",
	}), "align_cursor_position")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "align_run_duration_seconds",
		Help:    "Alignment run latency in seconds, labeled by outcome.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"outcome"}), "align_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &AlignCollector{
		gatherer:       gatherer,
		Pings:          pings,
		Overrides:      overrides,
		Beams:          beams,
		PingErrors:     pingErrors,
		CursorPosition: cursor,
		RunDurations:   durations,
	}, nil
}

func (c *AlignCollector) ObserveCursor(position int) {
	c.CursorPosition.Set(float64(position))
}

func (c *AlignCollector) ObservePing(kind align.BracketKind, overridden bool, beams int) {
	c.Pings.WithLabelValues(kind.String()).Inc()
	c.Beams.Add(float64(beams))
	if overridden {
		c.Overrides.Inc()
	}
}

func (c *AlignCollector) ObservePingError(err error) {
	c.PingErrors.WithLabelValues(Reason(err)).Inc()
}

func (c *AlignCollector) ObserveRun(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.RunDurations.WithLabelValues(outcome).Observe(d.Seconds())
}

// WriteTextfile writes all metrics gathered from the collector registry in
// the node exporter textfile format.
func (c *AlignCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics to '%s': %w", path, err)
	}
	return nil
}

// Reason classifies an alignment error into a metric label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, align.ErrPingOrder):
		return ReasonOrder
	case errors.Is(err, align.ErrInterpolationDegenerate):
		return ReasonDegenerate
	case errors.Is(err, sonar.ErrMalformedRecord):
		return ReasonMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonOther
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
