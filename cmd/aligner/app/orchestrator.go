package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/roman-kulish/mbes-survey/internal/align"
	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// PingSource is a ping source that can also stream
type PingSource interface {
	sonar.Source
	Stream(ctx context.Context) iter.Seq2[sonar.Ping, error]
}

// WithMode sets how pings are fed to the aligner
func WithMode(mode Mode) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.mode = mode
	}
}

// WithAlignOptions appends options passed to the aligner
func WithAlignOptions(opts ...align.Option) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.alignOpts = append(o.alignOpts, opts...)
	}
}

// WithObserver registers an additional observer of alignment events
func WithObserver(observer align.Observer) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, observer)
	}
}

// Orchestrator loads the navigation fixes and pings of a survey session,
// aligns the pings, and accumulates a run summary.
type Orchestrator struct {
	fixes navigation.Source
	pings PingSource

	logger    *slog.Logger
	mode      Mode
	alignOpts []align.Option
	observers align.Observers
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(fixes navigation.Source, pings PingSource, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		fixes:  fixes,
		pings:  pings,
		logger: logger,
		mode:   ModeStream,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run aligns the session and returns its summary. In stream mode pings that
// cannot be aligned are logged and skipped; the summary counts them. In batch
// mode the first failing ping aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	fixes, err := o.fixes.Fixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading fixes: %w", err)
	}

	summary := NewSummary()

	opts := append([]align.Option{
		align.WithLogger(o.logger),
		align.WithObserver(append(align.Observers{summary}, o.observers...)),
	}, o.alignOpts...)

	aligner, err := align.New(fixes, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating aligner: %w", err)
	}

	o.logger.Info("aligning pings",
		slog.String("mode", string(o.mode)),
		slog.Int("fixes", len(fixes)))

	switch o.mode {
	case ModeBatch:
		err = o.runBatch(ctx, aligner, summary)
	default:
		err = o.runStream(ctx, aligner, summary)
	}
	if err != nil {
		return summary, err
	}

	return summary, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, aligner *align.Aligner, summary *Summary) error {
	pings, err := o.pings.Pings(ctx)
	if err != nil {
		return fmt.Errorf("reading pings: %w", err)
	}

	out, err := aligner.Align(ctx, pings)
	if err != nil {
		return fmt.Errorf("aligning pings: %w", err)
	}

	for i := range out {
		summary.Add(&out[i])
	}
	return nil
}

func (o *Orchestrator) runStream(ctx context.Context, aligner *align.Aligner, summary *Summary) error {
	for tp, err := range aligner.Stream(ctx, o.pings.Stream(ctx)) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			o.logger.Warn("skipping ping", slog.String("error", err.Error()))
			continue
		}
		summary.Add(&tp)
	}
	return ctx.Err()
}
