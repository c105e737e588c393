package align

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

const (
	tracerName = "github.com/roman-kulish/mbes-survey/internal/align"

	defaultChunkSize = 1024
)

// Observer receives alignment events. Implementations must be safe for
// concurrent use: pings of one chunk are transformed in parallel.
type Observer interface {
	// ObserveCursor is called after every cursor advance with the new
	// cursor position. It is always called from the sequencing goroutine.
	ObserveCursor(position int)

	// ObservePing is called once a ping has been transformed.
	ObservePing(kind BracketKind, overridden bool, beams int)

	// ObservePingError is called for every ping that could not be aligned
	// and for every error received from a ping source.
	ObservePingError(err error)

	// ObserveRun is called when an alignment run completes or fails.
	ObserveRun(d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveCursor(int)                  {}
func (nopObserver) ObservePing(BracketKind, bool, int) {}
func (nopObserver) ObservePingError(error)             {}
func (nopObserver) ObserveRun(time.Duration, error)    {}

// Observers fans alignment events out to several observers.
type Observers []Observer

func (o Observers) ObserveCursor(position int) {
	for _, ob := range o {
		ob.ObserveCursor(position)
	}
}

func (o Observers) ObservePing(kind BracketKind, overridden bool, beams int) {
	for _, ob := range o {
		ob.ObservePing(kind, overridden, beams)
	}
}

func (o Observers) ObservePingError(err error) {
	for _, ob := range o {
		ob.ObservePingError(err)
	}
}

func (o Observers) ObserveRun(d time.Duration, err error) {
	for _, ob := range o {
		ob.ObserveRun(d, err)
	}
}

// Option configures an Aligner
type Option func(*Aligner)

// WithLogger sets the logger for the aligner
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aligner) {
		a.logger = logger.With(slog.String("component", "align"))
	}
}

// WithObserver registers an observer for alignment events
func WithObserver(o Observer) Option {
	return func(a *Aligner) {
		a.observer = o
	}
}

// WithWorkers sets the number of goroutines transforming pings in batch mode.
// Values below one are ignored.
func WithWorkers(n int) Option {
	return func(a *Aligner) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithChunkSize sets how many brackets the sequencer resolves ahead before
// the chunk is handed to the workers. Values below one are ignored.
func WithChunkSize(n int) Option {
	return func(a *Aligner) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithAngleInterpolation selects how attitude angles are interpolated
func WithAngleInterpolation(mode AngleInterpolation) Option {
	return func(a *Aligner) {
		a.angles = mode
	}
}

// WithTracer overrides the tracer taken from the global OpenTelemetry provider
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Aligner) {
		a.tracer = tracer
	}
}

// Aligner assigns world-frame poses to pings from a fixed set of navigation
// fixes and transforms their beams into the world frame.
//
// The fixes are sorted once when the Aligner is created. Every call to Align
// or Stream owns a fresh cursor, so an Aligner is safe for concurrent use.
type Aligner struct {
	fixes []navigation.Fix

	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer

	workers   int
	chunkSize int
	angles    AngleInterpolation
}

// New creates an Aligner. It returns ErrInsufficientReferenceData when fixes
// is empty.
func New(fixes []navigation.Fix, options ...Option) (*Aligner, error) {
	if len(fixes) == 0 {
		return nil, ErrInsufficientReferenceData
	}

	a := Aligner{
		fixes:     sortFixes(fixes),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:  nopObserver{},
		tracer:    otel.Tracer(tracerName),
		workers:   runtime.GOMAXPROCS(0),
		chunkSize: defaultChunkSize,
		angles:    AngleLinear,
	}

	for _, option := range options {
		option(&a)
	}

	return &a, nil
}

// Align is a shortcut for New followed by Aligner.Align.
func Align(ctx context.Context, pings []sonar.Ping, fixes []navigation.Fix, options ...Option) ([]sonar.TransformedPing, error) {
	a, err := New(fixes, options...)
	if err != nil {
		return nil, err
	}
	return a.Align(ctx, pings)
}

// Align transforms all pings in batch mode. Pings must be ordered by
// non-decreasing timestamp. The result has one TransformedPing per input
// ping, in input order.
//
// The first failing ping aborts the run and is returned as a *PingError;
// no partial result is returned.
func (a *Aligner) Align(ctx context.Context, pings []sonar.Ping) (out []sonar.TransformedPing, err error) {
	runID := uuid.NewString()
	ctx, span := a.tracer.Start(ctx, "align.Align", trace.WithAttributes(
		attribute.String("align.run_id", runID),
		attribute.Int("align.pings", len(pings)),
		attribute.Int("align.fixes", len(a.fixes)),
		attribute.Int("align.workers", a.workers),
	))

	start := time.Now()
	defer func() {
		a.finishRun(span, runID, time.Since(start), err)
	}()

	cursor, err := NewCursor(a.fixes)
	if err != nil {
		return nil, err
	}

	out = make([]sonar.TransformedPing, len(pings))
	brackets := make([]Bracket, 0, min(a.chunkSize, len(pings)))

	for lo := 0; lo < len(pings); lo += a.chunkSize {
		hi := min(lo+a.chunkSize, len(pings))

		brackets = brackets[:0]
		for i := lo; i < hi; i++ {
			b, err := cursor.Seek(pings[i].Timestamp)
			if err != nil {
				pErr := &PingError{Index: i, Timestamp: pings[i].Timestamp, Err: err}
				a.observer.ObservePingError(pErr)
				return nil, pErr
			}
			a.observer.ObserveCursor(cursor.Position())
			brackets = append(brackets, b)
		}

		if err = a.transformChunk(ctx, lo, pings[lo:hi], brackets, out[lo:hi]); err != nil {
			return nil, err
		}
	}

	var beams int
	for i := range out {
		beams += len(out[i].Beams)
	}

	a.logger.Info("alignment finished",
		slog.String("runID", runID),
		slog.String("pings", humanize.Comma(int64(len(out)))),
		slog.String("beams", humanize.Comma(int64(beams))),
		slog.Duration("elapsed", time.Since(start)))

	return out, nil
}

// transformChunk splits a chunk of already bracketed pings between the
// workers. offset is the index of the first ping of the chunk in the run.
func (a *Aligner) transformChunk(ctx context.Context, offset int, pings []sonar.Ping, brackets []Bracket, out []sonar.TransformedPing) error {
	g, ctx := errgroup.WithContext(ctx)

	step := (len(pings) + a.workers - 1) / a.workers
	for lo := 0; lo < len(pings); lo += step {
		hi := min(lo+step, len(pings))

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				tp, err := a.transform(brackets[i], &pings[i])
				if err != nil {
					pErr := &PingError{Index: offset + i, Timestamp: pings[i].Timestamp, Err: err}
					a.observer.ObservePingError(pErr)
					return pErr
				}
				out[i] = tp
			}
			return nil
		})
	}

	return g.Wait()
}

// Stream aligns pings one at a time as they arrive, yielding every
// transformed ping as soon as its bracket is resolved.
//
// Failures are reported per ping: a ping that cannot be aligned yields a
// *PingError and the stream carries on with the next ping. Errors from the
// source are yielded unchanged and never move the cursor. Stopping the
// iteration early ends the run.
func (a *Aligner) Stream(ctx context.Context, pings iter.Seq2[sonar.Ping, error]) iter.Seq2[sonar.TransformedPing, error] {
	return func(yield func(sonar.TransformedPing, error) bool) {
		runID := uuid.NewString()
		ctx, span := a.tracer.Start(ctx, "align.Stream", trace.WithAttributes(
			attribute.String("align.run_id", runID),
			attribute.Int("align.fixes", len(a.fixes)),
		))

		var runErr error
		var count, beams int
		start := time.Now()
		defer func() {
			span.SetAttributes(attribute.Int("align.pings", count))
			a.finishRun(span, runID, time.Since(start), runErr)
		}()

		cursor, err := NewCursor(a.fixes)
		if err != nil {
			runErr = err
			yield(sonar.TransformedPing{}, err)
			return
		}

		var index int
		for p, err := range pings {
			if err != nil {
				a.observer.ObservePingError(err)
				if !yield(sonar.TransformedPing{}, err) {
					return
				}
				continue
			}

			if err = ctx.Err(); err != nil {
				runErr = err
				yield(sonar.TransformedPing{}, err)
				return
			}

			i := index
			index++

			var tp sonar.TransformedPing
			b, err := cursor.Seek(p.Timestamp)
			if err == nil {
				a.observer.ObserveCursor(cursor.Position())
				tp, err = a.transform(b, &p)
			}
			if err != nil {
				pErr := &PingError{Index: i, Timestamp: p.Timestamp, Err: err}
				a.observer.ObservePingError(pErr)
				if !yield(sonar.TransformedPing{}, pErr) {
					return
				}
				continue
			}

			count++
			beams += len(tp.Beams)
			if !yield(tp, nil) {
				return
			}
		}

		a.logger.Info("alignment stream finished",
			slog.String("runID", runID),
			slog.String("pings", humanize.Comma(int64(count))),
			slog.String("beams", humanize.Comma(int64(beams))),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func (a *Aligner) transform(b Bracket, p *sonar.Ping) (sonar.TransformedPing, error) {
	res, err := ResolvePose(b, p, a.angles)
	if err != nil {
		return sonar.TransformedPing{}, err
	}

	a.observer.ObservePing(res.Kind, res.Overridden, len(p.Beams))

	return sonar.TransformedPing{
		Timestamp:   p.Timestamp,
		FirstInFile: p.FirstInFile,
		Pose:        res.Pose,
		Beams:       TransformBeams(res.Pose, p.Beams),
	}, nil
}

func (a *Aligner) finishRun(span trace.Span, runID string, d time.Duration, err error) {
	a.observer.ObserveRun(d, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("alignment failed", slog.String("runID", runID), slog.String("error", err.Error()))
	}
	span.End()
}
