package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// PingReader provides an iterator-based interface for reading the pings of
// a survey session with optional time filtering.
type PingReader interface {
	// Session returns metadata about the survey session this reader is accessing.
	Session() *sonar.SurveySession

	// Next advances the iterator and returns true if there is another ping
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current ping in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *sonar.Ping

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// All returns an iterator over the remaining pings. Unlike Next, a
	// malformed ping is yielded as an error and iteration carries on.
	All(context.Context) iter.Seq2[sonar.Ping, error]

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

// ReaderOption configures fix and ping reads.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	startTime *int64 // Optional start of time range filter, inclusive
	endTime   *int64 // Optional end of time range filter, inclusive

	legacyHeadingSentinel bool
}

// WithStartTime excludes records with timestamps before ts.
func WithStartTime(ts int64) ReaderOption {
	return func(c *readerConfig) {
		c.startTime = &ts
	}
}

// WithEndTime excludes records with timestamps after ts.
func WithEndTime(ts int64) ReaderOption {
	return func(c *readerConfig) {
		c.endTime = &ts
	}
}

// WithTimeRange sets both start and end time filters.
// This is a convenience function equivalent to applying both WithStartTime
// and WithEndTime.
func WithTimeRange(start, end int64) ReaderOption {
	return func(c *readerConfig) {
		c.startTime = &start
		c.endTime = &end
	}
}

// WithLegacyHeadingSentinel treats a stored ping heading of exactly zero as
// "no attitude reading", as older acquisition software encoded it. Without
// this option a ping has an attitude whenever one was stored.
func WithLegacyHeadingSentinel() ReaderOption {
	return func(c *readerConfig) {
		c.legacyHeadingSentinel = true
	}
}

func newReaderConfig(opts ...ReaderOption) *readerConfig {
	var c readerConfig
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *readerConfig) validate() error {
	if c.startTime != nil && c.endTime != nil && *c.startTime > *c.endTime {
		return fmt.Errorf("start time %d is after end time %d", *c.startTime, *c.endTime)
	}
	return nil
}

func (c *readerConfig) bounds() (start, end int64) {
	start, end = math.MinInt64, math.MaxInt64
	if c.startTime != nil {
		start = *c.startTime
	}
	if c.endTime != nil {
		end = *c.endTime
	}
	return
}

// SqlitePingReader implements PingReader for SQLite database backend.
type SqlitePingReader struct {
	db *sql.DB
	*readerConfig

	sessionID int64
	session   *sonar.SurveySession

	rows       *sql.Rows
	pending    *pingRow // First row of the next ping, already scanned
	current    *sonar.Ping
	currentErr error // Malformed current ping, recoverable
	err        error
}

var _ PingReader = (*SqlitePingReader)(nil)

func newSqlitePingReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqlitePingReader, error) {
	r := &SqlitePingReader{
		db:           db,
		readerConfig: newReaderConfig(opts...),
		sessionID:    sessionID,
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqlitePingReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: r.loadSession},
		{msg: "initializing filters", fn: r.initFilters},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqlitePingReader) loadSession(ctx context.Context) (err error) {
	r.session, err = loadSession(ctx, r.db, r.sessionID)
	return
}

// initFilters narrows missing bounds to the stored ping time span.
func (r *SqlitePingReader) initFilters(ctx context.Context) (err error) {
	if err = r.validate(); err != nil {
		return
	}
	if r.startTime != nil && r.endTime != nil {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, selectPingBoundsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var first, last int64
	if err = stmt.QueryRowContext(ctx, r.sessionID).Scan(&first, &last); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if r.startTime == nil {
		r.startTime = &first
	}
	if r.endTime == nil {
		r.endTime = &last
	}
	return nil
}

func (r *SqlitePingReader) initQuery(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectPingsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if r.rows, err = stmt.QueryContext(ctx, r.sessionID, *r.startTime, *r.endTime); err != nil {
		return err
	}
	return nil
}

func (r *SqlitePingReader) scanRow() (*pingRow, error) {
	var row pingRow
	err := r.rows.Scan(
		&row.ping.ID,
		&row.ping.Timestamp,
		&row.ping.Roll,
		&row.ping.Pitch,
		&row.ping.Heading,
		&row.ping.FirstInFile,
		&row.beam.Index,
		&row.beam.X,
		&row.beam.Y,
		&row.beam.Z,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning ping: %w", err)
	}
	row.ping.SessionID = r.sessionID
	row.beam.PingID = row.ping.ID
	return &row, nil
}

// advance assembles the next ping from consecutive join rows sharing a ping
// ID. A malformed ping is consumed entirely and reported via currentErr.
func (r *SqlitePingReader) advance(ctx context.Context) bool {
	r.current, r.currentErr = nil, nil

	if r.err != nil || r.rows == nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		r.err = err
		return false
	}

	head := r.pending
	r.pending = nil
	if head == nil {
		if !r.rows.Next() {
			return false
		}
		if head, r.err = r.scanRow(); r.err != nil {
			return false
		}
	}

	p := sonar.Ping{
		Timestamp:   head.ping.Timestamp,
		FirstInFile: head.ping.FirstInFile,
	}
	p.Attitude, r.currentErr = head.ping.attitude(r.legacyHeadingSentinel)

	for row := head; row != nil; {
		if row.beam.Index.Valid && r.currentErr == nil {
			r.currentErr = appendBeam(&p, &row.beam)
		}

		if !r.rows.Next() {
			break
		}

		next, err := r.scanRow()
		if err != nil {
			r.err = err
			return false
		}
		if next.ping.ID != head.ping.ID {
			r.pending = next
			break
		}
		row = next
	}

	if r.currentErr == nil {
		r.current = &p
	}
	return true
}

func appendBeam(p *sonar.Ping, b *beamData) error {
	if b.Index.Int64 != int64(len(p.Beams)) {
		return fmt.Errorf("%w: ping %d beam index %d, expected %d", sonar.ErrMalformedRecord, b.PingID, b.Index.Int64, len(p.Beams))
	}

	v, err := b.vec()
	if err != nil {
		return err
	}
	p.Beams = append(p.Beams, v)
	return nil
}

func (r *SqlitePingReader) Session() *sonar.SurveySession {
	return r.session
}

func (r *SqlitePingReader) Next(ctx context.Context) bool {
	if !r.advance(ctx) {
		return false
	}
	if r.currentErr != nil {
		r.err = r.currentErr
		return false
	}
	return true
}

func (r *SqlitePingReader) Current() *sonar.Ping {
	return r.current
}

func (r *SqlitePingReader) All(ctx context.Context) iter.Seq2[sonar.Ping, error] {
	return func(yield func(sonar.Ping, error) bool) {
		for r.advance(ctx) {
			if r.currentErr != nil {
				if !yield(sonar.Ping{}, r.currentErr) {
					return
				}
				continue
			}
			if !yield(*r.current, nil) {
				return
			}
		}
		if err := r.Error(); err != nil {
			yield(sonar.Ping{}, err)
		}
	}
}

func (r *SqlitePingReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

func (r *SqlitePingReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.current = nil
		r.pending = nil
		r.rows = nil
		return err
	}
	return nil
}

