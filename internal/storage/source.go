package storage

import (
	"context"
	"iter"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

var (
	_ navigation.Source = (*SessionSource)(nil)
	_ sonar.Source      = (*SessionSource)(nil)
)

// SessionSource exposes the fixes and pings of one stored survey session.
type SessionSource struct {
	store     Store
	sessionID int64
	opts      []ReaderOption
}

// NewSessionSource creates a source reading sessionID from store. The reader
// options only narrow the pings: fixes are always read in full so that pings
// near the edges of a time window keep their bracketing fixes.
func NewSessionSource(store Store, sessionID int64, opts ...ReaderOption) *SessionSource {
	return &SessionSource{store: store, sessionID: sessionID, opts: opts}
}

func (s *SessionSource) Fixes(ctx context.Context) ([]navigation.Fix, error) {
	return s.store.ReadFixes(ctx, s.sessionID)
}

// Pings loads all pings of the session. The first malformed ping aborts the
// read.
func (s *SessionSource) Pings(ctx context.Context) (pings []sonar.Ping, err error) {
	r, err := s.store.ReadPings(ctx, s.sessionID, s.opts...)
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	for r.Next(ctx) {
		pings = append(pings, *r.Current())
	}
	if err = r.Error(); err != nil {
		return nil, err
	}
	return pings, nil
}

// Stream yields the pings of the session as they are read. Malformed pings
// are yielded as errors without ending the stream.
func (s *SessionSource) Stream(ctx context.Context) iter.Seq2[sonar.Ping, error] {
	return func(yield func(sonar.Ping, error) bool) {
		r, err := s.store.ReadPings(ctx, s.sessionID, s.opts...)
		if err != nil {
			yield(sonar.Ping{}, err)
			return
		}
		defer func() { _ = r.Close() }()

		for p, err := range r.All(ctx) {
			if !yield(p, err) {
				return
			}
		}
	}
}
