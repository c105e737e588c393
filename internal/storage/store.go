package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

// Store provides an interface for managing survey data storage operations.
// It handles sessions, navigation fixes, and sonar pings in a thread-safe manner.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateSession initializes a new survey session and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - vessel: Name of the survey platform
	//   - sensor: Ranging sensor model or serial number
	//   - config: Optional acquisition configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, vessel, sensor string, config any) (sessionID int64, err error)

	// Session retrieves a specific survey session by its ID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Unique session identifier
	//
	// Returns:
	//   - session: Pointer to session data
	//   - error: If retrieval fails, the session does not exist or context is cancelled
	Session(ctx context.Context, id int64) (session *sonar.SurveySession, err error)

	// Sessions returns all survey sessions stored in the database.
	// Results are ordered by start time in ascending order.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - sessions: Slice of pointers to session data
	//   - error: If retrieval fails or context is cancelled
	Sessions(ctx context.Context) (sessions []*sonar.SurveySession, err error)

	// StoreFixes saves navigation fixes for a specific session.
	// All fixes are stored in a single atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: ID of the session these fixes belong to
	//   - fixes: Navigation fixes, in any order
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreFixes(ctx context.Context, sessionID int64, fixes []navigation.Fix) error

	// StorePing saves a sonar ping together with its beams.
	// The ping and all of its beams are stored in a single atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: ID of the session this ping belongs to
	//   - p: Ping with local-frame beams and an optional attitude
	//
	// Returns:
	//   - pingID: Unique identifier for the stored ping record
	//   - error: If storage fails or context is cancelled
	StorePing(ctx context.Context, sessionID int64, p *sonar.Ping) (pingID int64, err error)

	// ReadFixes returns the navigation fixes of a session ordered by timestamp.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: Unique identifier of the survey session to read from
	//   - opts: Optional time range filters (WithStartTime, WithEndTime, WithTimeRange)
	//
	// Returns:
	//   - fixes: Navigation fixes in non-decreasing timestamp order
	//   - error: If retrieval fails or context is cancelled
	ReadFixes(ctx context.Context, sessionID int64, opts ...ReaderOption) (fixes []navigation.Fix, err error)

	// ReadPings creates a PingReader streaming the pings of a session in
	// non-decreasing timestamp order. The reader must be closed after use.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: Unique identifier of the survey session to read from
	//   - opts: Optional configuration (WithStartTime, WithEndTime, WithTimeRange,
	//     WithLegacyHeadingSentinel)
	//
	// Returns:
	//   - reader: Ping reader
	//   - error: If reader creation fails or the session does not exist
	ReadPings(ctx context.Context, sessionID int64, opts ...ReaderOption) (reader PingReader, err error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	//
	// Returns:
	//   - error: If closing fails or some resources cannot be released
	Close() error
}
