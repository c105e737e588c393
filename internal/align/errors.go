package align

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientReferenceData is returned when there are no navigation
	// fixes to align pings against
	ErrInsufficientReferenceData = errors.New("no navigation fixes to align against")

	// ErrInterpolationDegenerate is returned when the two fixes bracketing a
	// ping share a timestamp, so the interpolation ratio is undefined
	ErrInterpolationDegenerate = errors.New("bracketing fixes share a timestamp")

	// ErrPingOrder is returned when a ping is older than its predecessor
	ErrPingOrder = errors.New("ping timestamps must be non-decreasing")
)

// PingError ties an alignment failure to the ping that caused it.
type PingError struct {
	Index     int   // Position of the ping in the input sequence
	Timestamp int64 // Ping timestamp in milliseconds
	Err       error
}

func (e *PingError) Error() string {
	return fmt.Sprintf("ping %d at %d ms: %s", e.Index, e.Timestamp, e.Err)
}

func (e *PingError) Unwrap() error {
	return e.Err
}
