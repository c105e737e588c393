package sonar

import (
	"context"
	"errors"
	"iter"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
)

// ErrMalformedRecord is returned by ping and fix sources when a stored or
// decoded record cannot be turned into a valid Ping or Fix.
var ErrMalformedRecord = errors.New("malformed record")

// Source provides pings already decoded from the sensor format, in
// non-decreasing timestamp order.
type Source interface {
	Pings(ctx context.Context) ([]Ping, error)
}

// SurveySession represents a single survey run of one sensor on one vessel.
type SurveySession struct {
	ID        int64     `json:"ID"`                      // Unique identifier for the session
	StartTime time.Time `json:"startTime"`               // When the session was created
	Vessel    string    `json:"vessel"`                  // Survey platform name
	Sensor    string    `json:"sensor"`                  // Ranging sensor model or serial number
	Config    *string   `json:"config,string,omitempty"` // Optional acquisition configuration in JSON format
}

// Ping is one batch of local-frame measurements taken at an instant.
type Ping struct {
	Timestamp   int64                `json:"timestamp"`          // Milliseconds since the survey epoch
	Attitude    *navigation.Attitude `json:"attitude,omitempty"` // Orientation from the onboard sensor, nil if not available
	Beams       []r3.Vec             `json:"beams"`              // Beam vectors in the sensor frame, in meters
	FirstInFile bool                 `json:"firstInFile"`        // Marks the first ping of a source file
}

// TransformedPing is a Ping with its resolved pose and world-frame beams.
type TransformedPing struct {
	Timestamp   int64           `json:"timestamp"`
	FirstInFile bool            `json:"firstInFile"`
	Pose        navigation.Pose `json:"pose"`  // Pose actually applied to the beams
	Beams       []r3.Vec        `json:"beams"` // Same order and length as the source ping beams
}

// AttitudeFromSentinel maps the legacy encoding, where a heading of exactly
// zero means that the sensor had no orientation reading, to an optional
// attitude.
func AttitudeFromSentinel(roll, pitch, heading float64) *navigation.Attitude {
	if heading == 0 {
		return nil
	}
	return &navigation.Attitude{Roll: roll, Pitch: pitch, Yaw: heading}
}

// Seq adapts a slice of pings to the iterator form consumed by streaming
// alignment.
func Seq(pings []Ping) iter.Seq2[Ping, error] {
	return func(yield func(Ping, error) bool) {
		for _, p := range pings {
			if !yield(p, nil) {
				return
			}
		}
	}
}
