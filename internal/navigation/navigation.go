package navigation

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Source provides navigation fixes already decoded from whatever format
// the positioning system exports.
type Source interface {
	Fixes(ctx context.Context) ([]Fix, error)
}

// Attitude is a ZYX (yaw-pitch-roll) orientation in radians.
type Attitude struct {
	Roll  float64 `json:"roll"`  // Rotation about the local X axis
	Pitch float64 `json:"pitch"` // Rotation about the local Y axis
	Yaw   float64 `json:"yaw"`   // Heading, rotation about the local Z axis
}

// AttitudeFromDegrees builds an Attitude from angles given in degrees.
func AttitudeFromDegrees(roll, pitch, yaw float64) Attitude {
	return Attitude{
		Roll:  roll * math.Pi / 180,
		Pitch: pitch * math.Pi / 180,
		Yaw:   yaw * math.Pi / 180,
	}
}

// Degrees returns roll, pitch and yaw in degrees.
func (a Attitude) Degrees() (roll, pitch, yaw float64) {
	return a.Roll * 180 / math.Pi, a.Pitch * 180 / math.Pi, a.Yaw * 180 / math.Pi
}

// Pose is a world-frame position together with the attitude of the platform.
type Pose struct {
	Position r3.Vec   `json:"position"`
	Attitude Attitude `json:"attitude"`
}

// Fix is a single navigation sample from the positioning system
type Fix struct {
	Timestamp int64    `json:"timestamp"` // Milliseconds since the survey epoch
	Position  r3.Vec   `json:"position"`  // World frame, e.g. easting, northing, height in meters
	Velocity  r3.Vec   `json:"velocity"`  // World frame velocity in m/s
	Attitude  Attitude `json:"attitude"`  // Platform orientation
}

// Pose returns the position and attitude of the fix.
func (f Fix) Pose() Pose {
	return Pose{Position: f.Position, Attitude: f.Attitude}
}
