package align

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
)

func TestRotation_Axes(t *testing.T) {
	tests := []struct {
		name     string
		attitude navigation.Attitude
		in       r3.Vec
		want     r3.Vec
	}{
		{
			name:     "identity",
			attitude: navigation.Attitude{},
			in:       r3.Vec{X: 1, Y: 2, Z: 3},
			want:     r3.Vec{X: 1, Y: 2, Z: 3},
		},
		{
			name:     "roll 90",
			attitude: navigation.AttitudeFromDegrees(90, 0, 0),
			in:       r3.Vec{Y: 1},
			want:     r3.Vec{Z: 1},
		},
		{
			name:     "pitch 90",
			attitude: navigation.AttitudeFromDegrees(0, 90, 0),
			in:       r3.Vec{Z: 1},
			want:     r3.Vec{X: 1},
		},
		{
			name:     "yaw 90",
			attitude: navigation.AttitudeFromDegrees(0, 0, 90),
			in:       r3.Vec{X: 1},
			want:     r3.Vec{Y: 1},
		},
		{
			// roll first: Y goes to Z, then yaw leaves Z alone
			name:     "roll then yaw",
			attitude: navigation.AttitudeFromDegrees(90, 0, 90),
			in:       r3.Vec{Y: 1},
			want:     r3.Vec{Z: 1},
		},
		{
			// roll first: X is untouched by roll, then yaw turns it to Y
			name:     "roll then yaw on X",
			attitude: navigation.AttitudeFromDegrees(90, 0, 90),
			in:       r3.Vec{X: 1},
			want:     r3.Vec{Y: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRotation(tt.attitude).Apply(tt.in)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("rotated vector mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRotation_Proper(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	for range 100 {
		att := navigation.Attitude{
			Roll:  (rnd.Float64() - 0.5) * 6,
			Pitch: (rnd.Float64() - 0.5) * 3,
			Yaw:   (rnd.Float64() - 0.5) * 6,
		}
		rot := NewRotation(att)

		assert.InDelta(t, 1, rot.Det(), tolerance)

		v := r3.Vec{X: rnd.Float64(), Y: rnd.Float64(), Z: rnd.Float64()}
		assert.InDelta(t, r3.Norm(v), r3.Norm(rot.Apply(v)), tolerance, "rotation must preserve length")
	}
}

func TestRotation_At(t *testing.T) {
	rot := NewRotation(navigation.AttitudeFromDegrees(0, 0, 90))

	assert.InDelta(t, 0, rot.At(0, 0), tolerance)
	assert.InDelta(t, -1, rot.At(0, 1), tolerance)
	assert.InDelta(t, 1, rot.At(1, 0), tolerance)
	assert.InDelta(t, 1, rot.At(2, 2), tolerance)
}

func TestTransformBeams(t *testing.T) {
	pose := navigation.Pose{
		Position: r3.Vec{X: 100, Y: 200, Z: -5},
		Attitude: navigation.AttitudeFromDegrees(0, 0, 90),
	}
	beams := []r3.Vec{
		{X: 1},
		{Y: 2},
		{Z: -30},
	}

	got := TransformBeams(pose, beams)

	want := []r3.Vec{
		{X: 100, Y: 201, Z: -5},
		{X: 98, Y: 200, Z: -5},
		{X: 100, Y: 200, Z: -35},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("world beams mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, TransformBeams(pose, nil))
}
