package align

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
)

// Rotation is a 3x3 rotation matrix stored by rows.
type Rotation struct {
	rows [3]r3.Vec
}

// NewRotation composes R = Rz(yaw) · Ry(pitch) · Rx(roll): roll is applied
// first about the local X axis, then pitch about Y, then yaw about Z.
func NewRotation(a navigation.Attitude) Rotation {
	sr, cr := math.Sincos(a.Roll)
	sp, cp := math.Sincos(a.Pitch)
	sy, cy := math.Sincos(a.Yaw)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})

	var zy, r mat.Dense
	zy.Mul(rz, ry)
	r.Mul(&zy, rx)

	var rot Rotation
	for i := range rot.rows {
		row := r.RawRowView(i)
		rot.rows[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	return rot
}

// Apply rotates v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r3.Dot(r.rows[0], v),
		Y: r3.Dot(r.rows[1], v),
		Z: r3.Dot(r.rows[2], v),
	}
}

// At returns the matrix element at row i, column j.
func (r Rotation) At(i, j int) float64 {
	row := r.rows[i]
	switch j {
	case 0:
		return row.X
	case 1:
		return row.Y
	default:
		return row.Z
	}
}

// Det returns the determinant, which is 1 for a proper rotation.
func (r Rotation) Det() float64 {
	return r3.Dot(r.rows[0], r3.Cross(r.rows[1], r.rows[2]))
}

// TransformBeams maps local-frame beams into the world frame using the pose:
// world = position + R · beam. The output keeps the order and length of beams.
func TransformBeams(pose navigation.Pose, beams []r3.Vec) []r3.Vec {
	rot := NewRotation(pose.Attitude)

	world := make([]r3.Vec, len(beams))
	for i, beam := range beams {
		world[i] = r3.Add(pose.Position, rot.Apply(beam))
	}
	return world
}
