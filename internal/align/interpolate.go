package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

const (
	// AngleLinear interpolates each angle independently as a plain number.
	// Headings crossing the ±π seam swing the long way round.
	AngleLinear AngleInterpolation = "linear"

	// AngleShortestArc interpolates along the shorter arc between two angles
	AngleShortestArc AngleInterpolation = "shortest-arc"
)

// AngleInterpolation selects how attitude angles are interpolated between
// two fixes.
type AngleInterpolation string

func (a AngleInterpolation) String() string {
	return string(a)
}

// ParseAngleInterpolation converts a configuration value into an
// AngleInterpolation. An empty value selects AngleLinear.
func ParseAngleInterpolation(s string) (AngleInterpolation, error) {
	switch AngleInterpolation(s) {
	case "", AngleLinear:
		return AngleLinear, nil
	case AngleShortestArc:
		return AngleShortestArc, nil
	default:
		return "", fmt.Errorf("unknown angle interpolation '%s'", s)
	}
}

// Resolution is the pose chosen for a ping and how it was obtained.
type Resolution struct {
	Pose       navigation.Pose
	Kind       BracketKind
	Ratio      float64 // Interpolation ratio, only meaningful for interior brackets
	Overridden bool    // The attitude came from the ping itself
}

// ResolvePose computes the pose of a ping from its bracket. Position always
// comes from navigation; the attitude comes from the ping when it carries
// one, regardless of the bracket kind.
func ResolvePose(b Bracket, p *sonar.Ping, mode AngleInterpolation) (Resolution, error) {
	res := Resolution{Kind: b.Kind}

	switch b.Kind {
	case BracketTrailing:
		res.Pose = b.Previous.Pose()

	case BracketLeading:
		res.Pose = b.Next.Pose()

	case BracketInterior:
		span := b.Next.Timestamp - b.Previous.Timestamp
		if span == 0 {
			return Resolution{}, ErrInterpolationDegenerate
		}

		res.Ratio = float64(p.Timestamp-b.Previous.Timestamp) / float64(span)
		res.Pose = navigation.Pose{
			Position: lerpVec(b.Previous.Position, b.Next.Position, res.Ratio),
			Attitude: lerpAttitude(b.Previous.Attitude, b.Next.Attitude, res.Ratio, mode),
		}

	default:
		return Resolution{}, fmt.Errorf("unknown bracket kind '%s'", b.Kind)
	}

	if p.Attitude != nil {
		res.Pose.Attitude = *p.Attitude
		res.Overridden = true
	}

	return res, nil
}

func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

func lerpAttitude(a, b navigation.Attitude, t float64, mode AngleInterpolation) navigation.Attitude {
	lerp := lerpLinear
	if mode == AngleShortestArc {
		lerp = lerpShortestArc
	}

	return navigation.Attitude{
		Roll:  lerp(a.Roll, b.Roll, t),
		Pitch: lerp(a.Pitch, b.Pitch, t),
		Yaw:   lerp(a.Yaw, b.Yaw, t),
	}
}

func lerpLinear(a, b, t float64) float64 {
	return a + t*(b-a)
}

// lerpShortestArc returns an angle in [-π, π].
func lerpShortestArc(a, b, t float64) float64 {
	delta := math.Remainder(b-a, 2*math.Pi)
	return math.Remainder(a+t*delta, 2*math.Pi)
}
