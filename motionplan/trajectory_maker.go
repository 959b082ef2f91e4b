package motionplan

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/clarkli86/descartes/spatialmath"
)

// MakeConstantVelocityTrajectory returns `samples` Cartesian waypoints evenly spaced on the line
// from start to stop, each timed so the tool travels at toolVelocity (m/s). Every point,
// including the first, carries the per-segment duration.
func MakeConstantVelocityTrajectory(start, stop r3.Vector, toolVelocity float64, samples int) ([]TrajectoryPoint, error) {
	if samples < 2 {
		return nil, errors.Errorf("need at least 2 samples, got %d", samples)
	}
	if toolVelocity <= 0 {
		return nil, errors.Errorf("tool velocity must be positive, got %.4f", toolVelocity)
	}

	delta := stop.Sub(start)
	step := delta.Mul(1 / float64(samples-1))
	dt := delta.Norm() / float64(samples-1) / toolVelocity

	points := make([]TrajectoryPoint, 0, samples)
	for i := 0; i < samples; i++ {
		pose := spatialmath.NewPoseFromPoint(start.Add(step.Mul(float64(i))))
		points = append(points, NewCartesianPoint(pose, NewTimingConstraint(dt)))
	}
	return points, nil
}
