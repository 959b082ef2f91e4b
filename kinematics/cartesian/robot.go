// Package cartesian implements a 6 DoF Cartesian robot whose joints are the tool pose itself,
// [x, y, z, roll, pitch, yaw]. It is the reference robot model for the trajectory planners.
package cartesian

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

// DoF is the number of joints of a Cartesian robot.
const DoF = 6

// Robot is a Cartesian robot with a cubic position workspace and bounded orientation.
type Robot struct {
	posRange    float64
	orientRange float64
	velLimits   []float64
	branches    int
}

// Option customizes a Robot at creation time.
type Option func(*Robot)

// WithRedundantBranches makes IK return 2n extra solutions per pose, with the yaw joint offset by
// +2πk and -2πk for k in 1..n. They reach the same pose, so planners see multi-solution layers.
func WithRedundantBranches(n int) Option {
	return func(r *Robot) {
		r.branches = n
	}
}

// NewRobot returns a Robot reaching positions within posRange (m) and orientations within
// orientRange (rad) on every axis, with one velocity limit per joint.
func NewRobot(posRange, orientRange float64, velLimits []float64, opts ...Option) (*Robot, error) {
	if posRange < 0 || orientRange < 0 {
		return nil, errors.Errorf("workspace ranges must be non-negative, got %.4f and %.4f", posRange, orientRange)
	}
	if len(velLimits) != DoF {
		return nil, errors.Wrap(referenceframe.NewIncorrectDoFError(len(velLimits), DoF), "velocity limits")
	}
	r := &Robot{
		posRange:    posRange,
		orientRange: orientRange,
		velLimits:   append([]float64(nil), velLimits...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.branches < 0 {
		return nil, errors.Errorf("redundant branches can't be negative, got %d", r.branches)
	}
	return r, nil
}

// Initialize checks the velocity limits.
func (r *Robot) Initialize() error {
	for i, v := range r.velLimits {
		if !(v > 0) {
			return errors.Errorf("joint %d velocity limit must be positive, got %.4f", i, v)
		}
	}
	return nil
}

// DoF returns 6.
func (r *Robot) DoF() int {
	return DoF
}

// Limits returns the range of every joint, including the yaw span covered by redundant branches.
func (r *Robot) Limits() []referenceframe.Limit {
	yaw := r.orientRange + 2*math.Pi*float64(r.branches)
	return []referenceframe.Limit{
		referenceframe.SymmetricLimit(r.posRange),
		referenceframe.SymmetricLimit(r.posRange),
		referenceframe.SymmetricLimit(r.posRange),
		referenceframe.SymmetricLimit(r.orientRange),
		referenceframe.SymmetricLimit(r.orientRange),
		referenceframe.SymmetricLimit(yaw),
	}
}

// SolveIK returns the joints of the pose, followed by its redundant branches, or nothing if the
// pose is outside the workspace.
func (r *Robot) SolveIK(pose spatialmath.Pose) ([][]referenceframe.Input, error) {
	if pose == nil {
		return nil, errors.New("cannot solve IK for a nil pose")
	}
	pt := pose.Point()
	o := pose.Orientation()
	for _, v := range []float64{pt.X, pt.Y, pt.Z} {
		if math.Abs(v) > r.posRange {
			return nil, nil
		}
	}
	for _, v := range o.Slice() {
		if math.Abs(v) > r.orientRange {
			return nil, nil
		}
	}

	base := []referenceframe.Input{pt.X, pt.Y, pt.Z, o.Roll, o.Pitch, o.Yaw}
	sols := [][]referenceframe.Input{base}
	for k := 1; k <= r.branches; k++ {
		for _, sign := range []float64{1, -1} {
			sol := referenceframe.CopyInputs(base)
			sol[5] += sign * 2 * math.Pi * float64(k)
			sols = append(sols, sol)
		}
	}
	return sols, nil
}

// FK returns the pose of the joints. Yaw is wrapped back into [-π, π].
func (r *Robot) FK(joints []referenceframe.Input) (spatialmath.Pose, error) {
	if len(joints) != DoF {
		return nil, referenceframe.NewIncorrectDoFError(len(joints), DoF)
	}
	return spatialmath.NewPose(
		r3.Vector{X: joints[0], Y: joints[1], Z: joints[2]},
		&spatialmath.EulerAngles{Roll: joints[3], Pitch: joints[4], Yaw: math.Remainder(joints[5], 2*math.Pi)},
	), nil
}

// IsValid reports whether the joints are within the robot's limits.
func (r *Robot) IsValid(joints []referenceframe.Input) bool {
	return referenceframe.CheckInputs(r.Limits(), joints) == nil
}

// IsTransitionFeasible reports whether every joint can cover its displacement within dt.
func (r *Robot) IsTransitionFeasible(from, to []referenceframe.Input, dt float64) bool {
	if len(from) != DoF || len(to) != DoF || math.IsNaN(dt) || dt < 0 {
		return false
	}
	for i := range from {
		if math.Abs(to[i]-from[i]) > dt*r.velLimits[i] {
			return false
		}
	}
	return true
}

// MinTransitionTime returns the shortest time in which the robot can move between the joints,
// limited by the slowest joint.
func (r *Robot) MinTransitionTime(from, to []referenceframe.Input) (float64, error) {
	if len(from) != DoF {
		return 0, referenceframe.NewIncorrectDoFError(len(from), DoF)
	}
	if len(to) != DoF {
		return 0, referenceframe.NewIncorrectDoFError(len(to), DoF)
	}
	minTime := 0.
	for i := range from {
		minTime = math.Max(minTime, math.Abs(to[i]-from[i])/r.velLimits[i])
	}
	return minTime, nil
}

// JointVelocityLimits returns a copy of the joint velocity limits.
func (r *Robot) JointVelocityLimits() []float64 {
	return append([]float64(nil), r.velLimits...)
}
