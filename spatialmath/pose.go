// Package spatialmath defines the Cartesian poses waypoints are expressed in.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in meters; Orientation() returns the rotation.
type Pose interface {
	Point() r3.Vector
	Orientation() *EulerAngles
}

type basicPose struct {
	point       r3.Vector
	orientation EulerAngles
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return &basicPose{}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o *EulerAngles) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &basicPose{point: p, orientation: *o}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point}
}

func (p *basicPose) Point() r3.Vector {
	return p.point
}

func (p *basicPose) Orientation() *EulerAngles {
	o := p.orientation
	return &o
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// Position and each Euler angle are interpolated linearly.
func Interpolate(p1, p2 Pose, by float64) Pose {
	o1 := p1.Orientation()
	o2 := p2.Orientation()
	return &basicPose{
		point: p1.Point().Add(p2.Point().Sub(p1.Point()).Mul(by)),
		orientation: EulerAngles{
			Roll:  o1.Roll + (o2.Roll-o1.Roll)*by,
			Pitch: o1.Pitch + (o2.Pitch-o1.Pitch)*by,
			Yaw:   o1.Yaw + (o2.Yaw-o1.Yaw)*by,
		},
	}
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// using eps for both the position (meters) and orientation (radians) tolerance.
func PoseAlmostEqualEps(a, b Pose, eps float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), eps) && OrientationDistance(a.Orientation(), b.Orientation()) <= eps
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise
// differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// DistToLineSegment takes a lines two terminal points and computes the distance from a third
// point to the closest point on the line segment.
func DistToLineSegment(p1, p2, query r3.Vector) float64 {
	seg := p2.Sub(p1)
	lenSq := seg.Norm2()
	if lenSq == 0 {
		return query.Distance(p1)
	}
	t := query.Sub(p1).Dot(seg) / lenSq
	t = math.Max(0, math.Min(1, t))
	return query.Distance(p1.Add(seg.Mul(t)))
}
