package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D
// Euclidean space. The rotation is applied as yaw about z, then pitch about y, then roll about x.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{}
}

// Quaternion returns the orientation as a unit quaternion.
func (ea *EulerAngles) Quaternion() quat.Number {
	cy := math.Cos(ea.Yaw * 0.5)
	sy := math.Sin(ea.Yaw * 0.5)
	cp := math.Cos(ea.Pitch * 0.5)
	sp := math.Sin(ea.Pitch * 0.5)
	cr := math.Cos(ea.Roll * 0.5)
	sr := math.Sin(ea.Roll * 0.5)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// Slice returns the angles as [roll, pitch, yaw].
func (ea *EulerAngles) Slice() []float64 {
	return []float64{ea.Roll, ea.Pitch, ea.Yaw}
}

// OrientationDistance returns the angle in radians of the smallest rotation taking o1 to o2.
func OrientationDistance(o1, o2 *EulerAngles) float64 {
	q1 := o1.Quaternion()
	q2 := o2.Quaternion()
	dot := math.Abs(q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}
