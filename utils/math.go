// Package utils contains small helpers shared by the planning packages.
package utils

import "math"

const epsilon = 1e-8

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// AlmostZero returns whether the value is within the default epsilon of zero.
func AlmostZero(v float64) bool {
	return math.Abs(v) <= epsilon
}

// Clamp returns min if value is lesser than min, max if value is greater them max or value if
// the input value is between min and max.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// MinInt returns the smaller of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MaxInt returns the larger of two ints.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
