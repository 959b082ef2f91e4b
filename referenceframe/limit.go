package referenceframe

import (
	"fmt"
	"math"
)

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the limit, inclusive.
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Range returns the width of the limit.
func (l Limit) Range() float64 {
	return l.Max - l.Min
}

// SymmetricLimit returns the limit [-r, r].
func SymmetricLimit(r float64) Limit {
	return Limit{Min: -math.Abs(r), Max: math.Abs(r)}
}

// CheckInputs returns an error if the inputs do not match the limits in length or fall outside them.
func CheckInputs(limits []Limit, inputs []Input) error {
	if len(limits) != len(inputs) {
		return NewIncorrectDoFError(len(inputs), len(limits))
	}
	for i, v := range inputs {
		if !limits[i].Contains(v) {
			return fmt.Errorf("input %d value %.4f is outside of limits [%.4f, %.4f]", i, v, limits[i].Min, limits[i].Max)
		}
	}
	return nil
}
