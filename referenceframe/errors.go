package referenceframe

import "github.com/pkg/errors"

// NewIncorrectDoFError returns an error indicating that the number of inputs does not match the
// number of degrees of freedom.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewZeroDoFError returns an error indicating that a robot model reports no joints.
func NewZeroDoFError(name string) error {
	return errors.Errorf("%s has zero degrees of freedom", name)
}
