// Package referenceframe defines the joint-space values a robot model consumes and produces.
package referenceframe

import (
	"errors"
	"math"

	pb "go.viam.com/api/component/arm/v1"
	"gonum.org/v1/gonum/floats"

	"github.com/clarkli86/descartes/utils"
)

// Input wraps the input to a mutable joint, e.g. a joint angle or a gantry position.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in meters.
type Input = float64

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	copy(inputs, floats)
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	copy(floats, inputs)
	return floats
}

// CopyInputs returns a deep copy of the given inputs, preserving nil.
func CopyInputs(inputs []Input) []Input {
	if inputs == nil {
		return nil
	}
	return FloatsToInputs(inputs)
}

// JointPositionsToRadians converts the given positions into a slice
// of radians.
func JointPositionsToRadians(jp *pb.JointPositions) []float64 {
	n := make([]float64, len(jp.GetValues()))
	for idx, d := range jp.GetValues() {
		n[idx] = utils.DegToRad(d)
	}
	return n
}

// JointPositionsFromRadians converts the given slice of radians into
// joint positions (represented in degrees).
func JointPositionsFromRadians(radians []float64) *pb.JointPositions {
	n := make([]float64, len(radians))
	for idx, a := range radians {
		n[idx] = utils.RadToDeg(a)
	}
	return &pb.JointPositions{Values: n}
}

// JointPositionsFromInputs converts a planned joint configuration to the arm API representation.
// Revolute joints are reported in degrees; the indices in `prismatic` are copied through unchanged.
func JointPositionsFromInputs(inputs []Input, prismatic ...int) (*pb.JointPositions, error) {
	if inputs == nil {
		return nil, errors.New("inputs cannot be nil")
	}
	jp := JointPositionsFromRadians(inputs)
	for _, idx := range prismatic {
		if idx < 0 || idx >= len(inputs) {
			return nil, NewIncorrectDoFError(idx+1, len(inputs))
		}
		jp.Values[idx] = inputs[idx]
	}
	return jp, nil
}

// InterpolateInputs will return a set of inputs that are the specified percent between the two given sets of
// inputs. For example, setting by to 0.5 will return the inputs halfway between the from/to values, and 0.25 would
// return one quarter of the way from "from" to "to".
func InterpolateInputs(from, to []Input, by float64) []Input {
	newVals := make([]Input, 0, len(from))
	for i, j1 := range from {
		newVals = append(newVals, j1+((to[i]-j1)*by))
	}
	return newVals
}

// InputsL2Distance returns the two-norm (the sqrt of the sum of the squares) between two Input sets.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f-to[i])
	}
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(diff, 2)
}

// InputsLinfDistance returns the largest single joint displacement between two Input sets.
func InputsLinfDistance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f-to[i])
	}
	return floats.Norm(diff, math.Inf(1))
}
