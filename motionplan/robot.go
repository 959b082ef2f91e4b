package motionplan

import (
	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

// RobotModel is the kinematic oracle the planners consult. Implementations must be free of side
// effects for the duration of a PlanPath call: the same query must return the same answer.
type RobotModel interface {
	// Initialize prepares the model for queries.
	Initialize() error

	// DoF returns the number of joints.
	DoF() int

	// SolveIK returns every joint configuration that reaches the pose. An unreachable pose
	// returns an empty slice and no error.
	SolveIK(pose spatialmath.Pose) ([][]referenceframe.Input, error)

	// FK returns the pose of the tool for the given joint configuration.
	FK(joints []referenceframe.Input) (spatialmath.Pose, error)

	// IsValid reports whether a joint configuration is within limits and otherwise usable.
	IsValid(joints []referenceframe.Input) bool

	// IsTransitionFeasible reports whether the robot can move between the two configurations
	// within dt seconds without exceeding its joint velocity limits. dt may be +Inf.
	IsTransitionFeasible(from, to []referenceframe.Input, dt float64) bool

	// JointVelocityLimits returns the maximum speed of each joint.
	JointVelocityLimits() []float64
}
