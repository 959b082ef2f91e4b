package motionplan

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/clarkli86/descartes/motionplan/ik"
	"github.com/clarkli86/descartes/referenceframe"
)

func newSegment(from, to []referenceframe.Input) *ik.Segment {
	return &ik.Segment{StartConfiguration: from, EndConfiguration: to}
}

// JointPath is the joint configuration of every waypoint of a planned path.
type JointPath [][]referenceframe.Input

// JointPathFromTrajectory extracts the joints of a planned path returned by PathPlanner.Path.
func JointPathFromTrajectory(points []TrajectoryPoint) (JointPath, error) {
	path := make(JointPath, 0, len(points))
	for i, pt := range points {
		jp, ok := pt.(*JointPoint)
		if !ok {
			return nil, errors.Errorf("waypoint %d is a %T, not a joint point", i, pt)
		}
		path = append(path, jp.Joints())
	}
	return path, nil
}

// Evaluate assigns a numeric score to a path that corresponds to the cumulative distance between
// consecutive configurations.
func (path JointPath) Evaluate(distFunc ik.SegmentMetric) float64 {
	total := 0.
	for i := 1; i < len(path); i++ {
		total += distFunc(newSegment(path[i-1], path[i]))
	}
	return total
}

// CheckFeasible returns an error naming the first waypoint the robot cannot reach from its
// predecessor within the waypoint's timing, using the same duration rules as the planners.
func (path JointPath) CheckFeasible(robot RobotModel, timings []TimingConstraint, opts *PlannerOptions) error {
	if len(timings) != len(path) {
		return errors.Errorf("path has %d waypoints but %d timings", len(path), len(timings))
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	for i := 1; i < len(path); i++ {
		dt := opts.effectiveDuration(timings[i])
		if !robot.IsTransitionFeasible(path[i-1], path[i], dt) {
			return NewUnreachableLayerError(i, i-1, dt)
		}
	}
	return nil
}

// String returns a human-readable version of the path, suitable for debugging.
func (path JointPath) String() string {
	var sb strings.Builder
	for i, step := range path {
		sb.WriteString(fmt.Sprintf("\n%d:", i))
		for _, v := range step {
			sb.WriteString(fmt.Sprintf(" %.4f", v))
		}
	}
	return sb.String()
}

// sumDurations returns the total seconds allowed between waypoints `from` and `to` of durations.
func sumDurations(durations []float64, from, to int) float64 {
	total := 0.
	for k := from + 1; k <= to; k++ {
		if math.IsInf(durations[k], 1) {
			return math.Inf(1)
		}
		total += durations[k]
	}
	return total
}
