package motionplan

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/referenceframe"
)

// PathPlanner chooses one joint configuration per waypoint of a trajectory. A PathPlanner is not
// safe for concurrent use.
type PathPlanner interface {
	// Initialize binds the robot model. It must succeed before planning.
	Initialize(robot RobotModel) error
	// PlanPath plans a joint path through every point. An empty input plans an empty path.
	PlanPath(ctx context.Context, points []TrajectoryPoint) error
	// Path returns the last successfully planned path, one JointPoint per input point.
	Path() ([]TrajectoryPoint, error)

	// AddAfter inserts point after the waypoint with ID ref and replans.
	AddAfter(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error
	// AddBefore inserts point before the waypoint with ID ref and replans.
	AddBefore(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error
	// Modify replaces the waypoint with ID ref and replans.
	Modify(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error
	// Remove deletes the waypoint with ID ref and replans.
	Remove(ctx context.Context, ref uuid.UUID) error

	State() PlannerState
	Err() error
	Cost() float64
	Config() PlannerOptions
	SetConfig(opts *PlannerOptions) error
}

// PlannerState is the lifecycle stage of a planner.
type PlannerState int

// The planner lifecycle: Uninitialized -> Initialized -> (Planned | PlanningFailed). Any
// initialized planner may be asked to plan again.
const (
	Uninitialized PlannerState = iota
	Initialized
	Planned
	PlanningFailed
)

func (s PlannerState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Planned:
		return "planned"
	case PlanningFailed:
		return "planning failed"
	default:
		return fmt.Sprintf("PlannerState(%d)", int(s))
	}
}

// solveFunc plans joints for a non-empty sequence of validated points.
type solveFunc func(ctx context.Context, points []TrajectoryPoint) ([][]referenceframe.Input, error)

// plannerBase holds the state machine and path bookkeeping shared by every strategy.
type plannerBase struct {
	name   string
	logger logging.Logger
	opts   *PlannerOptions
	robot  RobotModel
	solve  solveFunc

	state    PlannerState
	hasInput bool
	input    []TrajectoryPoint
	timings  []TimingConstraint
	solution [][]referenceframe.Input
	cost     float64
	err      error
}

func newPlannerBase(name string, logger logging.Logger, solve solveFunc) *plannerBase {
	if logger == nil {
		logger = logging.NewBlankLogger(name)
	} else {
		logger = logger.Sublogger(name)
	}
	return &plannerBase{
		name:   name,
		logger: logger,
		opts:   NewBasicPlannerOptions(),
		solve:  solve,
	}
}

func sameRobot(a, b RobotModel) bool {
	if a == nil || b == nil {
		return false
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

func (pb *plannerBase) Initialize(robot RobotModel) error {
	if robot == nil || (reflect.ValueOf(robot).Kind() == reflect.Ptr && reflect.ValueOf(robot).IsNil()) {
		return errors.New("robot model cannot be nil")
	}
	if pb.state != Uninitialized && sameRobot(pb.robot, robot) {
		return nil
	}
	if err := robot.Initialize(); err != nil {
		return errors.Wrap(err, "failed to initialize robot model")
	}
	dof := robot.DoF()
	if dof <= 0 {
		return referenceframe.NewZeroDoFError("robot model")
	}
	limits := robot.JointVelocityLimits()
	if len(limits) != dof {
		return errors.Wrap(referenceframe.NewIncorrectDoFError(len(limits), dof), "joint velocity limits")
	}
	for i, v := range limits {
		if !(v > 0) {
			return errors.Errorf("joint %d velocity limit must be positive, got %v", i, v)
		}
	}

	pb.robot = robot
	pb.state = Initialized
	pb.hasInput = false
	pb.input = nil
	pb.clearSolution()
	pb.logger.Debugf("initialized with a %d DoF robot model", dof)
	return nil
}

func (pb *plannerBase) clearSolution() {
	pb.timings = nil
	pb.solution = nil
	pb.cost = 0
	pb.err = nil
}

func (pb *plannerBase) PlanPath(ctx context.Context, points []TrajectoryPoint) error {
	if pb.state == Uninitialized {
		return ErrNotInitialized
	}
	pb.input = append([]TrajectoryPoint(nil), points...)
	pb.hasInput = true
	return pb.replan(ctx)
}

// replan plans the stored input from scratch.
func (pb *plannerBase) replan(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "descartes::PlanPath")
	defer span.End()

	pb.clearSolution()
	timings := make([]TimingConstraint, len(pb.input))
	for i, pt := range pb.input {
		if pt == nil {
			return pb.fail(errors.Wrapf(ErrInvalidInput, "waypoint %d is nil", i))
		}
		timings[i] = pt.Timing()
		if err := timings[i].Validate(); err != nil {
			return pb.fail(errors.Wrapf(ErrInvalidInput, "waypoint %d: %v", i, err))
		}
	}

	if len(pb.input) == 0 {
		pb.state = Planned
		return nil
	}

	start := time.Now()
	pb.logger.CDebugw(ctx, "planning path", "waypoints", len(pb.input))
	solution, err := pb.solve(ctx, pb.input)
	if err != nil {
		return pb.fail(err)
	}

	pb.timings = timings
	pb.solution = solution
	pb.cost = pathCost(solution, pb.opts)
	pb.state = Planned
	pb.logger.Infow("planned path", "waypoints", len(pb.input), "cost", pb.cost, "duration", time.Since(start).String())
	return nil
}

func (pb *plannerBase) fail(err error) error {
	pb.clearSolution()
	pb.err = err
	pb.state = PlanningFailed
	if index, ok := FailedIndex(err); ok {
		pb.logger.Warnw("planning failed", "code", CodeOf(err).String(), "waypoint", index, "error", err)
	} else {
		pb.logger.Warnw("planning failed", "code", CodeOf(err).String(), "error", err)
	}
	return err
}

func (pb *plannerBase) Path() ([]TrajectoryPoint, error) {
	if pb.state != Planned {
		return nil, ErrNoSolution
	}
	out := make([]TrajectoryPoint, len(pb.input))
	for i, pt := range pb.input {
		out[i] = newJointPointWithID(pt.ID(), pb.solution[i], pb.timings[i])
	}
	return out, nil
}

func (pb *plannerBase) indexOf(ref uuid.UUID) (int, error) {
	if pb.state == Uninitialized {
		return 0, ErrNotInitialized
	}
	if !pb.hasInput {
		return 0, errors.Wrap(ErrNoSolution, "no path has been planned to edit")
	}
	for i, pt := range pb.input {
		if pt != nil && pt.ID() == ref {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrPointNotFound, "id %s", ref)
}

func (pb *plannerBase) insertAt(ctx context.Context, at int, point TrajectoryPoint) error {
	if point == nil {
		return errors.Wrap(ErrInvalidInput, "cannot insert a nil point")
	}
	edited := make([]TrajectoryPoint, 0, len(pb.input)+1)
	edited = append(edited, pb.input[:at]...)
	edited = append(edited, point)
	edited = append(edited, pb.input[at:]...)
	pb.input = edited
	return pb.replan(ctx)
}

func (pb *plannerBase) AddAfter(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error {
	i, err := pb.indexOf(ref)
	if err != nil {
		return err
	}
	return pb.insertAt(ctx, i+1, point)
}

func (pb *plannerBase) AddBefore(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error {
	i, err := pb.indexOf(ref)
	if err != nil {
		return err
	}
	return pb.insertAt(ctx, i, point)
}

// Modify replaces the referenced waypoint. The replacement is stored as given; its own ID is
// what later edits must use.
func (pb *plannerBase) Modify(ctx context.Context, ref uuid.UUID, point TrajectoryPoint) error {
	i, err := pb.indexOf(ref)
	if err != nil {
		return err
	}
	if point == nil {
		return errors.Wrap(ErrInvalidInput, "cannot replace a point with nil")
	}
	edited := append([]TrajectoryPoint(nil), pb.input...)
	edited[i] = point
	pb.input = edited
	return pb.replan(ctx)
}

func (pb *plannerBase) Remove(ctx context.Context, ref uuid.UUID) error {
	i, err := pb.indexOf(ref)
	if err != nil {
		return err
	}
	edited := make([]TrajectoryPoint, 0, len(pb.input)-1)
	edited = append(edited, pb.input[:i]...)
	edited = append(edited, pb.input[i+1:]...)
	pb.input = edited
	return pb.replan(ctx)
}

func (pb *plannerBase) State() PlannerState {
	return pb.state
}

// Err returns the error of the last planning attempt, nil if it succeeded.
func (pb *plannerBase) Err() error {
	return pb.err
}

// Cost returns the joint-space cost of the last planned path.
func (pb *plannerBase) Cost() float64 {
	return pb.cost
}

func (pb *plannerBase) Config() PlannerOptions {
	return *pb.opts.clone()
}

func (pb *plannerBase) SetConfig(opts *PlannerOptions) error {
	if opts == nil {
		return errors.Wrap(ErrInvalidInput, "planner options cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	pb.opts = opts.clone()
	return nil
}

// pathCost sums the configured metric over consecutive configurations.
func pathCost(solution [][]referenceframe.Input, opts *PlannerOptions) float64 {
	total := JointPath(solution).Evaluate(opts.segmentMetric())
	if math.IsNaN(total) {
		return math.Inf(1)
	}
	return total
}
