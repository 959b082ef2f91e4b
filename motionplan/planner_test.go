package motionplan

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.viam.com/test"

	"github.com/clarkli86/descartes/kinematics/cartesian"
	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

type plannerConstructor func(logger logging.Logger) PathPlanner

var plannerConstructors = []struct {
	name string
	new  plannerConstructor
}{
	{"dense", func(logger logging.Logger) PathPlanner { return NewDensePlanner(logger) }},
	{"sparse", func(logger logging.Logger) PathPlanner { return NewSparsePlanner(logger) }},
}

func newCartesianRobot(t *testing.T, opts ...cartesian.Option) *cartesian.Robot {
	t.Helper()
	robot, err := cartesian.NewRobot(5.0, 0.001, []float64{1, 1, 1, 1, 1, 1}, opts...)
	test.That(t, err, test.ShouldBeNil)
	return robot
}

// linearTrajectory is 10 points from x=-1 to x=1 at 0.9 m/s, about 0.2469s apart.
func linearTrajectory(t *testing.T) []TrajectoryPoint {
	t.Helper()
	points, err := MakeConstantVelocityTrajectory(r3.Vector{X: -1}, r3.Vector{X: 1}, 0.9, 10)
	test.That(t, err, test.ShouldBeNil)
	return points
}

func newInitializedPlanner(t *testing.T, ctor plannerConstructor, robot RobotModel) PathPlanner {
	t.Helper()
	planner := ctor(logging.NewTestLogger(t))
	test.That(t, planner.Initialize(robot), test.ShouldBeNil)
	return planner
}

func pathJoints(t *testing.T, planner PathPlanner) JointPath {
	t.Helper()
	path, err := planner.Path()
	test.That(t, err, test.ShouldBeNil)
	joints, err := JointPathFromTrajectory(path)
	test.That(t, err, test.ShouldBeNil)
	return joints
}

func TestPlannerConstruction(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := pc.new(logging.NewTestLogger(t))
			test.That(t, planner.State(), test.ShouldEqual, Uninitialized)

			err := planner.PlanPath(context.Background(), linearTrajectory(t))
			test.That(t, errors.Is(err, ErrNotInitialized), test.ShouldBeTrue)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeNotInitialized)

			_, err = planner.Path()
			test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

			test.That(t, planner.Initialize(nil), test.ShouldNotBeNil)
			var nilRobot *cartesian.Robot
			test.That(t, planner.Initialize(nilRobot), test.ShouldNotBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Uninitialized)

			test.That(t, planner.Initialize(newCartesianRobot(t)), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Initialized)
		})
	}
}

func TestInitializeRejectsBadRobots(t *testing.T) {
	stalled, err := cartesian.NewRobot(5.0, 0.001, []float64{1, 1, 0, 1, 1, 1})
	test.That(t, err, test.ShouldBeNil)

	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := pc.new(logging.NewTestLogger(t))
			test.That(t, planner.Initialize(stalled), test.ShouldNotBeNil)
			test.That(t, planner.Initialize(&tableRobot{}), test.ShouldNotBeNil)
			test.That(t, planner.Initialize(&tableRobot{dof: 1, velocity: []float64{1, 1}}), test.ShouldNotBeNil)
			test.That(t, planner.Initialize(&tableRobot{dof: 1, velocity: []float64{-1}}), test.ShouldNotBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Uninitialized)
		})
	}
}

func TestLinearTrajectory(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)

			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Planned)
			test.That(t, planner.Err(), test.ShouldBeNil)

			path, err := planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(path), test.ShouldEqual, len(points))
			for i, pt := range path {
				test.That(t, pt.ID(), test.ShouldEqual, points[i].ID())
				test.That(t, pt.Timing(), test.ShouldResemble, points[i].Timing())

				jp, ok := pt.(*JointPoint)
				test.That(t, ok, test.ShouldBeTrue)
				joints := jp.Joints()
				test.That(t, len(joints), test.ShouldEqual, cartesian.DoF)
				test.That(t, joints[0], test.ShouldAlmostEqual, -1+2*float64(i)/9)
				test.That(t, joints[5], test.ShouldEqual, 0.)
			}
			test.That(t, planner.Cost(), test.ShouldAlmostEqual, 2.0)
		})
	}
}

func TestPlanningPreservesTiming(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			for _, pt := range points {
				tc := pt.Timing()
				if tc.IsSpecified() {
					pt.SetTiming(NewTimingConstraint(2 * tc.Upper))
				}
			}
			points[4].SetTiming(Unconstrained())

			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
			path, err := planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(path), test.ShouldEqual, len(points))
			for i, pt := range path {
				test.That(t, pt.Timing(), test.ShouldResemble, points[i].Timing())
			}
			test.That(t, path[4].Timing().IsSpecified(), test.ShouldBeFalse)
			test.That(t, path[3].Timing().Upper, test.ShouldAlmostEqual, 2*2./9/0.9)

			for i, joints := range pathJoints(t, planner) {
				test.That(t, joints[0], test.ShouldAlmostEqual, -1+2*float64(i)/9)
			}
		})
	}
}

func TestVelocityViolationIsReported(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			points[3].SetTiming(NewTimingConstraint(0.001))

			err := planner.PlanPath(context.Background(), points)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeUnreachableLayer)
			index, ok := FailedIndex(err)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, index, test.ShouldEqual, 3)

			test.That(t, planner.State(), test.ShouldEqual, PlanningFailed)
			test.That(t, planner.Err(), test.ShouldEqual, err)
			_, err = planner.Path()
			test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

			// planning again with a feasible timing recovers
			points[3].SetTiming(NewTimingConstraint(0.5))
			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Planned)
		})
	}
}

func TestMonotoneInfeasibility(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			for _, dt := range []float64{0.2, 0.1, 0.01, 0.001} {
				points[3].SetTiming(NewTimingConstraint(dt))
				err := planner.PlanPath(context.Background(), points)
				test.That(t, err, test.ShouldNotBeNil)
				index, _ := FailedIndex(err)
				test.That(t, index, test.ShouldEqual, 3)
			}

			// dropping the constraint altogether relaxes the problem
			points[3].SetTiming(Unconstrained())
			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
		})
	}
}

func TestDefaultMaxDuration(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			for _, pt := range points {
				pt.SetTiming(Unconstrained())
			}
			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)

			opts := planner.Config()
			opts.DefaultMaxDuration = 0.1
			test.That(t, planner.SetConfig(&opts), test.ShouldBeNil)
			err := planner.PlanPath(context.Background(), points)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeUnreachableLayer)
			index, _ := FailedIndex(err)
			test.That(t, index, test.ShouldEqual, 1)
		})
	}
}

func TestDeterminism(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			robot := newCartesianRobot(t, cartesian.WithRedundantBranches(1))
			points := linearTrajectory(t)

			first := newInitializedPlanner(t, pc.new, robot)
			test.That(t, first.PlanPath(context.Background(), points), test.ShouldBeNil)
			second := newInitializedPlanner(t, pc.new, robot)
			test.That(t, second.PlanPath(context.Background(), points), test.ShouldBeNil)

			test.That(t, pathJoints(t, first), test.ShouldResemble, pathJoints(t, second))
			test.That(t, first.Cost(), test.ShouldEqual, second.Cost())

			test.That(t, first.PlanPath(context.Background(), points), test.ShouldBeNil)
			test.That(t, pathJoints(t, first), test.ShouldResemble, pathJoints(t, second))
		})
	}
}

func TestRedundantBranchesTieBreak(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t, cartesian.WithRedundantBranches(1)))
			test.That(t, planner.PlanPath(context.Background(), linearTrajectory(t)), test.ShouldBeNil)

			// every branch has the same cost, the first IK solution wins
			for _, joints := range pathJoints(t, planner) {
				test.That(t, joints[5], test.ShouldEqual, 0.)
			}
		})
	}
}

func TestEmptyAndSinglePoint(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t, cartesian.WithRedundantBranches(1)))

			test.That(t, planner.PlanPath(context.Background(), nil), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Planned)
			path, err := planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, path, test.ShouldBeEmpty)
			test.That(t, planner.Cost(), test.ShouldEqual, 0.)

			single := []TrajectoryPoint{NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{Y: 1}), Unconstrained())}
			test.That(t, planner.PlanPath(context.Background(), single), test.ShouldBeNil)
			joints := pathJoints(t, planner)
			test.That(t, joints, test.ShouldResemble, JointPath{{0, 1, 0, 0, 0, 0}})
		})
	}
}

func TestUnreachablePose(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			points[4] = NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{X: 6}), Unconstrained())

			err := planner.PlanPath(context.Background(), points)
			var ikErr *IKError
			test.That(t, errors.As(err, &ikErr), test.ShouldBeTrue)
			test.That(t, ikErr.Index, test.ShouldEqual, 4)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeIKFailure)
		})
	}
}

func TestInvalidPoints(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)

			withNil := append([]TrajectoryPoint{}, points...)
			withNil[2] = nil
			err := planner.PlanPath(context.Background(), withNil)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeInvalidInput)

			points[1].SetTiming(NewTimingConstraintRange(0.5, 0.1))
			err = planner.PlanPath(context.Background(), points)
			test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
			test.That(t, planner.State(), test.ShouldEqual, PlanningFailed)

			wrongDoF := []TrajectoryPoint{NewJointPoint([]referenceframe.Input{0, 0}, Unconstrained())}
			err = planner.PlanPath(context.Background(), wrongDoF)
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}

func TestInputIsNotMutated(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)
			ids := make([]uuid.UUID, len(points))
			timings := make([]TimingConstraint, len(points))
			for i, pt := range points {
				ids[i] = pt.ID()
				timings[i] = pt.Timing()
			}

			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
			points[3].SetTiming(NewTimingConstraint(0.001))
			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldNotBeNil)

			for i, pt := range points {
				test.That(t, pt.ID(), test.ShouldEqual, ids[i])
				if i != 3 {
					test.That(t, pt.Timing(), test.ShouldResemble, timings[i])
				}
			}
		})
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			robot := newCartesianRobot(t)
			planner := newInitializedPlanner(t, pc.new, robot)
			test.That(t, planner.PlanPath(context.Background(), linearTrajectory(t)), test.ShouldBeNil)

			test.That(t, planner.Initialize(robot), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Planned)

			test.That(t, planner.Initialize(newCartesianRobot(t)), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Initialized)
			_, err := planner.Path()
			test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)
		})
	}
}

func TestPlannerConfig(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			test.That(t, planner.Config().ConfigurationDistanceMetric, test.ShouldEqual, L2Metric)

			test.That(t, planner.SetConfig(nil), test.ShouldNotBeNil)
			bad := NewBasicPlannerOptions()
			bad.SampleStride = 1
			test.That(t, planner.SetConfig(bad), test.ShouldNotBeNil)

			opts := NewBasicPlannerOptions()
			opts.ConfigurationDistanceMetric = LinfMetric
			test.That(t, planner.SetConfig(opts), test.ShouldBeNil)
			opts.ConfigurationDistanceMetric = L1Metric
			test.That(t, planner.Config().ConfigurationDistanceMetric, test.ShouldEqual, LinfMetric)

			test.That(t, planner.PlanPath(context.Background(), linearTrajectory(t)), test.ShouldBeNil)
			test.That(t, planner.Cost(), test.ShouldAlmostEqual, 2.0)
		})
	}
}

func TestPathEditing(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			ctx := context.Background()
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := linearTrajectory(t)

			err := planner.Remove(ctx, points[0].ID())
			test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

			test.That(t, planner.PlanPath(ctx, points), test.ShouldBeNil)

			inserted := NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{X: -0.5}), NewTimingConstraint(0.25))
			test.That(t, planner.AddAfter(ctx, points[2].ID(), inserted), test.ShouldBeNil)
			path, err := planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(path), test.ShouldEqual, 11)
			test.That(t, path[3].ID(), test.ShouldEqual, inserted.ID())
			test.That(t, path[3].(*JointPoint).Joints()[0], test.ShouldAlmostEqual, -0.5)

			before := NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{X: -1.1}), Unconstrained())
			test.That(t, planner.AddBefore(ctx, points[0].ID(), before), test.ShouldBeNil)
			path, err = planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(path), test.ShouldEqual, 12)
			test.That(t, path[0].ID(), test.ShouldEqual, before.ID())

			test.That(t, planner.Remove(ctx, inserted.ID()), test.ShouldBeNil)
			test.That(t, planner.Remove(ctx, before.ID()), test.ShouldBeNil)
			path, err = planner.Path()
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(path), test.ShouldEqual, 10)
			for i, pt := range path {
				test.That(t, pt.ID(), test.ShouldEqual, points[i].ID())
			}

			// a replacement too far from its neighbors fails to plan but is kept
			far := NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{X: 4}), points[5].Timing())
			err = planner.Modify(ctx, points[5].ID(), far)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeUnreachableLayer)
			test.That(t, planner.State(), test.ShouldEqual, PlanningFailed)

			err = planner.Modify(ctx, points[5].ID(), points[5])
			test.That(t, errors.Is(err, ErrPointNotFound), test.ShouldBeTrue)
			test.That(t, planner.Modify(ctx, far.ID(), points[5]), test.ShouldBeNil)
			test.That(t, planner.State(), test.ShouldEqual, Planned)

			err = planner.Remove(ctx, uuid.New())
			test.That(t, errors.Is(err, ErrPointNotFound), test.ShouldBeTrue)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeInvalidInput)
			test.That(t, planner.AddAfter(ctx, points[0].ID(), nil), test.ShouldNotBeNil)
		})
	}
}

func TestJointPointWaypoints(t *testing.T) {
	for _, pc := range plannerConstructors {
		t.Run(pc.name, func(t *testing.T) {
			planner := newInitializedPlanner(t, pc.new, newCartesianRobot(t))
			points := []TrajectoryPoint{
				NewJointPoint([]referenceframe.Input{0, 0, 0, 0, 0, 0}, Unconstrained()),
				NewCartesianPoint(spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5}), NewTimingConstraint(1)),
				NewJointPoint([]referenceframe.Input{1, 0, 0, 0, 0, 0}, NewTimingConstraint(1)),
			}
			test.That(t, planner.PlanPath(context.Background(), points), test.ShouldBeNil)
			test.That(t, pathJoints(t, planner), test.ShouldResemble, JointPath{
				{0, 0, 0, 0, 0, 0},
				{0.5, 0, 0, 0, 0, 0},
				{1, 0, 0, 0, 0, 0},
			})

			points[2] = NewJointPoint([]referenceframe.Input{1, 0, 0, 0, 0, math.Pi}, NewTimingConstraint(1))
			err := planner.PlanPath(context.Background(), points)
			test.That(t, CodeOf(err), test.ShouldEqual, CodeIKFailure)
		})
	}
}
