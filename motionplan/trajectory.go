package motionplan

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

// TrajectoryPoint is one waypoint of a trajectory. Its position in the input sequence is its
// identity for planning; ID is used to address it when editing a planned path.
type TrajectoryPoint interface {
	ID() uuid.UUID
	Timing() TimingConstraint
	SetTiming(TimingConstraint)

	// JointSolutions returns every joint configuration of the robot that satisfies the point.
	JointSolutions(robot RobotModel) ([][]referenceframe.Input, error)

	// NominalPose returns the Cartesian pose the point describes.
	NominalPose(robot RobotModel) (spatialmath.Pose, error)
}

type pointBase struct {
	id     uuid.UUID
	timing TimingConstraint
}

func newPointBase(timing TimingConstraint) pointBase {
	return pointBase{id: uuid.New(), timing: timing}
}

func (p *pointBase) ID() uuid.UUID {
	return p.id
}

func (p *pointBase) Timing() TimingConstraint {
	return p.timing
}

func (p *pointBase) SetTiming(timing TimingConstraint) {
	p.timing = timing
}

// CartesianPoint is a fully specified tool pose.
type CartesianPoint struct {
	pointBase
	pose spatialmath.Pose
}

// NewCartesianPoint returns a waypoint at the given pose.
func NewCartesianPoint(pose spatialmath.Pose, timing TimingConstraint) *CartesianPoint {
	return &CartesianPoint{pointBase: newPointBase(timing), pose: pose}
}

// Pose returns the tool pose of the point.
func (p *CartesianPoint) Pose() spatialmath.Pose {
	return p.pose
}

// JointSolutions returns every IK solution of the pose.
func (p *CartesianPoint) JointSolutions(robot RobotModel) ([][]referenceframe.Input, error) {
	return robot.SolveIK(p.pose)
}

// NominalPose returns the tool pose of the point.
func (p *CartesianPoint) NominalPose(robot RobotModel) (spatialmath.Pose, error) {
	return p.pose, nil
}

func (p *CartesianPoint) String() string {
	pt := p.pose.Point()
	return fmt.Sprintf("cartesian(%.4f, %.4f, %.4f) %v", pt.X, pt.Y, pt.Z, p.timing)
}

// AxialSymmetricPoint is a tool pose whose rotation about the tool z axis is free, e.g. a
// spindle or a round nozzle. The free axis is sampled every Step radians.
type AxialSymmetricPoint struct {
	pointBase
	pose spatialmath.Pose
	step float64
}

// NewAxialSymmetricPoint returns a waypoint at the given pose, free about its z axis.
func NewAxialSymmetricPoint(pose spatialmath.Pose, step float64, timing TimingConstraint) (*AxialSymmetricPoint, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, errors.Errorf("axial discretization step must be a positive finite angle, got %v", step)
	}
	return &AxialSymmetricPoint{pointBase: newPointBase(timing), pose: pose, step: step}, nil
}

// JointSolutions returns the union of the IK solutions of every sampled rotation, in sample order.
func (p *AxialSymmetricPoint) JointSolutions(robot RobotModel) ([][]referenceframe.Input, error) {
	var all [][]referenceframe.Input
	for _, pose := range p.samples() {
		sols, err := robot.SolveIK(pose)
		if err != nil {
			return nil, err
		}
		all = append(all, sols...)
	}
	return all, nil
}

func (p *AxialSymmetricPoint) samples() []spatialmath.Pose {
	n := int(math.Ceil(2*math.Pi/p.step - 1e-9))
	base := p.pose.Orientation()
	poses := make([]spatialmath.Pose, 0, n)
	for i := 0; i < n; i++ {
		o := *base
		o.Yaw += float64(i) * p.step
		poses = append(poses, spatialmath.NewPose(p.pose.Point(), &o))
	}
	return poses
}

// NominalPose returns the pose with its unrotated orientation.
func (p *AxialSymmetricPoint) NominalPose(robot RobotModel) (spatialmath.Pose, error) {
	return p.pose, nil
}

// JointPoint is a fixed joint configuration. Planned paths are returned as JointPoints.
type JointPoint struct {
	pointBase
	joints []referenceframe.Input
}

// NewJointPoint returns a waypoint at the given joint configuration.
func NewJointPoint(joints []referenceframe.Input, timing TimingConstraint) *JointPoint {
	return &JointPoint{pointBase: newPointBase(timing), joints: referenceframe.CopyInputs(joints)}
}

func newJointPointWithID(id uuid.UUID, joints []referenceframe.Input, timing TimingConstraint) *JointPoint {
	return &JointPoint{pointBase: pointBase{id: id, timing: timing}, joints: referenceframe.CopyInputs(joints)}
}

// Joints returns a copy of the joint configuration.
func (p *JointPoint) Joints() []referenceframe.Input {
	return referenceframe.CopyInputs(p.joints)
}

// JointSolutions returns the configuration itself if the robot accepts it.
func (p *JointPoint) JointSolutions(robot RobotModel) ([][]referenceframe.Input, error) {
	if len(p.joints) != robot.DoF() {
		return nil, referenceframe.NewIncorrectDoFError(len(p.joints), robot.DoF())
	}
	if !robot.IsValid(p.joints) {
		return nil, nil
	}
	return [][]referenceframe.Input{referenceframe.CopyInputs(p.joints)}, nil
}

// NominalPose returns the forward kinematics of the configuration.
func (p *JointPoint) NominalPose(robot RobotModel) (spatialmath.Pose, error) {
	return robot.FK(p.joints)
}

func (p *JointPoint) String() string {
	return fmt.Sprintf("joints%v %v", p.joints, p.timing)
}
