// package main plans a trajectory read from a json request and prints the joint path
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/clarkli86/descartes/kinematics/cartesian"
	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/motionplan"
	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

// prismaticJoints are the joints of the cartesian robot measured in meters.
var prismaticJoints = []int{0, 1, 2}

type robotRequest struct {
	PosRange       float64   `json:"pos_range"`
	OrientRange    float64   `json:"orient_range"`
	VelocityLimits []float64 `json:"velocity_limits"`
	Branches       int       `json:"branches"`
}

type pointRequest struct {
	Position    r3.Vector                `json:"position"`
	Orientation *spatialmath.EulerAngles `json:"orientation,omitempty"`
	DT          float64                  `json:"dt"`
	AxialStep   float64                  `json:"axial_step,omitempty"`
}

type linearRequest struct {
	Start   r3.Vector `json:"start"`
	End     r3.Vector `json:"end"`
	Speed   float64   `json:"speed"`
	Samples int       `json:"samples"`
}

// planRequest is the json document the tool reads.
type planRequest struct {
	Robot   robotRequest           `json:"robot"`
	Planner string                 `json:"planner"`
	Options map[string]interface{} `json:"options,omitempty"`
	Points  []pointRequest         `json:"points,omitempty"`
	Linear  *linearRequest         `json:"linear,omitempty"`
}

func main() {
	err := realMain()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain() error {
	ctx := context.Background()
	logger := logging.NewLogger("cmd-plan")
	logging.RegisterLogger("cmd-plan", logger)
	//nolint:errcheck
	defer logger.Sync()

	verbose := flag.Bool("v", false, "verbose")
	asProto := flag.Bool("proto", false, "also print every step as arm JointPositions json")
	plannerName := flag.String("planner", "", "override the planner named in the request (dense or sparse)")
	printSchema := flag.Bool("schema", false, "print the json schema of a plan request and exit")

	flag.Parse()
	if *printSchema {
		schema, err := requestSchema()
		if err != nil {
			return err
		}
		fmt.Println(schema)
		return nil
	}
	if len(flag.Args()) == 0 {
		return errors.New("need a json file")
	}

	if *verbose {
		if err := logging.UpdateLoggerLevel("cmd-plan", logging.DEBUG); err != nil {
			return err
		}
	}

	logger.Infof("reading plan from %s", flag.Arg(0))
	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		return err
	}
	req, err := parseRequest(content)
	if err != nil {
		return err
	}
	if *plannerName != "" {
		req.Planner = *plannerName
	}

	robot, planner, points, err := setup(logger, req)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := planner.PlanPath(ctx, points); err != nil {
		return errors.Wrapf(err, "planning failed (%s)", motionplan.CodeOf(err))
	}
	path, err := planner.Path()
	if err != nil {
		return err
	}

	mylog := log.New(os.Stdout, "", 0)
	mylog.Printf("planning took %v", time.Since(start))
	mylog.Println(renderPath(robot, path))
	mylog.Printf("total cost: %0.4f", planner.Cost())
	summary, err := timingSummary(robot, path)
	if err != nil {
		return err
	}
	mylog.Println(summary)

	if *asProto {
		lines, err := jointPositionsJSON(path)
		if err != nil {
			return err
		}
		for _, line := range lines {
			mylog.Println(line)
		}
	}
	return nil
}

func parseRequest(content []byte) (*planRequest, error) {
	req := &planRequest{}
	if err := json.Unmarshal(content, req); err != nil {
		return nil, errors.Wrap(err, "malformed plan request")
	}
	if len(req.Points) > 0 && req.Linear != nil {
		return nil, errors.New("a plan request takes either points or linear, not both")
	}
	return req, nil
}

// setup builds and initializes the robot and planner of the request, and its waypoints.
func setup(logger logging.Logger, req *planRequest) (*cartesian.Robot, motionplan.PathPlanner, []motionplan.TrajectoryPoint, error) {
	robot, err := cartesian.NewRobot(
		req.Robot.PosRange,
		req.Robot.OrientRange,
		req.Robot.VelocityLimits,
		cartesian.WithRedundantBranches(req.Robot.Branches),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	var planner motionplan.PathPlanner
	switch req.Planner {
	case "", "dense":
		planner = motionplan.NewDensePlanner(logger)
	case "sparse":
		planner = motionplan.NewSparsePlanner(logger)
	default:
		return nil, nil, nil, errors.Errorf("unknown planner %q", req.Planner)
	}

	if req.Options != nil {
		opts, err := motionplan.NewPlannerOptionsFromExtra(req.Options)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := planner.SetConfig(opts); err != nil {
			return nil, nil, nil, err
		}
	}
	if err := planner.Initialize(robot); err != nil {
		return nil, nil, nil, err
	}

	points, err := requestPoints(req)
	if err != nil {
		return nil, nil, nil, err
	}
	return robot, planner, points, nil
}

func requestPoints(req *planRequest) ([]motionplan.TrajectoryPoint, error) {
	if req.Linear != nil {
		return motionplan.MakeConstantVelocityTrajectory(req.Linear.Start, req.Linear.End, req.Linear.Speed, req.Linear.Samples)
	}

	points := make([]motionplan.TrajectoryPoint, 0, len(req.Points))
	for i, p := range req.Points {
		pose := spatialmath.NewPose(p.Position, p.Orientation)
		timing := motionplan.NewTimingConstraint(p.DT)
		if p.AxialStep > 0 {
			pt, err := motionplan.NewAxialSymmetricPoint(pose, p.AxialStep, timing)
			if err != nil {
				return nil, errors.Wrapf(err, "point %d", i)
			}
			points = append(points, pt)
			continue
		}
		points = append(points, motionplan.NewCartesianPoint(pose, timing))
	}
	return points, nil
}

// renderPath prints one row per waypoint with its joints and the time the robot needs to reach it.
func renderPath(robot *cartesian.Robot, path []motionplan.TrajectoryPoint) string {
	joints, err := motionplan.JointPathFromTrajectory(path)
	if err != nil {
		return err.Error()
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "X", "Y", "Z", "Roll", "Pitch", "Yaw", "Allowed", "Needed"})
	for i, step := range joints {
		needed := 0.
		if i > 0 {
			needed, err = robot.MinTransitionTime(joints[i-1], step)
			if err != nil {
				return err.Error()
			}
		}
		row := table.Row{fmt.Sprintf("%d", i)}
		row = append(row, lo.Map(step, func(v referenceframe.Input, _ int) interface{} {
			return fmt.Sprintf("%.4f", v)
		})...)
		row = append(row, path[i].Timing().String(), fmt.Sprintf("%.4fs", needed))
		t.AppendRow(row)
	}
	return t.Render()
}

// timingSummary reports how much of the allowed time each segment of the path needs.
func timingSummary(robot *cartesian.Robot, path []motionplan.TrajectoryPoint) (string, error) {
	joints, err := motionplan.JointPathFromTrajectory(path)
	if err != nil {
		return "", err
	}
	if len(joints) < 2 {
		return "no segments", nil
	}
	needed := make([]float64, 0, len(joints)-1)
	for i := 1; i < len(joints); i++ {
		minTime, err := robot.MinTransitionTime(joints[i-1], joints[i])
		if err != nil {
			return "", err
		}
		needed = append(needed, minTime)
	}
	mean, err := stats.Mean(needed)
	if err != nil {
		return "", err
	}
	longest, err := stats.Max(needed)
	if err != nil {
		return "", err
	}
	total, err := stats.Sum(needed)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("segment time needed: mean %.4fs, max %.4fs, total %.4fs", mean, longest, total), nil
}

func requestSchema() (string, error) {
	data, err := json.MarshalIndent(jsonschema.Reflect(&planRequest{}), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func jointPositionsJSON(path []motionplan.TrajectoryPoint) ([]string, error) {
	joints, err := motionplan.JointPathFromTrajectory(path)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(joints))
	for _, step := range joints {
		jp, err := referenceframe.JointPositionsFromInputs(step, prismaticJoints...)
		if err != nil {
			return nil, err
		}
		data, err := protojson.Marshal(jp)
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(data))
	}
	return lines, nil
}
