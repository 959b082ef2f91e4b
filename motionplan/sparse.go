package motionplan

import (
	"context"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"

	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/referenceframe"
	"github.com/clarkli86/descartes/spatialmath"
)

// SparsePlanner searches a graph over a subset of the waypoints, the anchors, and fills the
// waypoints between anchors by following the joint-space line between their solutions. A span
// that cannot be filled that way is replanned densely between its two anchors.
type SparsePlanner struct {
	*plannerBase
}

// NewSparsePlanner returns an uninitialized sparse planner.
func NewSparsePlanner(logger logging.Logger) *SparsePlanner {
	sp := &SparsePlanner{}
	sp.plannerBase = newPlannerBase("sparse", logger, sp.solveSparse)
	return sp
}

func (sp *SparsePlanner) solveSparse(ctx context.Context, points []TrajectoryPoint) ([][]referenceframe.Input, error) {
	sols := make([][][]referenceframe.Input, len(points))
	durations := make([]float64, len(points))
	for i, pt := range points {
		s, err := solutionsFor(sp.robot, pt, i)
		if err != nil {
			return nil, err
		}
		sols[i] = s
		durations[i] = sp.opts.effectiveDuration(pt.Timing())
	}

	anchors := sp.sampleAnchors(ctx, points)
	anchorJoints, anchors, err := sp.planAnchors(ctx, sols, durations, anchors)
	if err != nil {
		return nil, sp.firstUnreachable(ctx, sols, durations, err)
	}

	out := make([][]referenceframe.Input, len(points))
	for k, a := range anchors {
		out[a] = anchorJoints[k]
	}
	for k := 1; k < len(anchors); k++ {
		a, b := anchors[k-1], anchors[k]
		if b-a < 2 {
			continue
		}
		interpErr := sp.interpolateSpan(out, sols, durations, a, b)
		if interpErr == nil {
			continue
		}
		sp.logger.CDebugw(ctx, "interpolation failed, replanning span", "from", a, "to", b, "error", interpErr)
		if rerr := sp.localReplan(ctx, out, sols, durations, a, b); rerr != nil {
			index, ok := FailedIndex(rerr)
			if !ok {
				index = b
			}
			return nil, NewLocalReplanError(index, multierr.Combine(interpErr, rerr))
		}
	}
	return out, nil
}

// planAnchors searches the anchor graph. When an anchor is unreachable from the previous one,
// every waypoint between the two becomes an anchor and the search is retried. The failure it
// returns names an offending anchor, not necessarily the first unreachable waypoint.
func (sp *SparsePlanner) planAnchors(
	ctx context.Context,
	sols [][][]referenceframe.Input,
	durations []float64,
	anchors []int,
) ([][]referenceframe.Input, []int, error) {
	metric := sp.opts.segmentMetric()
	for {
		specs := make([]layerSpec, len(anchors))
		for k, a := range anchors {
			dt := durations[a]
			if k > 0 {
				dt = sumDurations(durations, anchors[k-1], a)
			}
			specs[k] = layerSpec{index: a, dt: dt, solutions: sols[a]}
		}

		g, err := buildGraph(ctx, sp.logger, sp.robot, specs, metric)
		var path *graphPath
		if err == nil {
			path, err = g.shortestPath(ctx)
		}
		if err == nil {
			sp.logger.CDebugw(ctx, "anchor graph searched", "anchors", len(anchors), "edges", g.edgeCount(), "cost", path.cost)
			return g.joints(path.slots), anchors, nil
		}

		var layerErr *UnreachableLayerError
		if !errors.As(err, &layerErr) || layerErr.Index-layerErr.From < 2 {
			return nil, nil, err
		}
		sp.logger.CDebugf(ctx, "densifying anchors between waypoints %d and %d", layerErr.From, layerErr.Index)
		anchors = densify(anchors, layerErr.From, layerErr.Index)
	}
}

// firstUnreachable narrows a failed anchor search down to the first waypoint that no path through
// every waypoint can reach, searching only up to the failed anchor. The anchor error is returned
// when that search succeeds.
func (sp *SparsePlanner) firstUnreachable(
	ctx context.Context,
	sols [][][]referenceframe.Input,
	durations []float64,
	anchorErr error,
) error {
	var layerErr *UnreachableLayerError
	if !errors.As(anchorErr, &layerErr) {
		return anchorErr
	}
	specs := make([]layerSpec, 0, layerErr.Index+1)
	for k := 0; k <= layerErr.Index; k++ {
		specs = append(specs, layerSpec{index: k, dt: durations[k], solutions: sols[k]})
	}
	g, err := buildGraph(ctx, sp.logger, sp.robot, specs, sp.opts.segmentMetric())
	if err == nil {
		_, err = g.shortestPath(ctx)
	}
	if err == nil {
		return anchorErr
	}
	return err
}

// densify returns anchors with every index strictly between from and to added.
func densify(anchors []int, from, to int) []int {
	out := make([]int, 0, len(anchors)+to-from-1)
	for _, a := range anchors {
		out = append(out, a)
		if a == from {
			for k := from + 1; k < to; k++ {
				out = append(out, k)
			}
		}
	}
	return out
}

// interpolateSpan fills the waypoints strictly between anchors a and b. Each waypoint takes the
// solution closest to the interpolated configuration that is reachable from the previous
// waypoint, and the last one must also reach b.
func (sp *SparsePlanner) interpolateSpan(
	out [][]referenceframe.Input,
	sols [][][]referenceframe.Input,
	durations []float64,
	a, b int,
) error {
	metric := sp.opts.segmentMetric()
	total := sumDurations(durations, a, b)
	timed := !math.IsInf(total, 1) && total > 0

	prev := out[a]
	for k := a + 1; k < b; k++ {
		t := float64(k-a) / float64(b-a)
		if timed {
			t = sumDurations(durations, a, k) / total
		}
		target := referenceframe.InterpolateInputs(out[a], out[b], t)

		order := make([]int, len(sols[k]))
		dist := make([]float64, len(sols[k]))
		for i, sol := range sols[k] {
			order[i] = i
			dist[i] = metric(newSegment(target, sol))
		}
		sort.SliceStable(order, func(i, j int) bool { return dist[order[i]] < dist[order[j]] })

		chosen := -1
		for _, i := range order {
			if !sp.robot.IsTransitionFeasible(prev, sols[k][i], durations[k]) {
				continue
			}
			if k == b-1 && !sp.robot.IsTransitionFeasible(sols[k][i], out[b], durations[b]) {
				continue
			}
			chosen = i
			break
		}
		if chosen < 0 {
			return NewUnreachableLayerError(k, k-1, durations[k])
		}
		out[k] = sols[k][chosen]
		prev = out[k]
	}
	return nil
}

// localReplan runs a dense search over waypoints a through b with both ends pinned to the
// anchor solutions already chosen.
func (sp *SparsePlanner) localReplan(
	ctx context.Context,
	out [][]referenceframe.Input,
	sols [][][]referenceframe.Input,
	durations []float64,
	a, b int,
) error {
	ctx, span := trace.StartSpan(ctx, "descartes::localReplan")
	defer span.End()

	specs := make([]layerSpec, 0, b-a+1)
	specs = append(specs, layerSpec{index: a, dt: durations[a], solutions: [][]referenceframe.Input{out[a]}})
	for k := a + 1; k < b; k++ {
		specs = append(specs, layerSpec{index: k, dt: durations[k], solutions: sols[k]})
	}
	specs = append(specs, layerSpec{index: b, dt: durations[b], solutions: [][]referenceframe.Input{out[b]}})

	g, err := buildGraph(ctx, sp.logger, sp.robot, specs, sp.opts.segmentMetric())
	if err != nil {
		return err
	}
	path, err := g.shortestPath(ctx)
	if err != nil {
		return err
	}
	copy(out[a+1:b], g.joints(path.slots)[1:b-a])
	return nil
}

// sampleAnchors returns the ascending waypoint indices the anchor graph is built over. The first
// and last waypoints are always anchors.
func (sp *SparsePlanner) sampleAnchors(ctx context.Context, points []TrajectoryPoint) []int {
	if sp.opts.SamplingPolicy == AdaptiveSampling {
		anchors, err := adaptiveAnchors(sp.robot, points, sp.opts.SampleStride*adaptiveSpanMultiple, sp.opts.MaxCartesianDeviation)
		if err == nil {
			return anchors
		}
		sp.logger.CDebugw(ctx, "adaptive sampling unavailable, using stride", "error", err)
	}
	return strideAnchors(len(points), sp.opts.SampleStride)
}

func strideAnchors(n, stride int) []int {
	anchors := make([]int, 0, n/stride+2)
	for i := 0; i < n; i += stride {
		anchors = append(anchors, i)
	}
	if anchors[len(anchors)-1] != n-1 {
		anchors = append(anchors, n-1)
	}
	return anchors
}

// adaptiveAnchors grows each span from the last anchor for as long as every skipped waypoint
// stays within maxDeviation of the straight line between the span's ends, up to maxSpan
// waypoints.
func adaptiveAnchors(robot RobotModel, points []TrajectoryPoint, maxSpan int, maxDeviation float64) ([]int, error) {
	positions := make([]r3.Vector, len(points))
	for i, pt := range points {
		pose, err := pt.NominalPose(robot)
		if err != nil {
			return nil, errors.Wrapf(err, "waypoint %d", i)
		}
		positions[i] = pose.Point()
	}

	anchors := []int{0}
	for start := 0; start < len(points)-1; {
		end := start + 1
		for next := end + 1; next < len(points) && next-start <= maxSpan; next++ {
			if !withinDeviation(positions, start, next, maxDeviation) {
				break
			}
			end = next
		}
		anchors = append(anchors, end)
		start = end
	}
	return anchors, nil
}

func withinDeviation(positions []r3.Vector, start, end int, maxDeviation float64) bool {
	for k := start + 1; k < end; k++ {
		if spatialmath.DistToLineSegment(positions[start], positions[end], positions[k]) > maxDeviation {
			return false
		}
	}
	return true
}
