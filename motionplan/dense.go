package motionplan

import (
	"context"

	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/referenceframe"
)

// DensePlanner searches a graph holding every IK solution of every waypoint. It finds the
// minimum cost path whenever one exists.
type DensePlanner struct {
	*plannerBase
}

// NewDensePlanner returns an uninitialized dense planner.
func NewDensePlanner(logger logging.Logger) *DensePlanner {
	dp := &DensePlanner{}
	dp.plannerBase = newPlannerBase("dense", logger, dp.solveDense)
	return dp
}

func (dp *DensePlanner) solveDense(ctx context.Context, points []TrajectoryPoint) ([][]referenceframe.Input, error) {
	specs := make([]layerSpec, len(points))
	for i, pt := range points {
		sols, err := solutionsFor(dp.robot, pt, i)
		if err != nil {
			return nil, err
		}
		specs[i] = layerSpec{index: i, dt: dp.opts.effectiveDuration(pt.Timing()), solutions: sols}
	}

	g, err := buildGraph(ctx, dp.logger, dp.robot, specs, dp.opts.segmentMetric())
	if err != nil {
		return nil, err
	}
	path, err := g.shortestPath(ctx)
	if err != nil {
		return nil, err
	}
	dp.logger.CDebugw(ctx, "dense graph searched", "layers", len(g.layers), "edges", g.edgeCount(), "cost", path.cost)
	return g.joints(path.slots), nil
}
