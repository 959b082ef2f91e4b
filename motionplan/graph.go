package motionplan

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/clarkli86/descartes/logging"
	"github.com/clarkli86/descartes/motionplan/ik"
	"github.com/clarkli86/descartes/referenceframe"
)

// layerSpec is one waypoint as seen by the graph builder.
type layerSpec struct {
	// index of the waypoint in the full trajectory.
	index int
	// seconds allowed to reach this layer from the previous one.
	dt        float64
	solutions [][]referenceframe.Input
}

type graphNode struct {
	joints []referenceframe.Input
}

// graphEdge connects slot `from` of the previous layer to slot `to` of the layer holding it.
type graphEdge struct {
	from, to int
	cost     float64
}

type graphLayer struct {
	index int
	dt    float64
	nodes []graphNode
	// incoming edges grouped by target slot, each group ordered by source slot.
	edges []graphEdge
}

// planningGraph stores nodes keyed by (layer, slot) and edges keyed by (layer, from, to). Only
// adjacent layers are connected.
type planningGraph struct {
	layers []graphLayer
}

// solutionsFor returns the IK solutions of the point at index, failing if there are none.
func solutionsFor(robot RobotModel, point TrajectoryPoint, index int) ([][]referenceframe.Input, error) {
	sols, err := point.JointSolutions(robot)
	if err != nil {
		return nil, errors.Wrapf(err, "solving IK for waypoint %d", index)
	}
	if len(sols) == 0 {
		return nil, NewIKError(index)
	}
	return sols, nil
}

// buildGraph connects every pair of solutions of adjacent layers the robot can move between in
// the target layer's duration. It fails at the first layer left with no incoming edge.
func buildGraph(
	ctx context.Context,
	logger logging.Logger,
	robot RobotModel,
	specs []layerSpec,
	metric ik.SegmentMetric,
) (*planningGraph, error) {
	_, span := trace.StartSpan(ctx, "descartes::buildGraph")
	defer span.End()

	g := &planningGraph{layers: make([]graphLayer, 0, len(specs))}
	for i, spec := range specs {
		if len(spec.solutions) == 0 {
			return nil, NewIKError(spec.index)
		}
		layer := graphLayer{index: spec.index, dt: spec.dt, nodes: make([]graphNode, 0, len(spec.solutions))}
		for _, sol := range spec.solutions {
			layer.nodes = append(layer.nodes, graphNode{joints: sol})
		}

		if i > 0 {
			prev := &g.layers[i-1]
			for to, toNode := range layer.nodes {
				for from, fromNode := range prev.nodes {
					if !robot.IsTransitionFeasible(fromNode.joints, toNode.joints, spec.dt) {
						continue
					}
					cost := metric(newSegment(fromNode.joints, toNode.joints))
					layer.edges = append(layer.edges, graphEdge{from: from, to: to, cost: cost})
				}
			}
			if len(layer.edges) == 0 {
				return nil, NewUnreachableLayerError(spec.index, prev.index, spec.dt)
			}
			logger.Debugf("waypoint %d: %d solutions, %d edges from waypoint %d", spec.index, len(layer.nodes), len(layer.edges), prev.index)
		}
		g.layers = append(g.layers, layer)
	}
	return g, nil
}

// edgeCount returns the total number of edges in the graph.
func (g *planningGraph) edgeCount() int {
	n := 0
	for _, layer := range g.layers {
		n += len(layer.edges)
	}
	return n
}

// joints returns the configurations of the given slots, one per layer.
func (g *planningGraph) joints(slots []int) [][]referenceframe.Input {
	out := make([][]referenceframe.Input, len(slots))
	for i, slot := range slots {
		out[i] = g.layers[i].nodes[slot].joints
	}
	return out
}
