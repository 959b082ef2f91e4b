package motionplan

import (
	"context"
	"math"

	"go.opencensus.io/trace"
)

// graphPath is the winning slot of every layer and the summed edge cost.
type graphPath struct {
	slots []int
	cost  float64
}

// shortestPath sweeps the layers left to right keeping, for every node, the cheapest cost of
// reaching it from any node of the first layer. Ties keep the earliest predecessor and the
// earliest final node so the result is deterministic.
func (g *planningGraph) shortestPath(ctx context.Context) (*graphPath, error) {
	_, span := trace.StartSpan(ctx, "descartes::shortestPath")
	defer span.End()

	if len(g.layers) == 0 {
		return &graphPath{}, nil
	}

	costs := make([][]float64, len(g.layers))
	parents := make([][]int, len(g.layers))
	for i, layer := range g.layers {
		costs[i] = make([]float64, len(layer.nodes))
		parents[i] = make([]int, len(layer.nodes))
		for slot := range layer.nodes {
			costs[i][slot] = math.Inf(1)
			parents[i][slot] = -1
		}
	}
	for slot := range costs[0] {
		costs[0][slot] = 0
	}

	for i := 1; i < len(g.layers); i++ {
		reachable := false
		for _, e := range g.layers[i].edges {
			prevCost := costs[i-1][e.from]
			if math.IsInf(prevCost, 1) {
				continue
			}
			if c := prevCost + e.cost; c < costs[i][e.to] {
				costs[i][e.to] = c
				parents[i][e.to] = e.from
				reachable = true
			}
		}
		if !reachable {
			return nil, NewUnreachableLayerError(g.layers[i].index, g.layers[i-1].index, g.layers[i].dt)
		}
	}

	last := len(g.layers) - 1
	best := -1
	for slot, c := range costs[last] {
		if math.IsInf(c, 1) {
			continue
		}
		if best < 0 || c < costs[last][best] {
			best = slot
		}
	}

	path := &graphPath{slots: make([]int, len(g.layers)), cost: costs[last][best]}
	for i, slot := last, best; i >= 0; i-- {
		path.slots[i] = slot
		slot = parents[i][slot]
	}
	return path, nil
}
