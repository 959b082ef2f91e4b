// Package ik contains the joint-space metrics used to score transitions between IK solutions.
package ik

import (
	"math"

	"github.com/clarkli86/descartes/referenceframe"
)

// Segment contains the information a metric needs to score a movement between two joint
// configurations.
type Segment struct {
	StartConfiguration []referenceframe.Input
	EndConfiguration   []referenceframe.Input
}

// SegmentMetric are functions which produce some score given a Segment. Lower is better.
// This is used to weigh the edges between IK solutions of adjacent waypoints.
type SegmentMetric func(*Segment) float64

// JointMetric is a metric which will sum the absolute differences in each input from start to end.
func JointMetric(segment *Segment) float64 {
	if len(segment.StartConfiguration) != len(segment.EndConfiguration) {
		return math.Inf(1)
	}
	jScore := 0.
	for i, f := range segment.StartConfiguration {
		jScore += math.Abs(f - segment.EndConfiguration[i])
	}
	return jScore
}

// L2InputMetric is a metric which will return a L2 norm of the StartConfiguration and EndConfiguration.
func L2InputMetric(segment *Segment) float64 {
	return referenceframe.InputsL2Distance(segment.StartConfiguration, segment.EndConfiguration)
}

// LinfInputMetric returns the largest single joint displacement of the segment. With uniform
// velocity limits this is proportional to the minimum time the move takes.
func LinfInputMetric(segment *Segment) float64 {
	return referenceframe.InputsLinfDistance(segment.StartConfiguration, segment.EndConfiguration)
}

// NewWeightedL2Metric returns an L2 metric with each joint displacement scaled by its weight.
// Joints beyond the end of weights are scaled by 1.
func NewWeightedL2Metric(weights []float64) SegmentMetric {
	return func(segment *Segment) float64 {
		if len(segment.StartConfiguration) != len(segment.EndConfiguration) {
			return math.Inf(1)
		}
		sum := 0.
		for i, f := range segment.StartConfiguration {
			w := 1.
			if i < len(weights) {
				w = weights[i]
			}
			d := w * (f - segment.EndConfiguration[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}
