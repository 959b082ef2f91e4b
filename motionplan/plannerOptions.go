package motionplan

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/clarkli86/descartes/motionplan/ik"
	"github.com/clarkli86/descartes/utils"
)

// default values for planning options.
const (
	// Sparse planner: plan every this many waypoints, the rest are interpolated.
	defaultSampleStride = 5

	// Sparse planner, adaptive policy: a skipped waypoint may deviate this far (m) from the line
	// between its anchors.
	defaultMaxCartesianDeviation = 0.01

	// Sparse planner, adaptive policy: segments are at most this many strides long.
	adaptiveSpanMultiple = 4

	// Seconds allowed for an unconstrained segment. 0 means unbounded.
	defaultMaxDuration = 0.

	// Environment variable overriding the default sample stride.
	sampleStrideEnvVar = "DESCARTES_SPARSE_STRIDE"
)

var defaultStride = defaultSampleStride

func init() {
	defaultStride = utils.GetenvInt(sampleStrideEnvVar, defaultSampleStride)
}

// SegmentMetricType names the joint-space distance used to weigh graph edges.
type SegmentMetricType string

// The supported segment metrics.
const (
	L2Metric         SegmentMetricType = "l2"
	L1Metric         SegmentMetricType = "l1"
	LinfMetric       SegmentMetricType = "linf"
	WeightedL2Metric SegmentMetricType = "weighted_l2"
)

// SamplingPolicy names how the sparse planner picks the waypoints it plans over.
type SamplingPolicy string

// The supported sampling policies.
const (
	StrideSampling   SamplingPolicy = "stride"
	AdaptiveSampling SamplingPolicy = "adaptive"
)

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	opt := &PlannerOptions{}
	opt.ConfigurationDistanceMetric = L2Metric
	opt.DefaultMaxDuration = defaultMaxDuration

	opt.SamplingPolicy = StrideSampling
	opt.SampleStride = defaultStride
	opt.MaxCartesianDeviation = defaultMaxCartesianDeviation

	return opt
}

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve a
// trajectory planning problem.
type PlannerOptions struct {
	// Determines how the cost of moving between two joint configurations is measured.
	ConfigurationDistanceMetric SegmentMetricType `json:"configuration_distance_metric"`

	// Per joint scale factors for the weighted_l2 metric.
	JointWeights []float64 `json:"joint_weights,omitempty"`

	// Seconds an unconstrained waypoint may take to reach. 0 leaves it unbounded.
	DefaultMaxDuration float64 `json:"default_max_duration"`

	// How the sparse planner picks the waypoints it searches over.
	SamplingPolicy SamplingPolicy `json:"sampling_policy"`

	// Sparse planner: plan every this many waypoints. The adaptive policy uses it to bound segment length.
	SampleStride int `json:"sample_stride"`

	// Sparse planner, adaptive policy: max distance (m) of a skipped waypoint from the line between its anchors.
	MaxCartesianDeviation float64 `json:"max_cartesian_deviation"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opt); err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	return opt, nil
}

// Validate returns an error describing the first invalid option.
func (p *PlannerOptions) Validate() error {
	switch p.ConfigurationDistanceMetric {
	case L2Metric, L1Metric, LinfMetric:
	case WeightedL2Metric:
		for i, w := range p.JointWeights {
			if w < 0 || math.IsNaN(w) {
				return errors.Wrapf(ErrInvalidInput, "joint weight %d must be non-negative, got %v", i, w)
			}
		}
	default:
		return errors.Wrapf(ErrInvalidInput, "unknown configuration_distance_metric %q", p.ConfigurationDistanceMetric)
	}
	if p.DefaultMaxDuration < 0 || math.IsNaN(p.DefaultMaxDuration) {
		return errors.Wrapf(ErrInvalidInput, "default_max_duration can't be negative, got %v", p.DefaultMaxDuration)
	}
	switch p.SamplingPolicy {
	case StrideSampling, AdaptiveSampling:
	default:
		return errors.Wrapf(ErrInvalidInput, "unknown sampling_policy %q", p.SamplingPolicy)
	}
	if p.SampleStride < 2 {
		return errors.Wrapf(ErrInvalidInput, "sample_stride must be at least 2, got %d", p.SampleStride)
	}
	if p.SamplingPolicy == AdaptiveSampling && !(p.MaxCartesianDeviation > 0) {
		return errors.Wrapf(ErrInvalidInput, "max_cartesian_deviation must be positive, got %v", p.MaxCartesianDeviation)
	}
	return nil
}

func (p *PlannerOptions) clone() *PlannerOptions {
	cp := *p
	if p.JointWeights != nil {
		cp.JointWeights = append([]float64(nil), p.JointWeights...)
	}
	return &cp
}

// segmentMetric returns the edge weight function the options select.
func (p *PlannerOptions) segmentMetric() ik.SegmentMetric {
	switch p.ConfigurationDistanceMetric {
	case L1Metric:
		return ik.JointMetric
	case LinfMetric:
		return ik.LinfInputMetric
	case WeightedL2Metric:
		return ik.NewWeightedL2Metric(p.JointWeights)
	default:
		return ik.L2InputMetric
	}
}

// effectiveDuration returns the seconds allowed to reach a waypoint with the given timing.
func (p *PlannerOptions) effectiveDuration(tc TimingConstraint) float64 {
	if tc.IsSpecified() {
		return tc.Upper
	}
	if p.DefaultMaxDuration > 0 {
		return p.DefaultMaxDuration
	}
	return math.Inf(1)
}
