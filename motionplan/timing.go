package motionplan

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// TimingConstraint bounds the duration, in seconds, between a waypoint and the one before it.
// An Upper of +Inf means the waypoint is unconstrained.
type TimingConstraint struct {
	Lower float64
	Upper float64
}

// NewTimingConstraint returns a constraint allowing at most upper seconds. A non-positive upper
// means no duration was specified and returns an unconstrained timing.
func NewTimingConstraint(upper float64) TimingConstraint {
	if upper <= 0 {
		return Unconstrained()
	}
	return TimingConstraint{Upper: upper}
}

// NewTimingConstraintRange returns a constraint requiring a duration in [lower, upper].
func NewTimingConstraintRange(lower, upper float64) TimingConstraint {
	return TimingConstraint{Lower: lower, Upper: upper}
}

// Unconstrained returns a timing constraint with no upper bound.
func Unconstrained() TimingConstraint {
	return TimingConstraint{Upper: math.Inf(1)}
}

// IsSpecified returns whether the constraint has a finite upper bound.
func (tc TimingConstraint) IsSpecified() bool {
	return !math.IsInf(tc.Upper, 1)
}

// Validate returns an error if the bounds are malformed.
func (tc TimingConstraint) Validate() error {
	if math.IsNaN(tc.Lower) || math.IsNaN(tc.Upper) {
		return errors.New("timing constraint bounds cannot be NaN")
	}
	if tc.Lower < 0 {
		return errors.Errorf("timing constraint lower bound %.4f cannot be negative", tc.Lower)
	}
	if tc.Upper < tc.Lower {
		return errors.Errorf("timing constraint upper bound %.4f is less than lower bound %.4f", tc.Upper, tc.Lower)
	}
	return nil
}

func (tc TimingConstraint) String() string {
	if !tc.IsSpecified() {
		return fmt.Sprintf("[%.4fs, unconstrained]", tc.Lower)
	}
	return fmt.Sprintf("[%.4fs, %.4fs]", tc.Lower, tc.Upper)
}

type timingConstraintJSON struct {
	Lower float64  `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

// MarshalJSON omits the upper bound of an unconstrained timing since JSON cannot express +Inf.
func (tc TimingConstraint) MarshalJSON() ([]byte, error) {
	out := timingConstraintJSON{Lower: tc.Lower}
	if tc.IsSpecified() {
		upper := tc.Upper
		out.Upper = &upper
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats a missing upper bound as unconstrained. An explicit upper bound, zero
// included, is kept as given.
func (tc *TimingConstraint) UnmarshalJSON(data []byte) error {
	var in timingConstraintJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	tc.Lower = in.Lower
	tc.Upper = math.Inf(1)
	if in.Upper != nil {
		tc.Upper = *in.Upper
	}
	return nil
}
