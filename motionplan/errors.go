package motionplan

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a planner is used before Initialize succeeded.
	ErrNotInitialized = errors.New("planner has not been initialized with a robot model")

	// ErrNoSolution is returned by Path when the last PlanPath call did not succeed.
	ErrNoSolution = errors.New("no planned path is available")

	// ErrInvalidInput is wrapped by errors about malformed waypoints or options.
	ErrInvalidInput = errors.New("invalid planning input")

	// ErrPointNotFound is wrapped when a path edit references an unknown waypoint ID.
	ErrPointNotFound = errors.New("trajectory point not found")
)

// IKError is returned when a waypoint has no IK solution.
type IKError struct {
	Index int
}

// NewIKError returns an error for the waypoint at index having no IK solution.
func NewIKError(index int) error {
	return &IKError{Index: index}
}

func (e *IKError) Error() string {
	return fmt.Sprintf("unable to solve for position of waypoint %d", e.Index)
}

// UnreachableLayerError is returned when no IK solution of a waypoint can be reached from any
// reachable solution of the previous planned waypoint within the allowed duration.
type UnreachableLayerError struct {
	Index    int
	From     int
	Duration float64
}

// NewUnreachableLayerError returns an error for the waypoint at index being unreachable from the
// waypoint at from within duration seconds.
func NewUnreachableLayerError(index, from int, duration float64) error {
	return &UnreachableLayerError{Index: index, From: from, Duration: duration}
}

func (e *UnreachableLayerError) Error() string {
	return fmt.Sprintf("waypoint %d is unreachable from waypoint %d within %.4fs given joint velocity limits",
		e.Index, e.From, e.Duration)
}

// LocalReplanError is returned by the sparse planner when the dense fallback between two anchors
// still cannot resolve a waypoint.
type LocalReplanError struct {
	Index int
	Err   error
}

// NewLocalReplanError returns an error for the dense fallback failing at the waypoint at index.
func NewLocalReplanError(index int, err error) error {
	return &LocalReplanError{Index: index, Err: err}
}

func (e *LocalReplanError) Error() string {
	return fmt.Sprintf("local replanning failed at waypoint %d: %v", e.Index, e.Err)
}

func (e *LocalReplanError) Unwrap() error {
	return e.Err
}

// ErrorCode classifies planning errors.
type ErrorCode int

// Planning error codes.
const (
	CodeOK ErrorCode = iota
	CodeNotInitialized
	CodeInvalidInput
	CodeIKFailure
	CodeUnreachableLayer
	CodeNoSolution
	CodeLocalReplanFailure
	CodeUnknown
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotInitialized:
		return "not initialized"
	case CodeInvalidInput:
		return "invalid input"
	case CodeIKFailure:
		return "ik failure"
	case CodeUnreachableLayer:
		return "unreachable layer"
	case CodeNoSolution:
		return "no solution"
	case CodeLocalReplanFailure:
		return "local replan failure"
	default:
		return "unknown"
	}
}

// CodeOf returns the ErrorCode of err. A nil error is CodeOK. A LocalReplanError takes
// precedence over the errors it wraps.
func CodeOf(err error) ErrorCode {
	var (
		ikErr     *IKError
		layerErr  *UnreachableLayerError
		replanErr *LocalReplanError
	)
	switch {
	case err == nil:
		return CodeOK
	case errors.As(err, &replanErr):
		return CodeLocalReplanFailure
	case errors.Is(err, ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, ErrNoSolution):
		return CodeNoSolution
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPointNotFound):
		return CodeInvalidInput
	case errors.As(err, &ikErr):
		return CodeIKFailure
	case errors.As(err, &layerErr):
		return CodeUnreachableLayer
	default:
		return CodeUnknown
	}
}

// FailedIndex returns the waypoint index err is attributed to, if any.
func FailedIndex(err error) (int, bool) {
	var (
		ikErr     *IKError
		layerErr  *UnreachableLayerError
		replanErr *LocalReplanError
	)
	switch {
	case errors.As(err, &replanErr):
		return replanErr.Index, true
	case errors.As(err, &ikErr):
		return ikErr.Index, true
	case errors.As(err, &layerErr):
		return layerErr.Index, true
	default:
		return 0, false
	}
}
