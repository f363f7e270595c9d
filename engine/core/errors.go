package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTargetSize  = errors.New("compute target dimensions must be >= 1")
	ErrFrameOrder         = errors.New("frame commands issued out of order")
	ErrNotInitialized     = errors.New("pipeline not initialized")
	ErrPipelineTerminated = errors.New("pipeline terminated")
)

// SetupError reports a failure while bringing the pipeline up. It is always
// fatal: the pipeline goes straight to teardown.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// DegenerateCameraError is returned instead of a frustum whose rays would
// contain NaN or Inf.
type DegenerateCameraError struct {
	Reason string
}

func (e *DegenerateCameraError) Error() string {
	return "degenerate camera: " + e.Reason
}

// InvalidWorkGroupSizeError means the compute program reported a
// non-positive local size, usually because it never linked.
type InvalidWorkGroupSizeError struct {
	X, Y int32
}

func (e *InvalidWorkGroupSizeError) Error() string {
	return fmt.Sprintf("invalid work group size (%d, %d)", e.X, e.Y)
}

// ResourceTeardownError is logged, never propagated.
type ResourceTeardownError struct {
	Handle string
	Err    error
}

func (e *ResourceTeardownError) Error() string {
	return fmt.Sprintf("failed to release %s: %v", e.Handle, e.Err)
}

func (e *ResourceTeardownError) Unwrap() error {
	return e.Err
}
