// Package estimator adapts an external body-pose-estimation capability into
// the internal pose representation. The capability itself is an injected
// interface so the sequence builder and tests run against deterministic
// fakes instead of a live model.
package estimator

import (
	"context"
	"fmt"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/sampler"
)

// Keypoint is one landmark as reported by the capability, in its normalized
// coordinate space: origin bottom-left, both axes in [0,1].
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64
}

// Observation is the raw output of one capability invocation: the reported
// landmarks keyed by joint name plus a whole-pose confidence. Landmarks
// outside the tracked vocabulary may be present; the adapter drops them.
type Observation struct {
	Points     map[pose.JointName]Keypoint
	Confidence float64
}

// Capability is the external pose-estimation model boundary. One frame in,
// zero or one observation out: a nil observation with a nil error means the
// model found no body in the frame. Implementations may be slow and may
// fail; callers treat both as per-frame conditions.
type Capability interface {
	EstimatePose(ctx context.Context, frame sampler.Frame) (*Observation, error)
}

// RequestError wraps a failed capability invocation. The sequence builder
// recovers from it by skipping the frame; it is never fatal on its own.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("pose estimation request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
