package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/sampler"
)

// ErrInvalidPoseData is returned when capability output cannot be
// normalized into a pose estimate (non-finite or out-of-range values).
var ErrInvalidPoseData = errors.New("invalid pose data from estimator")

// Adapter drives a Capability for one frame at a time and normalizes its
// output into a PoseEstimate: joints at or below the acceptance floor
// become absent slots, and kept points are converted from the capability's
// normalized bottom-left-origin space into image-pixel space.
type Adapter struct {
	capability Capability
}

// NewAdapter returns an adapter over the given capability.
func NewAdapter(c Capability) *Adapter {
	return &Adapter{capability: c}
}

// EstimateFrame runs the capability on one frame. It returns (nil, nil)
// when no body was found, a *RequestError when the capability call failed,
// and ErrInvalidPoseData when the output could not be normalized.
//
// The returned estimate carries FrameIndex 0 and the current time as a
// placeholder timestamp; the sequence builder overwrites both.
func (a *Adapter) EstimateFrame(ctx context.Context, frame sampler.Frame) (*pose.PoseEstimate, error) {
	obs, err := a.capability.EstimatePose(ctx, frame)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if obs == nil {
		log.Debug().Int("frame", frame.Index).Msg("No body found in frame")
		return nil, nil
	}

	if !isFinite01(obs.Confidence) {
		return nil, fmt.Errorf("%w: overall confidence %v", ErrInvalidPoseData, obs.Confidence)
	}

	estimate := pose.New(obs.Confidence)
	for _, name := range pose.TrackedJoints {
		kp, ok := obs.Points[name]
		if !ok {
			continue
		}
		if !isFinite01(kp.Confidence) || !isFinite(kp.X) || !isFinite(kp.Y) {
			return nil, fmt.Errorf("%w: joint %s (%v, %v) confidence %v", ErrInvalidPoseData, name, kp.X, kp.Y, kp.Confidence)
		}
		// Acceptance floor: below-threshold joints become absent slots.
		if kp.Confidence <= pose.MinJointConfidence {
			continue
		}
		estimate.Joints[name] = pose.BodyJoint{
			Name:       name,
			Position:   toPixelSpace(kp, frame.Width, frame.Height),
			Confidence: kp.Confidence,
		}
	}

	log.Debug().
		Int("frame", frame.Index).
		Int("joints", len(estimate.Joints)).
		Float64("overall_confidence", estimate.OverallConfidence).
		Msg("Pose estimated")

	return estimate, nil
}

// toPixelSpace converts a normalized keypoint into image-pixel space. The
// vertical axis is flipped: the capability's origin is bottom-left while
// image raster order puts the origin top-left.
func toPixelSpace(kp Keypoint, width, height int) pose.Point {
	return pose.Point{
		X: kp.X * float64(width),
		Y: (1 - kp.Y) * float64(height),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinite01(v float64) bool {
	return isFinite(v) && v >= 0 && v <= 1
}
