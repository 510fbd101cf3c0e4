// Package sequence drives pose estimation across a sampled frame list and
// assembles the ordered pose sequence.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/sampler"
)

// FrameEstimator estimates a pose for one frame. (nil, nil) means no body
// was found. estimator.Adapter is the production implementation; tests
// inject deterministic fakes.
type FrameEstimator interface {
	EstimateFrame(ctx context.Context, frame sampler.Frame) (*pose.PoseEstimate, error)
}

// InsufficientPosesError is the sequence-level fatal condition: the full
// frame list was attempted and no usable pose came out of it.
type InsufficientPosesError struct {
	Detected int
	Required int
}

func (e *InsufficientPosesError) Error() string {
	return fmt.Sprintf("insufficient valid poses: detected %d, required %d", e.Detected, e.Required)
}

// Options configures one build pass.
type Options struct {
	// Interval is the sampling interval used to derive per-frame
	// timestamps. Zero falls back to sampler.DefaultFrameInterval.
	Interval time.Duration

	// StartTime anchors the sequence's timestamps. Zero means time.Now()
	// at the start of the build.
	StartTime time.Time
}

// Build runs the estimator over every sampled frame in order and returns
// the ordered pose sequence.
//
// Per-frame failures — estimator errors and frames with no detectable
// body — are absorbed and logged, never fatal; video-derived estimation is
// lossy per frame and the contract is best effort across the sequence.
// Each successful estimate gets its frame index back-filled from the
// sampled position (gaps from dropped frames are preserved, not
// renumbered) and its timestamp set to start + index*interval.
//
// Build checks for cancellation between frames; a cancelled context aborts
// the remaining frames and returns ctx.Err(). If no frame yields a pose,
// Build fails with *InsufficientPosesError.
func Build(ctx context.Context, frames []sampler.Frame, est FrameEstimator, opts Options) ([]*pose.PoseEstimate, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = sampler.DefaultFrameInterval
	}
	start := opts.StartTime
	if start.IsZero() {
		start = time.Now()
	}

	log.Info().
		Int("frames", len(frames)).
		Dur("interval", interval).
		Msg("Building pose sequence")

	sequence := make([]*pose.PoseEstimate, 0, len(frames))
	var failed, empty int

	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		estimate, err := est.EstimateFrame(ctx, frame)
		if err != nil {
			failed++
			log.Warn().Err(err).Int("frame", frame.Index).Msg("Frame estimation failed, skipping")
			continue
		}
		if estimate == nil {
			empty++
			continue
		}

		estimate.FrameIndex = frame.Index
		estimate.Timestamp = start.Add(time.Duration(frame.Index) * interval)
		sequence = append(sequence, estimate)
	}

	log.Info().
		Int("poses", len(sequence)).
		Int("failed_frames", failed).
		Int("empty_frames", empty).
		Msg("Pose sequence complete")

	if len(sequence) == 0 {
		return nil, &InsufficientPosesError{Detected: 0, Required: 1}
	}
	return sequence, nil
}
