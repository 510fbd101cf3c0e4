package quality

import (
	"github.com/liftlab/posecheck/internal/pose"
)

// Verdict is the sequence-level gate decision fed to downstream consumers:
// whether the video's detection quality is good enough to hand the pose
// sequence to the form-critique engine.
type Verdict string

const (
	// VerdictPass means the sequence is usable for form critique.
	VerdictPass Verdict = "pass"

	// VerdictInsufficient means the caller should ask for a clearer or
	// longer recording instead of critiquing this one.
	VerdictInsufficient Verdict = "insufficient"
)

// Gate thresholds. At least half the poses must individually be acceptable
// and the average blended score must clear the per-pose acceptability bar.
const (
	minAcceptableFraction = 0.5
	minMeanOverall        = minAcceptableOverall
)

// FrameAssessment pairs one pose's frame position with its assessment.
type FrameAssessment struct {
	FrameIndex int        `json:"frameIndex"`
	Assessment Assessment `json:"assessment"`
	Level      Level      `json:"level"`
}

// Report aggregates per-pose assessments over a whole sequence.
type Report struct {
	Exercise           pose.ExerciseType `json:"exercise"`
	SampledFrames      int               `json:"sampledFrames"`
	PoseCount          int               `json:"poseCount"`
	Density            float64           `json:"density"`
	MeanOverall        float64           `json:"meanOverall"`
	AcceptableFraction float64           `json:"acceptableFraction"`
	Verdict            Verdict           `json:"verdict"`
	Frames             []FrameAssessment `json:"frames"`
}

// BuildReport scores every pose in the sequence against the exercise and
// aggregates the results. sampledFrames is the total number of frames the
// sampler kept, used for sequence density; pass len(sequence) if sampling
// counts are unavailable.
func BuildReport(sequence []*pose.PoseEstimate, exercise pose.ExerciseType, sampledFrames int) *Report {
	report := &Report{
		Exercise:      exercise,
		SampledFrames: sampledFrames,
		PoseCount:     len(sequence),
		Frames:        make([]FrameAssessment, 0, len(sequence)),
	}

	var sumOverall float64
	var acceptable int
	for _, p := range sequence {
		a := Score(p, exercise)
		report.Frames = append(report.Frames, FrameAssessment{
			FrameIndex: p.FrameIndex,
			Assessment: a,
			Level:      a.Level(),
		})
		sumOverall += a.OverallQuality
		if a.IsAcceptable {
			acceptable++
		}
	}

	if len(sequence) > 0 {
		report.MeanOverall = sumOverall / float64(len(sequence))
		report.AcceptableFraction = float64(acceptable) / float64(len(sequence))
	}
	if sampledFrames > 0 {
		report.Density = float64(len(sequence)) / float64(sampledFrames)
	}

	report.Verdict = VerdictInsufficient
	if report.PoseCount > 0 &&
		report.AcceptableFraction >= minAcceptableFraction &&
		report.MeanOverall >= minMeanOverall {
		report.Verdict = VerdictPass
	}

	return report
}
