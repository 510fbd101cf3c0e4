// Package quality scores how trustworthy and complete a single pose
// estimate is for a target exercise type. Scoring is pure computation: no
// I/O, no state, total over its domain.
package quality

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/liftlab/posecheck/internal/pose"
)

// Score weights. Completeness and confidence dominate; stability acts as a
// reliability proxy.
const (
	completenessWeight = 0.4
	confidenceWeight   = 0.4
	stabilityWeight    = 0.2
)

// Acceptability requires both a decent blended score and genuinely enough
// of the exercise's required joints; neither alone is sufficient.
const (
	minAcceptableOverall      = 0.6
	minAcceptableCompleteness = 0.7
)

// Level is the banded classification of an overall quality score.
type Level string

const (
	Excellent Level = "excellent"
	Good      Level = "good"
	Fair      Level = "fair"
	Poor      Level = "poor"
)

// Assessment is the scoring result for one pose against one exercise type.
type Assessment struct {
	OverallQuality    float64          `json:"overallQuality"`
	ConfidenceScore   float64          `json:"confidenceScore"`
	CompletenessScore float64          `json:"completenessScore"`
	StabilityScore    float64          `json:"stabilityScore"`
	MissingJoints     []pose.JointName `json:"missingJoints"`
	IsAcceptable      bool             `json:"isAcceptable"`
}

// Level bands the overall quality score.
func (a Assessment) Level() Level {
	switch {
	case a.OverallQuality >= 0.8:
		return Excellent
	case a.OverallQuality >= 0.6:
		return Good
	case a.OverallQuality >= 0.4:
		return Fair
	default:
		return Poor
	}
}

// Score assesses one pose estimate against an exercise's required joints.
//
// Completeness is the valid-joint count over the required-joint count,
// deliberately unclamped: a detector reporting more usable joints than the
// exercise requires pushes completeness past 1.0, and downstream consumers
// rely on that headroom surviving.
//
// Stability derives from the population variance of the valid joints'
// confidences; zero or one joints means zero variance and full stability.
// Degenerate inputs never error — a pose with nothing usable scores low,
// it doesn't fail.
func Score(p *pose.PoseEstimate, exercise pose.ExerciseType) Assessment {
	required := pose.RequiredJoints(exercise)
	detected := p.AllValidJoints()

	completeness := float64(len(detected)) / float64(len(required))

	confidences := make([]float64, len(detected))
	for i, j := range detected {
		confidences[i] = j.Confidence
	}

	var confidence float64
	if len(confidences) > 0 {
		confidence = stat.Mean(confidences, nil)
	}

	stability := 1 - math.Sqrt(popVariance(confidences, confidence))
	if stability < 0 {
		stability = 0
	}

	overall := completenessWeight*completeness + confidenceWeight*confidence + stabilityWeight*stability
	if overall > 1 {
		overall = 1
	}

	detectedNames := make(map[pose.JointName]bool, len(detected))
	for _, j := range detected {
		detectedNames[j.Name] = true
	}
	missing := make([]pose.JointName, 0, len(required))
	for _, name := range required {
		if !detectedNames[name] {
			missing = append(missing, name)
		}
	}

	return Assessment{
		OverallQuality:    overall,
		ConfidenceScore:   confidence,
		CompletenessScore: completeness,
		StabilityScore:    stability,
		MissingJoints:     missing,
		IsAcceptable:      overall >= minAcceptableOverall && completeness >= minAcceptableCompleteness,
	}
}

// popVariance is the population variance around the given mean. Defined as
// 0 for empty and single-element inputs rather than NaN, so degenerate
// poses keep full stability.
func popVariance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
