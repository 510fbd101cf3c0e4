package quality

import (
	"math"
	"reflect"
	"testing"

	"github.com/liftlab/posecheck/internal/pose"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

// poseWith builds an estimate with the given joints all at confidence c.
func poseWith(c float64, names ...pose.JointName) *pose.PoseEstimate {
	p := pose.New(0.9)
	for _, name := range names {
		p.Joints[name] = pose.BodyJoint{
			Name:       name,
			Position:   pose.Point{X: 100, Y: 100},
			Confidence: c,
		}
	}
	return p
}

func TestScoreZeroValidJoints(t *testing.T) {
	a := Score(pose.New(0.5), pose.Squat)

	if a.CompletenessScore != 0 {
		t.Errorf("completeness = %v, want 0", a.CompletenessScore)
	}
	if a.ConfidenceScore != 0 {
		t.Errorf("confidence = %v, want 0", a.ConfidenceScore)
	}
	if a.StabilityScore != 1 {
		t.Errorf("stability = %v, want 1 (degenerate variance is 0)", a.StabilityScore)
	}
	if !approx(a.OverallQuality, 0.2) {
		t.Errorf("overall = %v, want 0.2", a.OverallQuality)
	}
	if a.IsAcceptable {
		t.Error("empty pose must not be acceptable")
	}
	if !reflect.DeepEqual(a.MissingJoints, pose.RequiredJoints(pose.Squat)) {
		t.Errorf("missing joints = %v, want the full required set", a.MissingJoints)
	}
	if a.Level() != Poor {
		t.Errorf("level = %s, want poor", a.Level())
	}
}

func TestScoreAllRequiredUniformConfidence(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		wantOverall float64
		wantLevel   Level
		acceptable  bool
	}{
		{name: "perfect confidence", confidence: 1.0, wantOverall: 1.0, wantLevel: Excellent, acceptable: true},
		{name: "high confidence", confidence: 0.9, wantOverall: 0.96, wantLevel: Excellent, acceptable: true},
		{name: "moderate confidence", confidence: 0.6, wantOverall: 0.84, wantLevel: Excellent, acceptable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := poseWith(tt.confidence, pose.RequiredJoints(pose.Squat)...)
			a := Score(p, pose.Squat)

			if !approx(a.CompletenessScore, 1.0) {
				t.Errorf("completeness = %v, want 1.0", a.CompletenessScore)
			}
			if !approx(a.ConfidenceScore, tt.confidence) {
				t.Errorf("confidence = %v, want %v", a.ConfidenceScore, tt.confidence)
			}
			if !approx(a.StabilityScore, 1.0) {
				t.Errorf("stability = %v, want 1.0 (zero variance)", a.StabilityScore)
			}
			// overall = 0.4 + 0.4c + 0.2 = 0.6 + 0.4c
			if !approx(a.OverallQuality, tt.wantOverall) {
				t.Errorf("overall = %v, want %v", a.OverallQuality, tt.wantOverall)
			}
			if a.Level() != tt.wantLevel {
				t.Errorf("level = %s, want %s", a.Level(), tt.wantLevel)
			}
			if a.IsAcceptable != tt.acceptable {
				t.Errorf("acceptable = %v, want %v", a.IsAcceptable, tt.acceptable)
			}
			if len(a.MissingJoints) != 0 {
				t.Errorf("missing joints = %v, want none", a.MissingJoints)
			}
		})
	}
}

func TestScorePartialSquat(t *testing.T) {
	// Hips and knees only: 4 of squat's 9 required joints at 0.9 each.
	p := poseWith(0.9, pose.LeftHip, pose.RightHip, pose.LeftKnee, pose.RightKnee)
	a := Score(p, pose.Squat)

	if !approx(a.CompletenessScore, 4.0/9.0) {
		t.Errorf("completeness = %v, want %v", a.CompletenessScore, 4.0/9.0)
	}
	wantMissing := []pose.JointName{
		pose.LeftAnkle, pose.RightAnkle,
		pose.LeftShoulder, pose.RightShoulder,
		pose.Neck,
	}
	if !reflect.DeepEqual(a.MissingJoints, wantMissing) {
		t.Errorf("missing joints = %v, want %v", a.MissingJoints, wantMissing)
	}
	if a.IsAcceptable {
		t.Error("4/9 completeness is below the acceptability floor")
	}
}

func TestScoreCompletenessUnclamped(t *testing.T) {
	// All 14 joints valid against benchPress's 7 required: completeness 2.0.
	p := poseWith(0.9, pose.TrackedJoints...)
	a := Score(p, pose.BenchPress)

	if !approx(a.CompletenessScore, 2.0) {
		t.Errorf("completeness = %v, want 2.0 (unclamped)", a.CompletenessScore)
	}
	if a.OverallQuality != 1.0 {
		t.Errorf("overall = %v, want capped at 1.0", a.OverallQuality)
	}
	if !a.IsAcceptable {
		t.Error("surplus joints at high confidence must be acceptable")
	}
}

func TestScoreStabilityPenalizesSpread(t *testing.T) {
	p := pose.New(0.9)
	p.Joints[pose.LeftShoulder] = pose.BodyJoint{Name: pose.LeftShoulder, Confidence: 0.6}
	p.Joints[pose.RightShoulder] = pose.BodyJoint{Name: pose.RightShoulder, Confidence: 1.0}

	a := Score(p, pose.BenchPress)

	// mean 0.8, population variance 0.04, sqrt 0.2
	if !approx(a.ConfidenceScore, 0.8) {
		t.Errorf("confidence = %v, want 0.8", a.ConfidenceScore)
	}
	if !approx(a.StabilityScore, 0.8) {
		t.Errorf("stability = %v, want 0.8", a.StabilityScore)
	}
}

func TestScoreSingleJointFullStability(t *testing.T) {
	p := poseWith(0.7, pose.Neck)
	a := Score(p, pose.BenchPress)
	if a.StabilityScore != 1 {
		t.Errorf("stability = %v, want 1 for a single-joint pose", a.StabilityScore)
	}
}

func TestScoreIgnoresInvalidJoints(t *testing.T) {
	p := poseWith(0.9, pose.LeftHip, pose.RightHip)
	// Present but at or below the valid threshold: not counted.
	p.Joints[pose.Neck] = pose.BodyJoint{Name: pose.Neck, Confidence: 0.5}

	a := Score(p, pose.Squat)
	if !approx(a.CompletenessScore, 2.0/9.0) {
		t.Errorf("completeness = %v, want %v (0.5-confidence joint excluded)", a.CompletenessScore, 2.0/9.0)
	}
	found := false
	for _, name := range a.MissingJoints {
		if name == pose.Neck {
			found = true
		}
	}
	if !found {
		t.Error("neck at threshold confidence must count as missing")
	}
}

func TestScoreAcceptabilityNeedsBothConditions(t *testing.T) {
	// High overall but thin completeness: 5 of 9 squat joints at 1.0.
	p := poseWith(1.0, pose.LeftHip, pose.RightHip, pose.LeftKnee, pose.RightKnee, pose.Neck)
	a := Score(p, pose.Squat)
	if a.OverallQuality < minAcceptableOverall {
		t.Fatalf("test setup: overall %v should clear the overall floor", a.OverallQuality)
	}
	if a.IsAcceptable {
		t.Error("overall floor alone must not grant acceptability")
	}
}

func TestScoreDeterministic(t *testing.T) {
	p := poseWith(0.77, pose.RequiredJoints(pose.Deadlift)...)
	a := Score(p, pose.Deadlift)
	b := Score(p, pose.Deadlift)
	if !reflect.DeepEqual(a, b) {
		t.Error("Score must be bit-identical across calls on the same inputs")
	}
}

func TestLevelBands(t *testing.T) {
	tests := []struct {
		overall float64
		want    Level
	}{
		{overall: 1.0, want: Excellent},
		{overall: 0.8, want: Excellent},
		{overall: 0.79999, want: Good},
		{overall: 0.6, want: Good},
		{overall: 0.59999, want: Fair},
		{overall: 0.4, want: Fair},
		{overall: 0.39999, want: Poor},
		{overall: 0.0, want: Poor},
	}

	for _, tt := range tests {
		a := Assessment{OverallQuality: tt.overall}
		if got := a.Level(); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.overall, got, tt.want)
		}
	}
}

func TestPopVariance(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		want   float64
	}{
		{name: "empty", values: nil, mean: 0, want: 0},
		{name: "singleton", values: []float64{0.9}, mean: 0.9, want: 0},
		{name: "uniform", values: []float64{0.5, 0.5, 0.5}, mean: 0.5, want: 0},
		{name: "spread", values: []float64{0.6, 1.0}, mean: 0.8, want: 0.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := popVariance(tt.values, tt.mean); !approx(got, tt.want) {
				t.Errorf("popVariance = %v, want %v", got, tt.want)
			}
		})
	}
}
