package pose

import (
	"fmt"
	"strings"
)

// ExerciseType is the closed set of exercises the quality scorer knows
// required-joint policy for. Unknown gets the full-body superset.
type ExerciseType string

const (
	Squat         ExerciseType = "squat"
	Deadlift      ExerciseType = "deadlift"
	BenchPress    ExerciseType = "benchPress"
	ShoulderPress ExerciseType = "shoulderPress"
	PullUp        ExerciseType = "pullUp"
	Unknown       ExerciseType = "unknown"
)

// ExerciseTypes lists every known exercise type.
var ExerciseTypes = []ExerciseType{Squat, Deadlift, BenchPress, ShoulderPress, PullUp, Unknown}

// requiredJoints maps each exercise to the ordered set of joints the
// quality scorer checks for. Order matters: missing-joint lists are
// reported in this order.
var requiredJoints = map[ExerciseType][]JointName{
	Squat: {
		LeftHip, RightHip,
		LeftKnee, RightKnee,
		LeftAnkle, RightAnkle,
		LeftShoulder, RightShoulder,
		Neck,
	},
	Deadlift: {
		LeftHip, RightHip,
		LeftKnee, RightKnee,
		LeftAnkle, RightAnkle,
		LeftShoulder, RightShoulder,
		LeftWrist, RightWrist,
		Neck,
	},
	BenchPress: {
		LeftShoulder, RightShoulder,
		LeftElbow, RightElbow,
		LeftWrist, RightWrist,
		Neck,
	},
	ShoulderPress: {
		LeftShoulder, RightShoulder,
		LeftElbow, RightElbow,
		LeftWrist, RightWrist,
		Neck,
		LeftHip, RightHip,
	},
	PullUp: {
		LeftShoulder, RightShoulder,
		LeftElbow, RightElbow,
		LeftWrist, RightWrist,
		Neck,
		LeftHip, RightHip,
	},
}

// RequiredJoints returns the ordered required-joint set for an exercise.
// Unknown (and any unrecognized value) returns the full tracked vocabulary.
// The returned slice is a copy; callers may reorder it freely.
func RequiredJoints(ex ExerciseType) []JointName {
	set, ok := requiredJoints[ex]
	if !ok {
		set = TrackedJoints
	}
	out := make([]JointName, len(set))
	copy(out, set)
	return out
}

// ParseExerciseType resolves a user-supplied exercise name. It accepts the
// canonical camelCase form plus common flag spellings ("bench-press",
// "bench_press", "benchpress").
func ParseExerciseType(s string) (ExerciseType, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for _, ex := range ExerciseTypes {
		if normalized == strings.ToLower(string(ex)) {
			return ex, nil
		}
	}
	return Unknown, fmt.Errorf("unknown exercise type %q (expected one of: squat, deadlift, benchPress, shoulderPress, pullUp, unknown)", s)
}
