// Package pose defines the body-joint data model shared by the frame
// sampler, the pose estimator adapter, and the quality scorer: the tracked
// joint vocabulary, per-frame pose estimates, and the exercise types that
// drive required-joint policy.
package pose

// JointName identifies one anatomical landmark in the tracked vocabulary.
type JointName string

// The 14 tracked joints. Estimators may report additional landmarks
// (eyes, ears, ...); anything outside this vocabulary is dropped at the
// adapter boundary.
const (
	Head          JointName = "head"
	Neck          JointName = "neck"
	LeftShoulder  JointName = "leftShoulder"
	RightShoulder JointName = "rightShoulder"
	LeftElbow     JointName = "leftElbow"
	RightElbow    JointName = "rightElbow"
	LeftWrist     JointName = "leftWrist"
	RightWrist    JointName = "rightWrist"
	LeftHip       JointName = "leftHip"
	RightHip      JointName = "rightHip"
	LeftKnee      JointName = "leftKnee"
	RightKnee     JointName = "rightKnee"
	LeftAnkle     JointName = "leftAnkle"
	RightAnkle    JointName = "rightAnkle"
)

// TrackedJoints lists every joint in the vocabulary in canonical order.
// Iteration over a pose's joint slots always follows this order, so output
// (and therefore JSON reports and tests) is deterministic.
var TrackedJoints = []JointName{
	Head,
	Neck,
	LeftShoulder,
	RightShoulder,
	LeftElbow,
	RightElbow,
	LeftWrist,
	RightWrist,
	LeftHip,
	RightHip,
	LeftKnee,
	RightKnee,
	LeftAnkle,
	RightAnkle,
}

// IsTracked reports whether name is part of the tracked vocabulary.
func IsTracked(name JointName) bool {
	for _, j := range TrackedJoints {
		if j == name {
			return true
		}
	}
	return false
}

// Point is a 2D position in image-pixel space. The origin is the top-left
// corner of the frame, matching image raster order.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BodyJoint is one detected landmark: where it is, how sure the estimator
// was, and which joint it is. Immutable once produced.
type BodyJoint struct {
	Name       JointName `json:"name"`
	Position   Point     `json:"position"`
	Confidence float64   `json:"confidence"`
}

// Confidence thresholds applied at different pipeline stages.
const (
	// MinJointConfidence is the acceptance floor applied when a pose is
	// assembled from raw estimator output. Joints at or below this value
	// are represented as absent slots, never as low-confidence values.
	MinJointConfidence = 0.3

	// ValidJointConfidence is the stricter threshold the quality scorer
	// uses to count a joint as usable.
	ValidJointConfidence = 0.5
)
