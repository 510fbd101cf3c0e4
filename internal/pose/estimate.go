package pose

import (
	"time"

	"github.com/google/uuid"
)

// PoseEstimate is one sampled frame's estimation result: up to 14 named
// joint slots plus the estimator's whole-pose confidence.
//
// A joint slot is absent when the estimator's per-point confidence was at
// or below MinJointConfidence, or the landmark was not observed at all.
// Absent means absent — a PoseEstimate never carries a joint below the
// acceptance floor.
//
// The estimator adapter creates a PoseEstimate with FrameIndex 0 and the
// current time as a placeholder Timestamp; the sequence builder back-fills
// both once the frame's position in the sampled sequence is known. After
// that the estimate is treated as immutable.
type PoseEstimate struct {
	ID                uuid.UUID               `json:"id"`
	FrameIndex        int                     `json:"frameIndex"`
	Timestamp         time.Time               `json:"timestamp"`
	Joints            map[JointName]BodyJoint `json:"joints"`
	OverallConfidence float64                 `json:"overallConfidence"`
}

// New returns an empty pose estimate with a fresh ID and placeholder
// frame index and timestamp.
func New(overallConfidence float64) *PoseEstimate {
	return &PoseEstimate{
		ID:                uuid.New(),
		FrameIndex:        0,
		Timestamp:         time.Now(),
		Joints:            make(map[JointName]BodyJoint, len(TrackedJoints)),
		OverallConfidence: overallConfidence,
	}
}

// Joint returns the named joint slot, if present.
func (p *PoseEstimate) Joint(name JointName) (BodyJoint, bool) {
	j, ok := p.Joints[name]
	return j, ok
}

// AllJoints returns every present joint slot in canonical order.
func (p *PoseEstimate) AllJoints() []BodyJoint {
	joints := make([]BodyJoint, 0, len(p.Joints))
	for _, name := range TrackedJoints {
		if j, ok := p.Joints[name]; ok {
			joints = append(joints, j)
		}
	}
	return joints
}

// AllValidJoints returns the present joints whose confidence exceeds
// ValidJointConfidence, in canonical order.
func (p *PoseEstimate) AllValidJoints() []BodyJoint {
	joints := make([]BodyJoint, 0, len(p.Joints))
	for _, name := range TrackedJoints {
		if j, ok := p.Joints[name]; ok && j.Confidence > ValidJointConfidence {
			joints = append(joints, j)
		}
	}
	return joints
}

// CenterOfMass returns the mean position of all valid joints. The second
// return value is false when the pose has no valid joints, in which case
// the center is undefined.
func (p *PoseEstimate) CenterOfMass() (Point, bool) {
	valid := p.AllValidJoints()
	if len(valid) == 0 {
		return Point{}, false
	}
	var sum Point
	for _, j := range valid {
		sum.X += j.Position.X
		sum.Y += j.Position.Y
	}
	n := float64(len(valid))
	return Point{X: sum.X / n, Y: sum.Y / n}, true
}
