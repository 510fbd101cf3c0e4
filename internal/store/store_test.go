package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/quality"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(t *testing.T) *Session {
	t.Helper()
	required := pose.RequiredJoints(pose.Squat)

	var poses []*pose.PoseEstimate
	for _, index := range []int{0, 2, 3} {
		p := pose.New(0.9)
		p.FrameIndex = index
		p.Timestamp = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(index) * 100 * time.Millisecond)
		for _, name := range required {
			p.Joints[name] = pose.BodyJoint{Name: name, Position: pose.Point{X: 10, Y: 20}, Confidence: 0.85}
		}
		poses = append(poses, p)
	}

	return &Session{
		VideoPath: "squat-set-1.mp4",
		Exercise:  pose.Squat,
		Poses:     poses,
		Report:    quality.BuildReport(poses, pose.Squat, 5),
	}
}

func TestSaveAndListSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSession(ctx, testSession(t))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveSession returned zero id")
	}

	summaries, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d sessions, want 1", len(summaries))
	}
	sum := summaries[0]
	if sum.ID != id {
		t.Errorf("ID = %d, want %d", sum.ID, id)
	}
	if sum.VideoPath != "squat-set-1.mp4" {
		t.Errorf("VideoPath = %q", sum.VideoPath)
	}
	if sum.Exercise != pose.Squat {
		t.Errorf("Exercise = %s, want squat", sum.Exercise)
	}
	if sum.PoseCount != 3 {
		t.Errorf("PoseCount = %d, want 3", sum.PoseCount)
	}
	if sum.Verdict != quality.VerdictPass {
		t.Errorf("Verdict = %s, want pass", sum.Verdict)
	}
}

func TestLoadPosesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	session := testSession(t)
	id, err := s.SaveSession(ctx, session)
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := s.LoadPoses(ctx, id)
	if err != nil {
		t.Fatalf("LoadPoses failed: %v", err)
	}
	if len(loaded) != len(session.Poses) {
		t.Fatalf("got %d poses, want %d", len(loaded), len(session.Poses))
	}
	for i, p := range loaded {
		orig := session.Poses[i]
		if p.ID != orig.ID {
			t.Errorf("pose %d: ID mismatch", i)
		}
		if p.FrameIndex != orig.FrameIndex {
			t.Errorf("pose %d: FrameIndex = %d, want %d", i, p.FrameIndex, orig.FrameIndex)
		}
		if !p.Timestamp.Equal(orig.Timestamp) {
			t.Errorf("pose %d: Timestamp = %v, want %v", i, p.Timestamp, orig.Timestamp)
		}
		if len(p.Joints) != len(orig.Joints) {
			t.Errorf("pose %d: %d joints, want %d", i, len(p.Joints), len(orig.Joints))
		}
		knee, ok := p.Joint(pose.LeftKnee)
		if !ok {
			t.Fatalf("pose %d: leftKnee missing after round trip", i)
		}
		if knee.Confidence != 0.85 {
			t.Errorf("pose %d: leftKnee confidence = %v", i, knee.Confidence)
		}
	}
}

func TestSaveSessionRequiresReport(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SaveSession(context.Background(), &Session{VideoPath: "x.mp4"}); err == nil {
		t.Error("SaveSession without a report succeeded, want error")
	}
}

func TestLoadPosesRejectsMalformedTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSession(ctx, testSession(t))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE poses SET timestamp = 'yesterday-ish' WHERE session_id = ?`, id); err != nil {
		t.Fatalf("failed to corrupt timestamp: %v", err)
	}

	if _, err := s.LoadPoses(ctx, id); err == nil {
		t.Error("LoadPoses with a malformed timestamp succeeded, want error")
	}
}

func TestSessionsRejectsMalformedCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSession(ctx, testSession(t))
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET created_at = '05/01/2026' WHERE id = ?`, id); err != nil {
		t.Fatalf("failed to corrupt created_at: %v", err)
	}

	if _, err := s.Sessions(ctx); err == nil {
		t.Error("Sessions with a malformed created_at succeeded, want error")
	}
}

func TestSessionsEmpty(t *testing.T) {
	s := openTestStore(t)
	summaries, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("got %d sessions from empty store, want 0", len(summaries))
	}
}
