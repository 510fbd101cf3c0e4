// Package store persists analysis sessions — pose sequences plus their
// quality reports — to a local SQLite database for downstream consumers
// (form critique, export).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/quality"
)

// Store wraps the sessions database. Safe for use from one goroutine per
// analysis; independent analyses should share one Store.
type Store struct {
	db *sql.DB
}

// Session is one analyzed video.
type Session struct {
	ID        int64
	VideoPath string
	Exercise  pose.ExerciseType
	CreatedAt time.Time
	Poses     []*pose.PoseEstimate
	Report    *quality.Report
}

// SessionSummary is the listing view of a stored session.
type SessionSummary struct {
	ID          int64
	VideoPath   string
	Exercise    pose.ExerciseType
	CreatedAt   time.Time
	PoseCount   int
	MeanOverall float64
	Verdict     quality.Verdict
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_path TEXT NOT NULL,
	exercise TEXT NOT NULL,
	created_at TEXT NOT NULL,
	pose_count INTEGER NOT NULL,
	mean_overall REAL NOT NULL,
	acceptable_fraction REAL NOT NULL,
	verdict TEXT NOT NULL,
	report_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS poses (
	id TEXT PRIMARY KEY,
	session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	frame_index INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	overall_confidence REAL NOT NULL,
	joints_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poses_session ON poses(session_id, frame_index);
`

// Open opens (creating if necessary) the sessions database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure sessions database: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Sessions database ready")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession writes a session and its poses in one transaction and
// returns the new session ID.
func (s *Store) SaveSession(ctx context.Context, session *Session) (int64, error) {
	if session.Report == nil {
		return 0, fmt.Errorf("session has no report")
	}

	reportJSON, err := json.Marshal(session.Report)
	if err != nil {
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (video_path, exercise, created_at, pose_count, mean_overall, acceptable_fraction, verdict, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.VideoPath,
		string(session.Exercise),
		createdAt.UTC().Format(time.RFC3339Nano),
		len(session.Poses),
		session.Report.MeanOverall,
		session.Report.AcceptableFraction,
		string(session.Report.Verdict),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	for _, p := range session.Poses {
		jointsJSON, err := json.Marshal(p.Joints)
		if err != nil {
			return 0, fmt.Errorf("failed to encode joints for frame %d: %w", p.FrameIndex, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO poses (id, session_id, frame_index, timestamp, overall_confidence, joints_json)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID.String(),
			sessionID,
			p.FrameIndex,
			p.Timestamp.UTC().Format(time.RFC3339Nano),
			p.OverallConfidence,
			string(jointsJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert pose for frame %d: %w", p.FrameIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}

	log.Info().
		Int64("session", sessionID).
		Str("video", session.VideoPath).
		Int("poses", len(session.Poses)).
		Msg("Session saved")

	return sessionID, nil
}

// Sessions lists stored sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_path, exercise, created_at, pose_count, mean_overall, verdict
		 FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var exercise, createdAt, verdict string
		if err := rows.Scan(&sum.ID, &sum.VideoPath, &exercise, &createdAt, &sum.PoseCount, &sum.MeanOverall, &verdict); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sum.Exercise = pose.ExerciseType(exercise)
		sum.Verdict = quality.Verdict(verdict)
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("malformed created_at for session %d: %w", sum.ID, err)
		}
		sum.CreatedAt = t
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// LoadPoses reads a stored session's pose sequence in frame order.
func (s *Store) LoadPoses(ctx context.Context, sessionID int64) ([]*pose.PoseEstimate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, frame_index, timestamp, overall_confidence, joints_json
		 FROM poses WHERE session_id = ? ORDER BY frame_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load poses: %w", err)
	}
	defer rows.Close()

	var poses []*pose.PoseEstimate
	for rows.Next() {
		var idStr, ts, jointsJSON string
		p := &pose.PoseEstimate{}
		if err := rows.Scan(&idStr, &p.FrameIndex, &ts, &p.OverallConfidence, &jointsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan pose row: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("malformed pose id %q: %w", idStr, err)
		}
		p.ID = id
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("malformed timestamp for pose %s: %w", idStr, err)
		}
		p.Timestamp = t
		if err := json.Unmarshal([]byte(jointsJSON), &p.Joints); err != nil {
			return nil, fmt.Errorf("malformed joints for pose %s: %w", idStr, err)
		}
		poses = append(poses, p)
	}
	return poses, rows.Err()
}
