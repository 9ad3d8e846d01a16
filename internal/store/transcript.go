package store

import (
	"fmt"
	"time"

	"github.com/soyeahso/part5/internal/tutor"
)

// SQLiteTranscriptStore implements tutor.TranscriptStore backed by SQLite.
type SQLiteTranscriptStore struct {
	db *DB
}

// NewSQLiteTranscriptStore creates a transcript store using the given database.
func NewSQLiteTranscriptStore(db *DB) *SQLiteTranscriptStore {
	return &SQLiteTranscriptStore{db: db}
}

// CreateSession records the start of a practice session.
func (s *SQLiteTranscriptStore) CreateSession(rec tutor.SessionRecord) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO sessions (id, agent_id, thread_id, started_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.AgentID, rec.ThreadID, rec.StartedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// AppendTurn records one utterance.
func (s *SQLiteTranscriptStore) AppendTurn(rec tutor.TurnRecord) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		rec.SessionID, rec.Role, rec.Content, rec.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// Sessions returns all recorded sessions, newest first.
func (s *SQLiteTranscriptStore) Sessions() ([]tutor.SessionRecord, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, agent_id, thread_id, started_at FROM sessions ORDER BY started_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []tutor.SessionRecord
	for rows.Next() {
		var rec tutor.SessionRecord
		var startedAt string
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.ThreadID, &startedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.StartedAt = parseDBTime(startedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Turns returns the utterances of one session in order.
func (s *SQLiteTranscriptStore) Turns(sessionID string) ([]tutor.TurnRecord, error) {
	rows, err := s.db.sql.Query(
		`SELECT session_id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []tutor.TurnRecord
	for rows.Next() {
		var rec tutor.TurnRecord
		var createdAt string
		if err := rows.Scan(&rec.SessionID, &rec.Role, &rec.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.CreatedAt = parseDBTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parseDBTime(s string) time.Time {
	ts, err := time.Parse(time.DateTime, s)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

var _ tutor.TranscriptStore = (*SQLiteTranscriptStore)(nil)
