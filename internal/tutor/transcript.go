package tutor

import "time"

// SessionRecord describes one practice session in the local transcript log.
type SessionRecord struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	ThreadID  string    `json:"threadId"`
	StartedAt time.Time `json:"startedAt"`
}

// TurnRecord is a single utterance within a session.
type TurnRecord struct {
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TranscriptStore records practice sessions locally for later review.
// The runner treats a nil store as "no persistence".
type TranscriptStore interface {
	CreateSession(rec SessionRecord) error
	AppendTurn(rec TurnRecord) error
	Sessions() ([]SessionRecord, error)
	Turns(sessionID string) ([]TurnRecord, error)
}
