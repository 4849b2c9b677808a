package trace

import "time"

// Session represents one interview attempt.
type Session struct {
	ID        string     `json:"id"`
	JobTitle  string     `json:"job_title"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	TurnCount int        `json:"turn_count,omitempty"`
}

// Turn represents one question/answer exchange within a session.
type Turn struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms,omitempty"`
	Status     string    `json:"status"`
}
