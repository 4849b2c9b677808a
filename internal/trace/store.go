package trace

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

const maxSessions = 100

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		job_title TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		question TEXT NOT NULL DEFAULT '',
		answer TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS turns_session_idx ON turns (session_id, started_at)`,
}

// Store persists session turn history to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to a PostgreSQL trace database at connStr.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("trace schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session and prunes old ones.
func (s *Store) CreateSession(id, jobTitle string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, job_title, started_at) VALUES ($1, $2, $3)`,
		id, jobTitle, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM sessions WHERE id NOT IN (SELECT id FROM sessions ORDER BY started_at DESC LIMIT $1)`,
		maxSessions,
	)
	return err
}

// EndSession sets the ended_at timestamp.
func (s *Store) EndSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return err
}

// CreateTurn inserts a new turn opened by the given question.
func (s *Store) CreateTurn(id, sessionID, question string) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, session_id, question, started_at, status) VALUES ($1, $2, $3, $4, 'open')`,
		id, sessionID, question, time.Now().UTC(),
	)
	return err
}

// CompleteTurn sets the turn's final fields.
func (s *Store) CompleteTurn(id, answer string, durationMs float64, status string) error {
	_, err := s.db.Exec(
		`UPDATE turns SET answer = $1, duration_ms = $2, status = $3 WHERE id = $4`,
		answer, durationMs, status, id,
	)
	return err
}

// ListSessions returns sessions ordered newest first, with turn counts.
func (s *Store) ListSessions(limit, offset int) ([]Session, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.job_title, s.started_at, s.ended_at, COUNT(t.id) as turn_count
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		if err = rows.Scan(&sess.ID, &sess.JobTitle, &sess.StartedAt, &endedAt, &sess.TurnCount); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, total, rows.Err()
}

// GetSession returns a single session with its turns in chronological order.
func (s *Store) GetSession(id string) (*Session, []Turn, error) {
	var sess Session
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, job_title, started_at, ended_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.JobTitle, &sess.StartedAt, &endedAt)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, question, answer, started_at, duration_ms, status
		FROM turns
		WHERE session_id = $1
		ORDER BY started_at ASC
	`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err = rows.Scan(&t.ID, &t.SessionID, &t.Question, &t.Answer, &t.StartedAt, &t.DurationMs, &t.Status); err != nil {
			return nil, nil, err
		}
		turns = append(turns, t)
	}
	return &sess, turns, rows.Err()
}
