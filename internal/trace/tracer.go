package trace

import (
	"log/slog"

	"github.com/google/uuid"
)

const maxTextLen = 500

type traceMsg struct {
	kind string // "session_create", "session_end", "turn_create", "turn_complete"
	// session fields
	sessionID string
	jobTitle  string
	// turn fields
	turnID     string
	question   string
	answer     string
	durationMs float64
	status     string
}

// Tracer writes turn history asynchronously via a buffered channel.
// All methods are nil-safe (no-op on nil receiver).
type Tracer struct {
	store     *Store
	sessionID string
	ch        chan traceMsg
	done      chan struct{}
}

// NewTracer creates a tracer bound to a session. Must call Close when done.
func NewTracer(store *Store, sessionID, jobTitle string) *Tracer {
	t := &Tracer{
		store:     store,
		sessionID: sessionID,
		ch:        make(chan traceMsg, 64),
		done:      make(chan struct{}),
	}
	go t.drain()
	t.ch <- traceMsg{kind: "session_create", sessionID: sessionID, jobTitle: jobTitle}
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for msg := range t.ch {
		t.handle(msg)
	}
}

func (t *Tracer) handle(m traceMsg) {
	handlers := map[string]func() error{
		"session_create": func() error { return t.store.CreateSession(m.sessionID, m.jobTitle) },
		"session_end":    func() error { return t.store.EndSession(m.sessionID) },
		"turn_create":    func() error { return t.store.CreateTurn(m.turnID, m.sessionID, m.question) },
		"turn_complete":  func() error { return t.store.CompleteTurn(m.turnID, m.answer, m.durationMs, m.status) },
	}
	fn, ok := handlers[m.kind]
	if !ok {
		return
	}
	if err := fn(); err != nil {
		slog.Warn("trace write failed", "kind", m.kind, "error", err)
	}
}

// StartTurn records a turn opened by the given question and returns its ID.
func (t *Tracer) StartTurn(question string) string {
	if t == nil {
		return ""
	}
	id := uuid.NewString()
	t.ch <- traceMsg{kind: "turn_create", turnID: id, sessionID: t.sessionID, question: truncate(question, maxTextLen)}
	return id
}

// EndTurn finalizes a turn with the candidate's answer.
func (t *Tracer) EndTurn(turnID, answer string, durationMs float64, status string) {
	if t == nil || turnID == "" {
		return
	}
	t.ch <- traceMsg{
		kind:       "turn_complete",
		turnID:     turnID,
		answer:     truncate(answer, maxTextLen),
		durationMs: durationMs,
		status:     status,
	}
}

// EndSession marks the session as finished.
func (t *Tracer) EndSession() {
	if t == nil {
		return
	}
	t.ch <- traceMsg{kind: "session_end", sessionID: t.sessionID}
}

// Close drains pending writes and shuts down the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
