package main

import (
	"fmt"
	"io"
	"time"

	"github.com/hireloop/interview-client/internal/trace"
)

const sessionPageSize = 20

// runTraceQuery serves the offline-review modes: list past sessions, or dump
// one session's question/answer turns.
func runTraceQuery(w io.Writer, ts *trace.Store, cfg config) error {
	if cfg.showSession != "" {
		sess, turns, err := ts.GetSession(cfg.showSession)
		if err != nil {
			return fmt.Errorf("load session %s: %w", cfg.showSession, err)
		}
		renderSession(w, sess, turns)
		return nil
	}

	sessions, total, err := ts.ListSessions(sessionPageSize, 0)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	renderSessions(w, sessions, total)
	return nil
}

func renderSessions(w io.Writer, sessions []trace.Session, total int) {
	fmt.Fprintf(w, "%d sessions\n", total)
	for _, s := range sessions {
		ended := "live"
		if s.EndedAt != nil {
			ended = s.EndedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s  %-28s  started %s  ended %s  %d turns\n",
			s.ID, s.JobTitle, s.StartedAt.Format(time.RFC3339), ended, s.TurnCount)
	}
}

func renderSession(w io.Writer, sess *trace.Session, turns []trace.Turn) {
	fmt.Fprintf(w, "session %s (%s), started %s\n",
		sess.ID, sess.JobTitle, sess.StartedAt.Format(time.RFC3339))
	for i, t := range turns {
		fmt.Fprintf(w, "\nturn %d (%s, %.0f ms)\n", i+1, t.Status, t.DurationMs)
		fmt.Fprintf(w, "  Q: %s\n", t.Question)
		if t.Answer != "" {
			fmt.Fprintf(w, "  A: %s\n", t.Answer)
		}
	}
}
