package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop/interview-client/internal/trace"
)

func TestRenderSessions(t *testing.T) {
	started := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	ended := started.Add(25 * time.Minute)
	sessions := []trace.Session{
		{ID: "s1", JobTitle: "Backend Engineer", StartedAt: started, EndedAt: &ended, TurnCount: 6},
		{ID: "s2", JobTitle: "SRE", StartedAt: started.Add(time.Hour), TurnCount: 2},
	}

	var buf bytes.Buffer
	renderSessions(&buf, sessions, 2)

	out := buf.String()
	assert.Contains(t, out, "2 sessions")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "ended 2026-08-20T09:55:00Z")
	assert.Contains(t, out, "6 turns")
	// A session with no ended_at is still in progress.
	assert.Contains(t, out, "ended live")
}

func TestRenderSessionTurns(t *testing.T) {
	started := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	sess := &trace.Session{ID: "s1", JobTitle: "Backend Engineer", StartedAt: started}
	turns := []trace.Turn{
		{Question: "Hi, let's begin.", Answer: "I have five years of experience.", Status: "answered", DurationMs: 8200},
		{Question: "Tell me about a challenge you overcame.", Status: "open"},
	}

	var buf bytes.Buffer
	renderSession(&buf, sess, turns)

	out := buf.String()
	assert.Contains(t, out, "session s1 (Backend Engineer)")
	assert.Contains(t, out, "turn 1 (answered, 8200 ms)")
	assert.Contains(t, out, "Q: Hi, let's begin.")
	assert.Contains(t, out, "A: I have five years of experience.")
	assert.Contains(t, out, "turn 2 (open, 0 ms)")
	// An open turn has no answer line.
	assert.NotContains(t, out, "A: \n")
}
