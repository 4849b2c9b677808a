package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-client/internal/state"
)

func TestControlStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/interview/start", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Backend Engineer", req["job_title"])
		assert.Equal(t, "HireGage", req["company_name"])

		json.NewEncoder(w).Encode(StartResponse{SessionID: "s1", Message: "Hi, let's begin."})
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 4)
	resp, err := c.Start(context.Background(), state.JobInfo{
		Title:           "Backend Engineer",
		Company:         "HireGage",
		DurationMinutes: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Hi, let's begin.", resp.Message)
}

func TestControlStartConnectivityError(t *testing.T) {
	// A closed listener fails the same way an unreachable or timed-out
	// backend does: no response ever arrives.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewControlClient(srv.URL, 1)
	_, err := c.Start(context.Background(), state.JobInfo{Title: "QA"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.NotErrorIs(t, err, ErrServerRejected)
}

func TestControlStartTimeoutSurfacesConnectivity(t *testing.T) {
	// The server accepts the connection but never answers; the start
	// deadline must fire and classify as connectivity, not rejection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise teardown deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 1)
	c.startTimeout = 50 * time.Millisecond

	begin := time.Now()
	_, err := c.Start(context.Background(), state.JobInfo{Title: "QA"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.NotErrorIs(t, err, ErrServerRejected)
	assert.Less(t, time.Since(begin), 5*time.Second)
}

func TestControlStartServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 1)
	_, err := c.Start(context.Background(), state.JobInfo{Title: "QA"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerRejected)
	assert.NotErrorIs(t, err, ErrConnectivity)
}

func TestControlSubmitAnswerAndRequestNext(t *testing.T) {
	var payloads []candidateResponse
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/interview/s1/respond", r.URL.Path)
		var req candidateResponse
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		payloads = append(payloads, req)
		json.NewEncoder(w).Encode(AgentMessage{Text: "Tell me about a challenge you overcame."})
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 4)
	msg, err := c.SubmitAnswer(context.Background(), "s1", "I have five years of experience.", true)
	require.NoError(t, err)
	assert.Equal(t, "Tell me about a challenge you overcame.", msg.Text)

	_, err = c.RequestNext(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, payloads, 2)
	assert.True(t, payloads[0].IsFinal)
	assert.Equal(t, readyAnswer, payloads[1].Text)
	assert.True(t, payloads[1].IsFinal)
}

func TestControlEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/interview/s1/end", r.URL.Path)
		w.Write([]byte(`{
			"session_id": "s1",
			"job_title": "Backend Engineer",
			"summary": {"key_points": ["be more concise"]},
			"transcript": [
				{"role": "assistant", "content": "Why Go?", "timestamp": 1},
				{"role": "candidate", "content": "Concurrency.", "timestamp": 2}
			],
			"evaluation": {"technical_skills": 8, "communication": 7, "culture_fit": 9, "problem_solving": 6, "overall_impression": 8},
			"feedback": "Solid performance."
		}`))
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 4)
	sum, err := c.End(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Solid performance.", sum.Feedback)
	assert.Equal(t, []string{"be more concise"}, sum.Summary.KeyPoints)
	require.NotNil(t, sum.Evaluation)
	assert.Equal(t, 8, sum.Evaluation.TechnicalSkills)
	require.Len(t, sum.Transcript, 2)
	assert.Equal(t, "assistant", sum.Transcript[0].Role)
}

func TestControlTranscriptPersistence(t *testing.T) {
	saved := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/s1/save":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			w.WriteHeader(http.StatusOK)
		case "/transcript/s1":
			json.NewEncoder(w).Encode([]SavedTranscript{{Text: "hello", Speaker: "ai"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewControlClient(srv.URL, 4)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := c.SaveTranscript(context.Background(), "s1", state.TranscriptEntry{Speaker: state.SpeakerUser, Text: "hi"}, at)
	require.NoError(t, err)
	assert.Equal(t, "user", saved["speaker"])
	assert.Equal(t, "2025-06-01T12:00:00Z", saved["timestamp"])

	entries, err := c.GetTranscripts(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)
}
