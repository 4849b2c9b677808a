package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireloop/interview-client/internal/metrics"
	"github.com/hireloop/interview-client/internal/state"
)

// defaultStartTimeout bounds the session-start call. A silent backend must
// fail fast so the user sees a connectivity notice instead of an endless
// spinner.
const defaultStartTimeout = 5 * time.Second

// readyAnswer is submitted in place of a dedicated next-question operation,
// which the backend does not have.
const readyAnswer = "I'm ready for the next question"

// ControlClient is the request/response side of the session transport:
// start, respond, end, and the auxiliary transcript persistence calls.
type ControlClient struct {
	baseURL      string
	client       *http.Client
	startTimeout time.Duration
}

// NewControlClient creates a control-channel client for the given base URL.
func NewControlClient(baseURL string, poolSize int) *ControlClient {
	return &ControlClient{
		baseURL:      baseURL,
		client:       NewPooledHTTPClient(poolSize, 30*time.Second),
		startTimeout: defaultStartTimeout,
	}
}

// Start opens a new interview session. Fails with ErrConnectivity if the
// backend does not answer within the start timeout, and ErrServerRejected if
// it answers with a non-success status.
func (c *ControlClient) Start(ctx context.Context, job state.JobInfo) (*StartResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.startTimeout)
	defer cancel()

	req := startRequest{
		JobTitle:          job.Title,
		CompanyName:       job.Company,
		JobDescription:    job.Description,
		InterviewDuration: job.DurationMinutes,
	}
	var resp StartResponse
	if err := c.post(ctx, "start", "/interview/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitAnswer forwards a user utterance over the control channel. Interim
// updates (isFinal=false) are acknowledged without a new agent message.
func (c *ControlClient) SubmitAnswer(ctx context.Context, sessionID, text string, isFinal bool) (*AgentMessage, error) {
	var resp AgentMessage
	err := c.post(ctx, "respond", "/interview/"+sessionID+"/respond", candidateResponse{Text: text, IsFinal: isFinal}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestNext asks for the next question by submitting the ready placeholder
// answer.
func (c *ControlClient) RequestNext(ctx context.Context, sessionID string) (*AgentMessage, error) {
	return c.SubmitAnswer(ctx, sessionID, readyAnswer, true)
}

// End closes the session and returns the terminal summary.
func (c *ControlClient) End(ctx context.Context, sessionID string) (*Summary, error) {
	var resp Summary
	if err := c.post(ctx, "end", "/interview/"+sessionID+"/end", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveTranscript persists one transcript entry server-side. Best-effort from
// the caller's perspective.
func (c *ControlClient) SaveTranscript(ctx context.Context, sessionID string, entry state.TranscriptEntry, at time.Time) error {
	req := transcriptSaveRequest{
		Text:      entry.Text,
		Speaker:   string(entry.Speaker),
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	return c.post(ctx, "transcript_save", "/transcript/"+sessionID+"/save", req, nil)
}

// GetTranscripts fetches the persisted transcript entries for a session.
func (c *ControlClient) GetTranscripts(ctx context.Context, sessionID string) ([]SavedTranscript, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/transcript/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("create transcript request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("control", "http").Inc()
		return nil, fmt.Errorf("%w: transcript fetch: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("control", "status").Inc()
		return nil, fmt.Errorf("%w: transcript fetch status %d", ErrServerRejected, resp.StatusCode)
	}

	var out []SavedTranscript
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}
	metrics.ControlCallDuration.WithLabelValues("transcript_get").Observe(time.Since(start).Seconds())
	return out, nil
}

// post issues one JSON exchange against the control channel and classifies
// failures into the connectivity/rejection taxonomy.
func (c *ControlClient) post(ctx context.Context, op, path string, in, out any) error {
	start := time.Now()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("control", "http").Inc()
		slog.Error("control call failed", "op", op, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrConnectivity, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.Errors.WithLabelValues("control", "status").Inc()
		slog.Error("control call rejected", "op", op, "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("%w: %s status %d", ErrServerRejected, op, resp.StatusCode)
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	metrics.ControlCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return nil
}
