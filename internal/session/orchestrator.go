package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hireloop/interview-client/internal/metrics"
	"github.com/hireloop/interview-client/internal/state"
	"github.com/hireloop/interview-client/internal/trace"
	"github.com/hireloop/interview-client/internal/transport"
)

// ErrNoJobInfo means the session was entered without a position to interview
// for. The caller should send the user back to the start form.
var ErrNoJobInfo = errors.New("no job info set")

// Phase is the orchestrator's position in the session lifecycle.
type Phase int

const (
	Idle Phase = iota
	Introducing
	AwaitingUserTurn
	AiTurnPending
	Ended
	ErrorRecovery
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Introducing:
		return "introducing"
	case AwaitingUserTurn:
		return "awaiting_user_turn"
	case AiTurnPending:
		return "ai_turn_pending"
	case Ended:
		return "ended"
	case ErrorRecovery:
		return "error_recovery"
	}
	return "unknown"
}

// Control is the control-channel surface the orchestrator drives.
type Control interface {
	Start(ctx context.Context, job state.JobInfo) (*transport.StartResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, text string, isFinal bool) (*transport.AgentMessage, error)
	RequestNext(ctx context.Context, sessionID string) (*transport.AgentMessage, error)
	End(ctx context.Context, sessionID string) (*transport.Summary, error)
	SaveTranscript(ctx context.Context, sessionID string, entry state.TranscriptEntry, at time.Time) error
}

// UtteranceStream is the duplex streaming channel for one session.
type UtteranceStream interface {
	Frames() <-chan transport.Frame
	SendUtterance(text string, isFinal bool) error
	Close() error
}

// Capture is the speech capture surface. Both methods degrade to no-ops
// internally, so the orchestrator never branches on capture availability.
type Capture interface {
	Start(ctx context.Context)
	Stop()
}

// Player renders the inbound audio stream.
type Player interface {
	Append(chunk []byte)
	Finalize()
}

// Config wires an orchestrator.
type Config struct {
	Store   *state.Store
	Control Control

	// OpenStream dials the streaming channel once the session id is known.
	OpenStream func(ctx context.Context, sessionID string) (UtteranceStream, error)

	Capture Capture
	Player  Player

	// Trace, when set, records each turn to Postgres for offline review.
	Trace *trace.Store

	// OnAlert surfaces blocking user-facing notices. Nil falls back to the
	// log.
	OnAlert func(msg string)
}

// Orchestrator is the session state machine. It owns the session id and both
// transport channels; all interview state flows through the store's dispatch.
type Orchestrator struct {
	cfg Config

	events chan event
	done   chan struct{}

	mu        sync.Mutex
	phase     Phase
	sessionID string
	stream    UtteranceStream
}

// New creates an orchestrator in the Idle phase.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		events: make(chan event, 64),
		done:   make(chan struct{}),
	}
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// SessionID returns the backend-assigned session id, empty before start
// succeeds.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Done is closed when Run returns.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// OnTranscript receives every incremental recognition update. Interim text is
// forwarded for live display; finalized text arrives separately via
// OnUtterance, so final-tagged updates are ignored here.
func (o *Orchestrator) OnTranscript(text string, final bool) {
	if final {
		return
	}
	o.enqueue(event{kind: evInterim, text: text})
}

// OnUtterance receives each finalized user utterance exactly once.
func (o *Orchestrator) OnUtterance(text string) {
	o.enqueue(event{kind: evUtterance, text: text})
}

// RequestEnd ends the interview from any phase.
func (o *Orchestrator) RequestEnd() { o.enqueue(event{kind: evEndRequested}) }

// RequestNextQuestion skips to the backend's next question.
func (o *Orchestrator) RequestNextQuestion() { o.enqueue(event{kind: evNextRequested}) }

// ToggleMic flips the mic flag, stopping or restarting capture to match.
func (o *Orchestrator) ToggleMic() { o.enqueue(event{kind: evToggleMic}) }

// ToggleCamera flips the camera flag.
func (o *Orchestrator) ToggleCamera() { o.enqueue(event{kind: evToggleCamera}) }

// Run drives one complete session and blocks until it ends, aborts, or the
// context is cancelled. The snapshot's job info must be set before Run.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	defer o.Teardown()

	job := o.cfg.Store.Snapshot().Job
	if job.Title == "" {
		slog.Warn("no job info, leaving interview")
		return ErrNoJobInfo
	}

	o.setPhase(Introducing)
	o.cfg.Store.Dispatch(state.SetProcessing{Processing: true})

	type startResult struct {
		resp *transport.StartResponse
		err  error
	}
	startCh := make(chan startResult, 1)
	go func() {
		resp, err := o.cfg.Control.Start(ctx, job)
		startCh <- startResult{resp, err}
	}()

	var greeting string
establish:
	for {
		select {
		case <-ctx.Done():
			o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
			return ctx.Err()
		case ev := <-o.events:
			if ev.kind == evEndRequested {
				// Start never completed; the end path skips the
				// network call entirely.
				return o.finish(ctx)
			}
		case res := <-startCh:
			if res.err != nil {
				return o.abort(res.err)
			}

			o.mu.Lock()
			o.sessionID = res.resp.SessionID
			o.mu.Unlock()
			greeting = res.resp.Message

			stream, err := o.cfg.OpenStream(ctx, res.resp.SessionID)
			if err != nil {
				return o.abort(err)
			}
			o.mu.Lock()
			o.stream = stream
			o.mu.Unlock()
			go o.pumpFrames(stream)
			break establish
		}
	}

	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	var tracer *trace.Tracer
	if o.cfg.Trace != nil {
		tracer = trace.NewTracer(o.cfg.Trace, o.SessionID(), job.Title)
	}
	defer tracer.Close()

	o.appendEntry(ctx, state.SpeakerAI, greeting)
	o.cfg.Store.Dispatch(state.SetCurrentQuestion{Text: greeting})
	o.cfg.Store.Dispatch(state.StartInterview{})
	o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
	o.setPhase(AwaitingUserTurn)
	slog.Info("session established", "session_id", o.SessionID())

	o.captureStart(ctx)

	turnID := tracer.StartTurn(greeting)
	turnStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-o.events:
			switch ev.kind {
			case evUtterance:
				o.appendEntry(ctx, state.SpeakerUser, ev.text)
				if err := o.send(ev.text, true); err != nil {
					slog.Warn("utterance forward failed", "error", err)
				}
				metrics.TurnsTotal.Inc()
				tracer.EndTurn(turnID, ev.text, float64(time.Since(turnStart).Milliseconds()), "answered")
				turnID = ""
				o.cfg.Store.Dispatch(state.SetProcessing{Processing: true})
				o.setPhase(AiTurnPending)

			case evInterim:
				if err := o.send(ev.text, false); err != nil {
					slog.Debug("interim forward failed", "error", err)
				}

			case evAIText:
				o.appendEntry(ctx, state.SpeakerAI, ev.text)
				o.cfg.Store.Dispatch(state.SetCurrentQuestion{Text: ev.text})
				o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
				turnID = tracer.StartTurn(ev.text)
				turnStart = time.Now()
				o.setPhase(AwaitingUserTurn)

			case evAudio:
				o.playerAppend(ev.audio)

			case evStreamClosed:
				o.playerFinalize()
				err := ev.err
				if err == nil {
					err = transport.ErrStreamClosed
				}
				return o.abort(fmt.Errorf("streaming channel lost: %w", err))

			case evNextRequested:
				o.cfg.Store.Dispatch(state.SetProcessing{Processing: true})
				msg, err := o.cfg.Control.RequestNext(ctx, o.SessionID())
				if err != nil {
					slog.Warn("next-question request failed", "error", err)
					o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
					continue
				}
				o.appendEntry(ctx, state.SpeakerAI, msg.Text)
				o.cfg.Store.Dispatch(state.SetCurrentQuestion{Text: msg.Text})
				o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
				turnID = tracer.StartTurn(msg.Text)
				turnStart = time.Now()
				o.setPhase(AwaitingUserTurn)

			case evToggleMic:
				snap := o.cfg.Store.Dispatch(state.ToggleMic{})
				if snap.MicActive {
					o.captureStart(ctx)
				} else {
					o.captureStop()
				}

			case evToggleCamera:
				o.cfg.Store.Dispatch(state.ToggleCamera{})

			case evEndRequested:
				tracer.EndSession()
				return o.finish(ctx)
			}
		}
	}
}

// Teardown stops capture and closes the streaming channel if open. Idempotent
// and order-independent with the end-of-interview path.
func (o *Orchestrator) Teardown() {
	o.mu.Lock()
	stream := o.stream
	o.stream = nil
	o.mu.Unlock()

	o.captureStop()
	if stream != nil {
		stream.Close()
	}
}

// finish runs the end-of-interview path. It always reaches Ended with a
// usable feedback record, degraded if the summary cannot be retrieved.
func (o *Orchestrator) finish(ctx context.Context) error {
	o.captureStop()

	id := o.SessionID()
	var fb *state.Feedback
	if id == "" {
		fb = neverEstablishedFeedback()
	} else {
		o.cfg.Store.Dispatch(state.SetProcessing{Processing: true})
		summary, err := o.cfg.Control.End(ctx, id)
		if err != nil {
			metrics.Errors.WithLabelValues("session", "end").Inc()
			slog.Error("end-of-interview call failed", "session_id", id, "error", err)
			fb = degradedFeedback()
		} else {
			fb = feedbackFromSummary(summary)
		}
		o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
	}

	o.cfg.Store.Dispatch(state.SetFeedback{Feedback: fb})
	o.cfg.Store.Dispatch(state.EndInterview{})
	o.setPhase(Ended)
	o.Teardown()
	o.playerFinalize()
	slog.Info("session ended", "session_id", id)
	return nil
}

// abort is the ErrorRecovery path: no retry, processing flag cleared, one
// blocking notice to the user.
func (o *Orchestrator) abort(err error) error {
	o.cfg.Store.Dispatch(state.SetProcessing{Processing: false})
	o.setPhase(ErrorRecovery)
	metrics.Errors.WithLabelValues("session", "abort").Inc()
	slog.Error("session aborted", "error", err)
	o.alert("The interview could not continue: " + err.Error())
	return err
}

// pumpFrames flattens streaming-channel frames into the event queue.
func (o *Orchestrator) pumpFrames(stream UtteranceStream) {
	closedSeen := false
	for f := range stream.Frames() {
		switch f.Kind {
		case transport.FrameText:
			o.enqueue(event{kind: evAIText, text: f.Text})
		case transport.FrameAudio:
			o.enqueue(event{kind: evAudio, audio: f.Audio})
		case transport.FrameClosed:
			closedSeen = true
			o.enqueue(event{kind: evStreamClosed, err: f.Err})
		}
	}
	if !closedSeen {
		o.enqueue(event{kind: evStreamClosed})
	}
}

// appendEntry records one transcript entry and persists it best-effort.
func (o *Orchestrator) appendEntry(ctx context.Context, speaker state.Speaker, text string) {
	entry := state.TranscriptEntry{Speaker: speaker, Text: text}
	o.cfg.Store.Dispatch(state.AppendTranscript{Entry: entry})
	metrics.TranscriptEntries.WithLabelValues(string(speaker)).Inc()

	if id := o.SessionID(); id != "" {
		if err := o.cfg.Control.SaveTranscript(ctx, id, entry, time.Now()); err != nil {
			slog.Warn("transcript save failed", "error", err)
		}
	}
}

func (o *Orchestrator) send(text string, final bool) error {
	o.mu.Lock()
	stream := o.stream
	o.mu.Unlock()
	if stream == nil {
		return transport.ErrStreamClosed
	}
	return stream.SendUtterance(text, final)
}

func (o *Orchestrator) enqueue(ev event) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	slog.Debug("phase change", "phase", p.String())
}

func (o *Orchestrator) captureStart(ctx context.Context) {
	if o.cfg.Capture != nil {
		o.cfg.Capture.Start(ctx)
	}
}

func (o *Orchestrator) captureStop() {
	if o.cfg.Capture != nil {
		o.cfg.Capture.Stop()
	}
}

func (o *Orchestrator) playerAppend(chunk []byte) {
	if o.cfg.Player != nil {
		o.cfg.Player.Append(chunk)
	}
}

func (o *Orchestrator) playerFinalize() {
	if o.cfg.Player != nil {
		o.cfg.Player.Finalize()
	}
}

func (o *Orchestrator) alert(msg string) {
	if o.cfg.OnAlert != nil {
		o.cfg.OnAlert(msg)
		return
	}
	slog.Error("session alert", "message", msg)
}
