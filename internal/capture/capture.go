package capture

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hireloop/interview-client/internal/metrics"
)

// ErrCaptureUnavailable classifies the degraded no-engine condition in logs.
// It never crosses the adapter's public boundary.
var ErrCaptureUnavailable = errors.New("no speech capture engine available")

// Config wires a capture adapter.
type Config struct {
	Engines    *Router[Engine]
	EngineName string

	// MicActive gates Start. Nil means the mic is always considered on.
	MicActive func() bool

	// OnTranscript receives every incremental update with its finality tag.
	OnTranscript func(text string, final bool)

	// OnPromote receives each finalized utterance exactly once.
	OnPromote func(text string)
}

// Adapter wraps a continuous recognition engine and owns its lifecycle. All
// failure modes degrade to logging; Start and Stop never panic or return
// errors across the public boundary.
type Adapter struct {
	cfg Config

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	engine       Engine
	current      string
	lastPromoted string
}

// New creates a capture adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Start begins continuous capture. Silent no-op (logged) if the mic is
// toggled off, no engine is available, or the engine fails to start.
func (a *Adapter) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return
	}
	if a.cfg.MicActive != nil && !a.cfg.MicActive() {
		slog.Info("capture not started, mic is off")
		return
	}
	if a.cfg.Engines == nil {
		slog.Warn("capture unavailable", "error", ErrCaptureUnavailable)
		return
	}
	engine, err := a.cfg.Engines.Route(a.cfg.EngineName)
	if err != nil {
		slog.Warn("capture unavailable", "error", err, "engines", a.cfg.Engines.Engines())
		return
	}

	engineCtx, cancel := context.WithCancel(ctx)
	if err := engine.Start(engineCtx, a.handleEvent); err != nil {
		cancel()
		metrics.Errors.WithLabelValues("capture", "start").Inc()
		slog.Error("capture start failed", "error", err)
		return
	}

	a.engine = engine
	a.cancel = cancel
	a.current = ""
	a.running = true
	slog.Info("capture started", "engine", a.cfg.EngineName)
}

// Stop halts capture and releases the engine. Idempotent; safe when never
// started and after teardown.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Adapter) stopLocked() {
	if !a.running {
		return
	}
	a.running = false
	a.cancel()
	a.engine.Stop()
	a.engine = nil
	slog.Info("capture stopped")
}

// Running reports whether capture is live.
func (a *Adapter) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Adapter) handleEvent(ev EngineEvent) {
	switch ev.Kind {
	case EngineResult:
		a.handleResult(ev)
	case EngineUtteranceEnd:
		a.handleUtteranceEnd()
	case EngineError:
		metrics.Errors.WithLabelValues("capture", "engine").Inc()
		slog.Error("capture engine error", "error", ev.Err)
		a.Stop()
	}
}

func (a *Adapter) handleResult(ev EngineEvent) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	final := ev.Final || looksFinal(text)

	a.mu.Lock()
	a.current = text
	onTranscript := a.cfg.OnTranscript
	a.mu.Unlock()

	if onTranscript != nil {
		onTranscript(text, final)
	}

	// An explicitly final result promotes immediately; the trailing
	// end-of-utterance signal for the same text is deduplicated.
	if ev.Final {
		a.promote(text)
	}
}

func (a *Adapter) handleUtteranceEnd() {
	a.mu.Lock()
	text := a.current
	a.current = ""
	a.mu.Unlock()

	if text == "" {
		return
	}
	a.promote(text)
}

// promote hands a finalized utterance to the session exactly once.
func (a *Adapter) promote(text string) {
	a.mu.Lock()
	if text == a.lastPromoted {
		a.mu.Unlock()
		metrics.UtterancesDeduped.Inc()
		return
	}
	a.lastPromoted = text
	onPromote := a.cfg.OnPromote
	a.mu.Unlock()

	metrics.UtterancesPromoted.Inc()
	if onPromote != nil {
		onPromote(text)
	}
}

// sentenceEnders are the terminal punctuation marks used to tag an utterance
// as final when the engine does not report finality itself.
var sentenceEnders = map[byte]bool{'.': true, '!': true, '?': true}

func looksFinal(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return sentenceEnders[trimmed[len(trimmed)-1]]
}
