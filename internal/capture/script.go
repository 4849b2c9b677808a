package capture

import (
	"context"
	"sync"
	"time"
)

// ScriptStep is one scripted recognition event.
type ScriptStep struct {
	Text  string
	Final bool
	// End emits an end-of-utterance signal after the result (or alone,
	// when Text is empty).
	End   bool
	Delay time.Duration
}

// ScriptEngine replays a fixed sequence of recognition events. Used by tests
// and by the CLI's offline mode, where answers come from a script instead of
// a microphone.
type ScriptEngine struct {
	steps []ScriptStep

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScriptEngine creates an engine replaying the given steps.
func NewScriptEngine(steps []ScriptStep) *ScriptEngine {
	return &ScriptEngine{steps: steps}
}

func (e *ScriptEngine) Start(ctx context.Context, emit EmitFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go func() {
		for _, step := range e.steps {
			if step.Delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(step.Delay):
				}
			}
			if ctx.Err() != nil {
				return
			}
			if step.Text != "" {
				emit(EngineEvent{Kind: EngineResult, Text: step.Text, Final: step.Final})
			}
			if step.End {
				emit(EngineEvent{Kind: EngineUtteranceEnd})
			}
		}
	}()
	return nil
}

func (e *ScriptEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
