package capture

import (
	"context"
	"fmt"
)

// EngineEventKind discriminates events surfaced by a recognition engine.
type EngineEventKind int

const (
	// EngineResult is an incremental recognition update: the best current
	// transcript of the in-progress utterance.
	EngineResult EngineEventKind = iota
	// EngineUtteranceEnd signals the natural end of an utterance.
	EngineUtteranceEnd
	// EngineError reports a recognition failure. The engine stops; the
	// adapter remains restartable.
	EngineError
)

// EngineEvent is one recognition event.
type EngineEvent struct {
	Kind  EngineEventKind
	Text  string
	Final bool
	Err   error
}

// EmitFunc receives engine events. Engines invoke it from a single goroutine
// so event order is preserved.
type EmitFunc func(EngineEvent)

// Engine is a continuous speech recognizer. Start begins capture and returns
// once the engine is running; events arrive via emit until Stop or ctx
// cancellation. Stop must be idempotent.
type Engine interface {
	Start(ctx context.Context, emit EmitFunc) error
	Stop()
}

// Router maps engine names to registered backends with a fallback default.
type Router[T any] struct {
	backends map[string]T
	fallback string
}

// NewRouter creates a router with the given backends and fallback engine name.
func NewRouter[T any](backends map[string]T, fallback string) *Router[T] {
	return &Router[T]{backends: backends, fallback: fallback}
}

// Route returns the backend for the given engine name, falling back to the
// default.
func (r *Router[T]) Route(engine string) (T, error) {
	if backend, ok := r.backends[engine]; ok {
		return backend, nil
	}
	if backend, ok := r.backends[r.fallback]; ok {
		return backend, nil
	}
	var zero T
	return zero, fmt.Errorf("no backend for engine %q", engine)
}

// Engines returns the names of all registered backends.
func (r *Router[T]) Engines() []string {
	names := make([]string, 0, len(r.backends))
	for k := range r.backends {
		names = append(names, k)
	}
	return names
}
