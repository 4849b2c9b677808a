package playback

import (
	"log/slog"
	"sync"

	"github.com/hireloop/interview-client/internal/metrics"
)

// queueDepth bounds how many chunks may wait behind an in-progress append.
// Arrivals beyond that are dropped rather than interleaved.
const queueDepth = 16

// Player renders the AI's synthesized speech as it streams in. One feeder
// goroutine owns the sink, so appends happen strictly in arrival order and
// never overlap; the bounded queue is the admission gate in front of it.
type Player struct {
	sink Sink
	in   chan []byte
	done chan struct{}

	mu       sync.Mutex
	finished bool
}

// New opens a player over the sink produced by open. Setup failure degrades
// to a no-audio sink instead of blocking the session.
func New(open func() (Sink, error)) *Player {
	sink, err := open()
	if err != nil {
		metrics.Errors.WithLabelValues("playback", "setup").Inc()
		slog.Error("audio sink setup failed, continuing without audio", "error", err)
		sink = discardSink{}
	}

	p := &Player{
		sink: sink,
		in:   make(chan []byte, queueDepth),
		done: make(chan struct{}),
	}
	go p.feed()
	return p
}

// Append admits one audio chunk. Chunks arriving while the sink is busy queue
// up; when the queue is full they are dropped. After Finalize, appends are
// discarded so a finished sink never sees another write. The send happens
// under the same lock Finalize closes the queue under, so Append and Finalize
// are safe from different goroutines.
func (p *Player) Append(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		metrics.AudioChunksDropped.Inc()
		return
	}

	select {
	case p.in <- chunk:
	default:
		metrics.AudioChunksDropped.Inc()
		slog.Warn("audio chunk dropped, sink backlogged")
	}
}

// Finalize signals end-of-stream: queued chunks still drain, then the sink is
// finalized so playback completes instead of hanging. Idempotent.
func (p *Player) Finalize() {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	close(p.in)
	p.mu.Unlock()
}

// Done is closed once the sink has been finalized.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) feed() {
	defer close(p.done)

	for chunk := range p.in {
		if err := p.sink.Append(chunk); err != nil {
			metrics.Errors.WithLabelValues("playback", "append").Inc()
			slog.Error("audio append failed", "error", err)
		}
	}

	if err := p.sink.EndOfStream(); err != nil {
		slog.Error("audio end-of-stream failed", "error", err)
	}
}
