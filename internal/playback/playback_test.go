package playback

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSink lets tests hold the feeder goroutine mid-append.
type blockingSink struct {
	mu      sync.Mutex
	gate    chan struct{}
	chunks  [][]byte
	ends    int
	appends int
}

func newBlockingSink() *blockingSink {
	return &blockingSink{gate: make(chan struct{})}
}

func (s *blockingSink) Append(chunk []byte) error {
	s.mu.Lock()
	s.appends++
	first := s.appends == 1
	s.mu.Unlock()
	if first {
		<-s.gate
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
	s.mu.Unlock()
	return nil
}

func (s *blockingSink) EndOfStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends++
	return nil
}

func waitDone(t *testing.T, p *Player) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player never finished")
	}
}

func TestPlayerAppendsInArrivalOrder(t *testing.T) {
	var buf bytes.Buffer
	p := New(func() (Sink, error) { return NewWriterSink(&buf), nil })

	p.Append([]byte("one "))
	p.Append([]byte("two "))
	p.Append([]byte("three"))
	p.Finalize()
	waitDone(t, p)

	assert.Equal(t, "one two three", buf.String())
}

func TestPlayerDropsWhenGateIsFull(t *testing.T) {
	sink := newBlockingSink()
	p := New(func() (Sink, error) { return sink, nil })

	// First chunk parks the feeder inside Append; the queue behind it holds
	// queueDepth more. Everything past that must be dropped, not queued.
	p.Append([]byte{0})
	for i := 0; i < queueDepth+5; i++ {
		p.Append([]byte{byte(i + 1)})
	}

	close(sink.gate)
	p.Finalize()
	waitDone(t, p)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.LessOrEqual(t, len(sink.chunks), queueDepth+1)
	// Order of what survived is still arrival order.
	for i := 1; i < len(sink.chunks); i++ {
		assert.Less(t, sink.chunks[i-1][0], sink.chunks[i][0])
	}
}

func TestPlayerFinalizeDrainsThenEndsStream(t *testing.T) {
	sink := newBlockingSink()
	close(sink.gate)
	p := New(func() (Sink, error) { return sink, nil })

	p.Append([]byte("a"))
	p.Append([]byte("b"))
	p.Finalize()
	waitDone(t, p)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.chunks, 2)
	assert.Equal(t, 1, sink.ends)
}

func TestPlayerFinalizeIsIdempotent(t *testing.T) {
	sink := newBlockingSink()
	close(sink.gate)
	p := New(func() (Sink, error) { return sink, nil })

	p.Finalize()
	p.Finalize()
	waitDone(t, p)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.ends)
}

func TestPlayerAppendAfterFinalizeIsDiscarded(t *testing.T) {
	sink := newBlockingSink()
	close(sink.gate)
	p := New(func() (Sink, error) { return sink, nil })

	p.Finalize()
	waitDone(t, p)
	p.Append([]byte("late"))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.chunks)
}

func TestPlayerAppendRacingFinalizeDoesNotPanic(t *testing.T) {
	sink := newBlockingSink()
	close(sink.gate)
	p := New(func() (Sink, error) { return sink, nil })

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p.Append([]byte{byte(i)})
			}
		}()
	}
	p.Finalize()
	wg.Wait()
	waitDone(t, p)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.ends)
}

func TestPlayerDegradesOnSetupFailure(t *testing.T) {
	p := New(func() (Sink, error) { return nil, errors.New("no output device") })

	// A degraded player still accepts the full lifecycle without panicking.
	p.Append([]byte("audio"))
	p.Finalize()
	waitDone(t, p)
}

func TestWriterSinkEndOfStreamClosesCloser(t *testing.T) {
	pr, pw := newClosablePipe()
	s := NewWriterSink(pw)
	require.NoError(t, s.Append([]byte("x")))
	require.NoError(t, s.EndOfStream())
	assert.True(t, pr.closed)
}

type closableBuf struct {
	bytes.Buffer
	closed bool
}

func (c *closableBuf) Close() error {
	c.closed = true
	return nil
}

func newClosablePipe() (*closableBuf, *closableBuf) {
	b := &closableBuf{}
	return b, b
}
