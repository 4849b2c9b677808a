package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hireloop/interview-client/internal/metrics"
)

// FrameKind discriminates inbound streaming-channel frames.
type FrameKind int

const (
	// FrameText is a JSON {text} frame carrying the AI's next remark.
	FrameText FrameKind = iota
	// FrameAudio is a raw binary frame: one sequential chunk of the AI's
	// synthesized speech.
	FrameAudio
	// FrameClosed is delivered exactly once, when the channel shuts down.
	// No frames follow it and no reconnect is attempted.
	FrameClosed
)

// Frame is one inbound streaming-channel event.
type Frame struct {
	Kind  FrameKind
	Text  string
	Audio []byte
	Err   error
}

// Stream is the duplex streaming channel for one session: user utterances
// out, AI text and audio in. Opened once per session right after the control
// channel start succeeds; never reopened.
type Stream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	frames  chan Frame
	closed  chan struct{}
	once    sync.Once
}

// OpenStream dials the streaming channel for an established session.
func OpenStream(ctx context.Context, wsBaseURL, sessionID string) (*Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsBaseURL+"/interview/ws/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: stream dial: %v", ErrConnectivity, err)
	}

	s := &Stream{
		conn:   conn,
		frames: make(chan Frame, 32),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Frames returns the inbound frame channel. It is closed after FrameClosed.
func (s *Stream) Frames() <-chan Frame {
	return s.frames
}

// SendUtterance writes one {text, is_final} frame. Writes are serialized so
// frames are never interleaved on the wire.
func (s *Stream) SendUtterance(text string, isFinal bool) error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
	}

	data, err := json.Marshal(UtteranceFrame{Text: text, IsFinal: isFinal})
	if err != nil {
		return fmt.Errorf("marshal utterance: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err = s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		metrics.Errors.WithLabelValues("stream", "write").Inc()
		return fmt.Errorf("%w: %v", ErrStreamClosed, err)
	}
	return nil
}

// Close tears the channel down. Idempotent, safe from any goroutine, and
// order-independent with the peer closing first.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// readLoop delivers inbound frames in arrival order until the connection
// drops, then emits FrameClosed and closes the frame channel.
func (s *Stream) readLoop() {
	defer close(s.frames)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			final := Frame{Kind: FrameClosed}
			select {
			case <-s.closed:
				// local teardown, expected
			default:
				slog.Info("streaming channel closed", "error", err)
				final.Err = err
			}
			// Non-blocking: if nobody is draining frames anymore, the
			// closed channel itself is the terminal signal.
			select {
			case s.frames <- final:
			default:
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			metrics.AudioChunksReceived.Inc()
			s.frames <- Frame{Kind: FrameAudio, Audio: data}
		case websocket.TextMessage:
			var msg AgentMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				slog.Error("bad streaming frame", "error", err)
				continue
			}
			if msg.Text == "" {
				continue
			}
			s.frames <- Frame{Kind: FrameText, Text: msg.Text}
		}
	}
}
