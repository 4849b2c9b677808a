package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newStreamServer runs handler for each streaming connection and returns the
// ws:// URL base.
func newStreamServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/interview/ws/"))
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collectFrames(t *testing.T, s *Stream, n int) []Frame {
	t.Helper()
	var frames []Frame
	deadline := time.After(5 * time.Second)
	for len(frames) < n {
		select {
		case f, ok := <-s.Frames():
			if !ok {
				return frames
			}
			frames = append(frames, f)
		case <-deadline:
			t.Fatalf("timed out after %d frames", len(frames))
		}
	}
	return frames
}

func TestStreamDeliversTextAndAudioInOrder(t *testing.T) {
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		// First the client's utterance frame.
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame UtteranceFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "I have five years of experience.", frame.Text)
		assert.True(t, frame.IsFinal)

		// Then a remark followed by two audio chunks.
		require.NoError(t, conn.WriteJSON(AgentMessage{Text: "Tell me more."}))
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x1a, 0x45}))
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xdf, 0xa3}))
	})

	s, err := OpenStream(context.Background(), wsURL, "s1")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendUtterance("I have five years of experience.", true))

	frames := collectFrames(t, s, 4)
	require.Len(t, frames, 4)
	assert.Equal(t, FrameText, frames[0].Kind)
	assert.Equal(t, "Tell me more.", frames[0].Text)
	assert.Equal(t, FrameAudio, frames[1].Kind)
	assert.Equal(t, []byte{0x1a, 0x45}, frames[1].Audio)
	assert.Equal(t, FrameAudio, frames[2].Kind)
	assert.Equal(t, FrameClosed, frames[3].Kind)
}

func TestStreamSkipsMalformedAndEmptyTextFrames(t *testing.T) {
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteJSON(AgentMessage{Text: ""}))
		require.NoError(t, conn.WriteJSON(AgentMessage{Text: "real question"}))
	})

	s, err := OpenStream(context.Background(), wsURL, "s1")
	require.NoError(t, err)
	defer s.Close()

	frames := collectFrames(t, s, 2)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameText, frames[0].Kind)
	assert.Equal(t, "real question", frames[0].Text)
	assert.Equal(t, FrameClosed, frames[1].Kind)
}

func TestStreamCloseIsIdempotentAndStopsWrites(t *testing.T) {
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	s, err := OpenStream(context.Background(), wsURL, "s1")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close()) // second close is a no-op

	err = s.SendUtterance("late", true)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStreamDialFailureIsConnectivity(t *testing.T) {
	_, err := OpenStream(context.Background(), "ws://127.0.0.1:1", "s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)
}
