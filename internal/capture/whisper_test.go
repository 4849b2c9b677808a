package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-client/internal/audio"
)

// loudPCM returns little-endian 16-bit PCM well above the speech threshold.
func loudPCM(samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(16000)))
	}
	return buf
}

func TestWhisperEngineTranscribesOnEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inference", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		header := make([]byte, 4)
		_, err = f.Read(header)
		require.NoError(t, err)
		assert.Equal(t, "RIFF", string(header))

		json.NewEncoder(w).Encode(map[string]string{"text": "I enjoy systems work."})
	}))
	defer srv.Close()

	// Half a second of speech, then EOF: the flush path must still produce
	// a transcript.
	source := bytes.NewReader(loudPCM(8000))
	engine := NewWhisperEngine(WhisperConfig{
		URL:           srv.URL,
		PoolSize:      2,
		Source:        source,
		Codec:         audio.CodecPCM,
		SampleRate:    16000,
		ChunkDuration: time.Millisecond,
	})

	events := make(chan EngineEvent, 8)
	require.NoError(t, engine.Start(context.Background(), func(ev EngineEvent) { events <- ev }))
	defer engine.Stop()

	var got []EngineEvent
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events", len(got))
		}
	}

	require.Equal(t, EngineResult, got[0].Kind)
	assert.Equal(t, "I enjoy systems work.", got[0].Text)
	assert.True(t, got[0].Final)
	assert.Equal(t, EngineUtteranceEnd, got[1].Kind)
}

func TestWhisperEngineReportsTranscriptionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	engine := NewWhisperEngine(WhisperConfig{
		URL:           srv.URL,
		PoolSize:      1,
		Source:        bytes.NewReader(loudPCM(8000)),
		Codec:         audio.CodecPCM,
		SampleRate:    16000,
		ChunkDuration: time.Millisecond,
	})

	events := make(chan EngineEvent, 8)
	require.NoError(t, engine.Start(context.Background(), func(ev EngineEvent) { events <- ev }))
	defer engine.Stop()

	select {
	case ev := <-events:
		require.Equal(t, EngineError, ev.Kind)
		assert.Error(t, ev.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("no error event")
	}
}

func TestWhisperEngineRequiresSource(t *testing.T) {
	engine := NewWhisperEngine(WhisperConfig{URL: "http://localhost:0"})
	err := engine.Start(context.Background(), func(EngineEvent) {})
	assert.Error(t, err)
}
