package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/hireloop/interview-client/internal/audio"
	"github.com/hireloop/interview-client/internal/metrics"
	"github.com/hireloop/interview-client/internal/transport"
)

// recognizerRate is the sample rate the whisper endpoint expects.
const recognizerRate = 16000

// WhisperConfig wires a whisper-backed recognition engine.
type WhisperConfig struct {
	// URL of a whisper-compatible transcription server.
	URL      string
	PoolSize int

	// Source supplies encoded microphone audio. Reads are paced at real
	// time by ChunkDuration so utterance segmentation sees wall-clock gaps.
	Source        io.Reader
	Codec         audio.Codec
	SampleRate    int
	ChunkDuration time.Duration

	Segmenter audio.SegmenterConfig
}

// WhisperEngine segments microphone audio into utterances and transcribes
// each one over HTTP. It reports only explicit-final results: whisper has no
// interim hypotheses, so every emitted transcript is already settled.
type WhisperEngine struct {
	cfg    WhisperConfig
	client *http.Client

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWhisperEngine creates a whisper capture engine.
func NewWhisperEngine(cfg WhisperConfig) *WhisperEngine {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 20 * time.Millisecond
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = recognizerRate
	}
	if cfg.Segmenter.SampleRate == 0 {
		cfg.Segmenter = audio.DefaultSegmenterConfig()
	}
	return &WhisperEngine{
		cfg:    cfg,
		client: transport.NewPooledHTTPClient(cfg.PoolSize, 30*time.Second),
	}
}

// Start begins reading, segmenting, and transcribing audio until Stop or ctx
// cancellation.
func (e *WhisperEngine) Start(ctx context.Context, emit EmitFunc) error {
	if e.cfg.Source == nil {
		return fmt.Errorf("whisper engine: no audio source")
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx, emit)
	return nil
}

// Stop halts the engine. Idempotent.
func (e *WhisperEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *WhisperEngine) run(ctx context.Context, emit EmitFunc) {
	seg := audio.NewSegmenter(e.cfg.Segmenter)
	chunkBytes := 2 * e.cfg.SampleRate * int(e.cfg.ChunkDuration.Milliseconds()) / 1000
	if e.cfg.Codec != audio.CodecPCM {
		chunkBytes /= 2 // G.711 is one byte per sample
	}
	buf := make([]byte, chunkBytes)
	ticker := time.NewTicker(e.cfg.ChunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := e.cfg.Source.Read(buf)
		if n > 0 {
			samples, srcRate, decErr := audio.Decode(buf[:n], e.cfg.Codec, e.cfg.SampleRate)
			if decErr != nil {
				emit(EngineEvent{Kind: EngineError, Err: decErr})
				return
			}
			resampled := audio.Resample(samples, srcRate, recognizerRate)
			if res := seg.Process(resampled); res.UtteranceEnded {
				e.finishUtterance(ctx, res.Audio, emit)
			}
		}
		if err != nil {
			if err != io.EOF {
				emit(EngineEvent{Kind: EngineError, Err: err})
				return
			}
			if remaining := seg.Flush(); len(remaining) > 0 {
				e.finishUtterance(ctx, remaining, emit)
			}
			return
		}
	}
}

func (e *WhisperEngine) finishUtterance(ctx context.Context, speech []float32, emit EmitFunc) {
	metrics.SpeechSegments.Inc()

	text, err := e.transcribe(ctx, speech)
	if err != nil {
		emit(EngineEvent{Kind: EngineError, Err: err})
		return
	}
	if text == "" {
		return
	}
	emit(EngineEvent{Kind: EngineResult, Text: text, Final: true})
	emit(EngineEvent{Kind: EngineUtteranceEnd})
}

// transcribe sends one utterance as multipart WAV and returns the transcript.
func (e *WhisperEngine) transcribe(ctx context.Context, samples []float32) (string, error) {
	body, contentType, err := buildMultipartAudio(samples)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.URL+"/inference", body)
	if err != nil {
		return "", fmt.Errorf("create whisper request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("whisper status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	slog.Debug("utterance transcribed", "text", result.Text)
	return result.Text, nil
}

func buildMultipartAudio(samples []float32) (*bytes.Buffer, string, error) {
	wavData := audio.SamplesToWAV(samples, recognizerRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err = part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
