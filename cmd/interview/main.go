package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hireloop/interview-client/internal/audio"
	"github.com/hireloop/interview-client/internal/capture"
	"github.com/hireloop/interview-client/internal/playback"
	"github.com/hireloop/interview-client/internal/session"
	"github.com/hireloop/interview-client/internal/state"
	"github.com/hireloop/interview-client/internal/trace"
	"github.com/hireloop/interview-client/internal/transport"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()

	if cfg.listSessions || cfg.showSession != "" {
		if cfg.traceDBURL == "" {
			fmt.Fprintln(os.Stderr, "trace queries need -trace-db")
			os.Exit(2)
		}
		ts, err := trace.Open(cfg.traceDBURL)
		if err != nil {
			slog.Error("trace open failed", "error", err)
			os.Exit(1)
		}
		defer ts.Close()
		if err := runTraceQuery(os.Stdout, ts, cfg); err != nil {
			slog.Error("trace query failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.job.Title == "" {
		fmt.Fprintln(os.Stderr, "missing -job-title")
		os.Exit(2)
	}

	if cfg.metricsAddr != "" {
		go serveMetrics(cfg.metricsAddr)
	}

	var traceStore *trace.Store
	if cfg.traceDBURL != "" {
		ts, err := trace.Open(cfg.traceDBURL)
		if err != nil {
			slog.Warn("turn tracing disabled", "error", err)
		} else {
			traceStore = ts
			defer ts.Close()
		}
	}

	store := state.NewStore()
	store.Dispatch(state.SetJobInfo{Job: cfg.job})

	var printMu sync.Mutex
	printed := 0
	store.Subscribe(func(snap state.Snapshot) {
		printMu.Lock()
		defer printMu.Unlock()
		for ; printed < len(snap.Transcript); printed++ {
			e := snap.Transcript[printed]
			fmt.Printf("[%s] %s\n", e.Speaker, e.Text)
		}
	})

	control := transport.NewControlClient(cfg.apiURL, cfg.httpPoolSize)

	player := playback.New(func() (playback.Sink, error) {
		if cfg.audioOut == "" {
			return playback.NewWriterSink(io.Discard), nil
		}
		f, err := os.Create(cfg.audioOut)
		if err != nil {
			return nil, err
		}
		return playback.NewWriterSink(f), nil
	})

	var orch *session.Orchestrator

	engines, engineName := buildEngines(cfg)
	adapter := capture.New(capture.Config{
		Engines:    engines,
		EngineName: engineName,
		MicActive:  func() bool { return store.Snapshot().MicActive },
		OnTranscript: func(text string, final bool) {
			orch.OnTranscript(text, final)
		},
		OnPromote: func(text string) {
			orch.OnUtterance(text)
		},
	})

	orch = session.New(session.Config{
		Store:   store,
		Control: control,
		OpenStream: func(ctx context.Context, sessionID string) (session.UtteranceStream, error) {
			return transport.OpenStream(ctx, cfg.wsURL, sessionID)
		},
		Capture: adapter,
		Player:  player,
		Trace:   traceStore,
		OnAlert: func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("ending interview", "signal", sig)
		orch.RequestEnd()
		sig = <-sigCh
		slog.Info("forcing shutdown", "signal", sig)
		cancel()
	}()

	if err := orch.Run(ctx); err != nil {
		if errors.Is(err, session.ErrNoJobInfo) {
			os.Exit(2)
		}
		slog.Error("session failed", "error", err)
		os.Exit(1)
	}

	// Let playback finish flushing before reading the terminal snapshot.
	select {
	case <-player.Done():
	case <-time.After(2 * time.Second):
	}

	if fb := store.Snapshot().Feedback; fb != nil {
		printFeedback(fb)
	}
}

// buildEngines wires the configured capture engine: scripted answers when a
// script file is given, whisper when a transcription server and audio source
// are. Nil disables capture; the session then runs text-input-free.
func buildEngines(cfg config) (*capture.Router[capture.Engine], string) {
	if cfg.script != "" {
		steps, err := loadScript(cfg.script, cfg.scriptDelay)
		if err != nil {
			slog.Warn("script unavailable, capture disabled", "error", err)
			return nil, ""
		}
		engine := capture.NewScriptEngine(steps)
		return capture.NewRouter(map[string]capture.Engine{"script": engine}, "script"), "script"
	}

	if cfg.whisperURL == "" || cfg.audioIn == "" {
		return nil, ""
	}

	src, err := openAudioSource(cfg.audioIn)
	if err != nil {
		slog.Warn("audio source unavailable, capture disabled", "error", err)
		return nil, ""
	}

	engine := capture.NewWhisperEngine(capture.WhisperConfig{
		URL:        cfg.whisperURL,
		PoolSize:   cfg.asrPoolSize,
		Source:     src,
		Codec:      audio.Codec(cfg.codec),
		SampleRate: cfg.sampleRate,
		Segmenter:  cfg.segmenter,
	})
	return capture.NewRouter(map[string]capture.Engine{"whisper": engine}, "whisper"), "whisper"
}

// loadScript turns a file of answers, one per line, into scripted recognition
// steps paced by delay.
func loadScript(path string, delay time.Duration) ([]capture.ScriptStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var steps []capture.ScriptStep
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, capture.ScriptStep{Text: line, Final: true, End: true, Delay: delay})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("script %s has no answers", path)
	}
	return steps, nil
}

func openAudioSource(path string) (io.Reader, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}

func printFeedback(fb *state.Feedback) {
	fmt.Println("\n=== Interview Feedback ===")
	fmt.Println(fb.Overall)

	if len(fb.Strengths) > 0 {
		fmt.Println("\nStrengths:")
		for _, s := range fb.Strengths {
			fmt.Println("  -", s)
		}
	}
	if len(fb.Improvements) > 0 {
		fmt.Println("\nAreas to improve:")
		for _, s := range fb.Improvements {
			fmt.Println("  -", s)
		}
	}
	for _, qf := range fb.QuestionFeedback {
		fmt.Printf("\nQ: %s\n   %s\n", qf.Question, qf.Feedback)
	}
}
