package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_sessions_active",
		Help: "Currently active interview sessions",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_sessions_total",
		Help: "Total interview sessions started",
	})

	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_turns_total",
		Help: "Completed user/AI turn exchanges",
	})

	TranscriptEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_transcript_entries_total",
		Help: "Transcript entries appended, by speaker",
	}, []string{"speaker"})

	UtterancesPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_utterances_promoted_total",
		Help: "Finalized utterances promoted into the transcript",
	})

	UtterancesDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_utterances_deduped_total",
		Help: "End-of-utterance promotions suppressed as duplicates",
	})

	SpeechSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_speech_segments_total",
		Help: "Speech segments detected by the capture engine",
	})

	AudioChunksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_audio_chunks_total",
		Help: "Binary audio chunks received on the streaming channel",
	})

	AudioChunksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_audio_chunks_dropped_total",
		Help: "Audio chunks dropped because the sink admission gate was full",
	})

	ControlCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "control_call_duration_seconds",
		Help:    "Control channel request latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"op"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_errors_total",
		Help: "Error counts by component and kind",
	}, []string{"component", "kind"})
)
