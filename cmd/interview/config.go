package main

import (
	"flag"
	"time"

	"github.com/hireloop/interview-client/internal/audio"
	"github.com/hireloop/interview-client/internal/env"
	"github.com/hireloop/interview-client/internal/state"
)

type config struct {
	apiURL       string
	wsURL        string
	whisperURL   string
	traceDBURL   string
	metricsAddr  string
	httpPoolSize int
	asrPoolSize  int

	codec      string
	sampleRate int
	audioIn    string
	audioOut   string

	script      string
	scriptDelay time.Duration

	listSessions bool
	showSession  string

	job state.JobInfo

	segmenter audio.SegmenterConfig
}

func loadConfig() config {
	seg := audio.DefaultSegmenterConfig()
	seg.SpeechThresholdDB = env.Float("CAPTURE_SPEECH_THRESHOLD_DB", seg.SpeechThresholdDB)

	cfg := config{
		httpPoolSize: env.Int("HTTP_POOL_SIZE", 10),
		asrPoolSize:  env.Int("ASR_POOL_SIZE", 4),
		segmenter:    seg,
	}

	flag.StringVar(&cfg.apiURL, "api", env.Str("INTERVIEW_API_URL", "http://localhost:8000"), "control channel base URL")
	flag.StringVar(&cfg.wsURL, "ws", env.Str("INTERVIEW_WS_URL", "ws://localhost:8000"), "streaming channel base URL")
	flag.StringVar(&cfg.whisperURL, "whisper", env.Str("WHISPER_SERVER_URL", ""), "whisper transcription server URL (empty disables speech capture)")
	flag.StringVar(&cfg.traceDBURL, "trace-db", env.Str("TRACE_DB_URL", ""), "PostgreSQL URL for turn tracing (empty disables)")
	flag.StringVar(&cfg.metricsAddr, "metrics-addr", env.Str("METRICS_ADDR", ""), "address for the Prometheus /metrics endpoint (empty disables)")
	flag.StringVar(&cfg.codec, "codec", env.Str("CAPTURE_CODEC", "pcm"), "microphone codec (pcm|g711_ulaw|g711_alaw)")
	flag.IntVar(&cfg.sampleRate, "sample-rate", env.Int("CAPTURE_SAMPLE_RATE", 16000), "microphone sample rate")
	flag.StringVar(&cfg.audioIn, "audio-in", env.Str("CAPTURE_AUDIO_IN", ""), "raw audio source file, - for stdin")
	flag.StringVar(&cfg.audioOut, "audio-out", env.Str("PLAYBACK_AUDIO_OUT", ""), "file receiving the AI's synthesized speech")
	flag.StringVar(&cfg.script, "script", env.Str("CAPTURE_SCRIPT", ""), "file of scripted answers, one per line, used instead of audio capture")
	flag.DurationVar(&cfg.scriptDelay, "script-delay", env.Dur("CAPTURE_SCRIPT_DELAY", 3*time.Second), "pause before each scripted answer")
	flag.StringVar(&cfg.job.Title, "job-title", env.Str("INTERVIEW_JOB_TITLE", ""), "position to interview for (required)")
	flag.StringVar(&cfg.job.Company, "company", env.Str("INTERVIEW_COMPANY", ""), "company name")
	flag.StringVar(&cfg.job.Description, "job-description", env.Str("INTERVIEW_JOB_DESCRIPTION", ""), "job description")
	flag.IntVar(&cfg.job.DurationMinutes, "duration", env.Int("INTERVIEW_DURATION", 30), "interview duration in minutes")
	flag.BoolVar(&cfg.listSessions, "list-sessions", false, "list traced sessions and exit (needs -trace-db)")
	flag.StringVar(&cfg.showSession, "show-session", "", "print one traced session's turns and exit (needs -trace-db)")
	flag.Parse()

	return cfg
}
