package audio

import (
	"math"
	"time"
)

// SegmenterConfig controls end-of-utterance detection behavior.
type SegmenterConfig struct {
	SpeechThresholdDB float64
	SilenceTimeout    time.Duration
	MinSpeechDuration time.Duration
	PreSpeechBuffer   time.Duration
	SampleRate        int
}

// DefaultSegmenterConfig returns defaults tuned for conversational interview
// speech: answers tend to trail off, so the silence timeout is generous.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		SpeechThresholdDB: -30,
		SilenceTimeout:    1200 * time.Millisecond,
		MinSpeechDuration: 400 * time.Millisecond,
		PreSpeechBuffer:   300 * time.Millisecond,
		SampleRate:        16000,
	}
}

// Segmenter implements energy-based utterance segmentation: it accumulates
// speech audio and reports a completed utterance once the speaker has been
// silent for the configured timeout.
type Segmenter struct {
	cfg            SegmenterConfig
	isSpeech       bool
	speechStart    time.Time
	lastSpeechTime time.Time
	buffer         []float32
	preSpeech      []float32
	preSpeechLen   int
	now            func() time.Time
}

// NewSegmenter creates a segmenter with the given config.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	preSpeechSamples := int(cfg.PreSpeechBuffer.Seconds() * float64(cfg.SampleRate))
	return &Segmenter{
		cfg:          cfg,
		preSpeechLen: preSpeechSamples,
		preSpeech:    make([]float32, 0, preSpeechSamples),
		now:          time.Now,
	}
}

// SegmentResult holds the output of processing an audio chunk.
type SegmentResult struct {
	UtteranceEnded bool
	Audio          []float32
}

// Process feeds an audio chunk into the segmenter and returns a completed
// utterance when the speaker falls silent.
func (v *Segmenter) Process(samples []float32) SegmentResult {
	energyDB := computeEnergyDB(samples)
	now := v.now()

	if energyDB >= v.cfg.SpeechThresholdDB {
		return v.handleSpeech(samples, now)
	}
	return v.handleSilence(samples, now)
}

func (v *Segmenter) handleSpeech(samples []float32, now time.Time) SegmentResult {
	if !v.isSpeech {
		v.isSpeech = true
		v.speechStart = now
		v.buffer = append(v.buffer, v.preSpeech...)
	}
	v.lastSpeechTime = now
	v.buffer = append(v.buffer, samples...)
	v.preSpeech = v.preSpeech[:0]
	return SegmentResult{}
}

func (v *Segmenter) handleSilence(samples []float32, now time.Time) SegmentResult {
	v.updatePreSpeech(samples)

	if !v.isSpeech {
		return SegmentResult{}
	}

	v.buffer = append(v.buffer, samples...)

	silenceDur := now.Sub(v.lastSpeechTime)
	speechDur := now.Sub(v.speechStart)

	if silenceDur < v.cfg.SilenceTimeout {
		return SegmentResult{}
	}

	v.isSpeech = false

	if speechDur < v.cfg.MinSpeechDuration {
		v.buffer = v.buffer[:0]
		return SegmentResult{}
	}

	audio := v.buffer
	v.buffer = nil
	return SegmentResult{UtteranceEnded: true, Audio: audio}
}

func (v *Segmenter) updatePreSpeech(samples []float32) {
	v.preSpeech = append(v.preSpeech, samples...)
	if len(v.preSpeech) > v.preSpeechLen {
		excess := len(v.preSpeech) - v.preSpeechLen
		v.preSpeech = v.preSpeech[excess:]
	}
}

// Flush returns any buffered speech audio and resets the segmenter.
func (v *Segmenter) Flush() []float32 {
	if len(v.buffer) == 0 {
		return nil
	}
	audio := v.buffer
	v.buffer = nil
	v.isSpeech = false
	return audio
}

func computeEnergyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return -100
	}
	return 20 * math.Log10(rms)
}
