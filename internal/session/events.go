package session

// eventKind enumerates everything that can move the session forward. Capture
// callbacks, streaming-channel frames, and user requests all flatten into one
// ordered queue so the state machine runs on a single goroutine.
type eventKind int

const (
	// evUtterance is a finalized user utterance, promoted exactly once.
	evUtterance eventKind = iota
	// evInterim is an in-progress recognition update, forwarded for live
	// display but never recorded in the transcript.
	evInterim
	// evAIText is the backend's next question or remark.
	evAIText
	// evAudio is one chunk of the AI's synthesized speech.
	evAudio
	// evStreamClosed fires once when the streaming channel shuts down.
	evStreamClosed
	// evNextRequested is the user asking to skip to the next question.
	evNextRequested
	// evEndRequested is the user ending the interview.
	evEndRequested
	evToggleMic
	evToggleCamera
)

type event struct {
	kind  eventKind
	text  string
	audio []byte
	err   error
}
