package state

// Speaker attributes a transcript entry to one side of the conversation.
type Speaker string

const (
	SpeakerAI   Speaker = "ai"
	SpeakerUser Speaker = "user"
)

// TranscriptEntry is one utterance in the interview transcript.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// JobInfo describes the position the candidate is interviewing for.
type JobInfo struct {
	Title           string `json:"job_title"`
	Company         string `json:"company_name,omitempty"`
	Description     string `json:"job_description,omitempty"`
	DurationMinutes int    `json:"interview_duration,omitempty"`
}

// QuestionFeedback pairs a question with its per-answer critique.
type QuestionFeedback struct {
	Question string `json:"question"`
	Feedback string `json:"feedback"`
}

// Feedback is the terminal summary shown after the interview ends.
// Immutable once set.
type Feedback struct {
	Overall          string             `json:"overall"`
	Strengths        []string           `json:"strengths"`
	Improvements     []string           `json:"improvements"`
	QuestionFeedback []QuestionFeedback `json:"question_feedback"`
}

// Snapshot is the point-in-time projection of interview state. Transitions
// produce a new value; the transcript slice is cloned on append so no two
// snapshots share a mutable tail.
type Snapshot struct {
	Job             JobInfo
	Started         bool
	Ended           bool
	CurrentQuestion string
	Transcript      []TranscriptEntry
	MicActive       bool
	CameraActive    bool
	AIProcessing    bool
	Feedback        *Feedback
}

// Initial returns the documented starting snapshot: empty job info, mic and
// camera on, everything else empty/false/nil.
func Initial() Snapshot {
	return Snapshot{
		MicActive:    true,
		CameraActive: true,
	}
}

// Action is the closed set of state transitions. Implementations live in this
// package only, so a type switch over them is exhaustive.
type Action interface {
	isAction()
}

type SetJobInfo struct{ Job JobInfo }

type StartInterview struct{}

type EndInterview struct{}

type SetCurrentQuestion struct{ Text string }

type AppendTranscript struct{ Entry TranscriptEntry }

type ToggleMic struct{}

type ToggleCamera struct{}

type SetProcessing struct{ Processing bool }

type SetFeedback struct{ Feedback *Feedback }

type Reset struct{}

func (SetJobInfo) isAction()         {}
func (StartInterview) isAction()     {}
func (EndInterview) isAction()       {}
func (SetCurrentQuestion) isAction() {}
func (AppendTranscript) isAction()   {}
func (ToggleMic) isAction()          {}
func (ToggleCamera) isAction()       {}
func (SetProcessing) isAction()      {}
func (SetFeedback) isAction()        {}
func (Reset) isAction()              {}

// Apply is the pure transition function. Unrecognized (including nil) actions
// return the input snapshot unchanged, never an error.
func Apply(s Snapshot, a Action) Snapshot {
	switch act := a.(type) {
	case SetJobInfo:
		s.Job = act.Job
	case StartInterview:
		s.Started = true
		s.Ended = false
	case EndInterview:
		s.Started = false
		s.Ended = true
	case SetCurrentQuestion:
		s.CurrentQuestion = act.Text
	case AppendTranscript:
		next := make([]TranscriptEntry, len(s.Transcript), len(s.Transcript)+1)
		copy(next, s.Transcript)
		s.Transcript = append(next, act.Entry)
	case ToggleMic:
		s.MicActive = !s.MicActive
	case ToggleCamera:
		s.CameraActive = !s.CameraActive
	case SetProcessing:
		s.AIProcessing = act.Processing
	case SetFeedback:
		s.Feedback = act.Feedback
	case Reset:
		s = Initial()
	}
	return s
}
