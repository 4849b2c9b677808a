package transport

// startRequest is the control-channel payload that opens a session.
type startRequest struct {
	JobTitle          string `json:"job_title"`
	CompanyName       string `json:"company_name,omitempty"`
	JobDescription    string `json:"job_description,omitempty"`
	InterviewDuration int    `json:"interview_duration,omitempty"`
}

// StartResponse carries the backend-assigned session id and the greeting.
type StartResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// candidateResponse is the payload for /respond. Interim updates carry
// is_final=false and are recorded but not processed by the backend.
type candidateResponse struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// AgentMessage is the backend's next question or remark.
type AgentMessage struct {
	Text string `json:"text"`
}

// Evaluation holds the per-metric scores from the end-of-interview summary.
type Evaluation struct {
	TechnicalSkills   int `json:"technical_skills"`
	Communication     int `json:"communication"`
	CultureFit        int `json:"culture_fit"`
	ProblemSolving    int `json:"problem_solving"`
	OverallImpression int `json:"overall_impression"`
}

// SummaryTurn is one transcript line in the end-of-interview summary.
type SummaryTurn struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// Summary is the terminal payload returned by /interview/{id}/end.
type Summary struct {
	SessionID string `json:"session_id"`
	JobTitle  string `json:"job_title"`
	Summary   struct {
		KeyPoints []string `json:"key_points"`
	} `json:"summary"`
	Transcript []SummaryTurn `json:"transcript"`
	Evaluation *Evaluation   `json:"evaluation"`
	Feedback   string        `json:"feedback"`
}

// UtteranceFrame is the outbound streaming-channel frame for user speech.
type UtteranceFrame struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// transcriptSaveRequest persists one transcript entry server-side.
type transcriptSaveRequest struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}

// SavedTranscript is one persisted transcript entry.
type SavedTranscript struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}
