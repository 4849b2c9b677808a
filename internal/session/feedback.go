package session

import (
	"fmt"

	"github.com/hireloop/interview-client/internal/state"
	"github.com/hireloop/interview-client/internal/transport"
)

// answerAnalysisPending stands in for per-answer critique, which the backend
// does not generate yet.
const answerAnalysisPending = "AI analysis of your response to be implemented"

// feedbackFromSummary builds the terminal feedback record from a successful
// end-of-interview summary: metric scores become labeled strength lines, key
// points become improvement lines, and each assistant remark becomes a
// question-feedback pair.
func feedbackFromSummary(s *transport.Summary) *state.Feedback {
	fb := &state.Feedback{
		Overall:      s.Feedback,
		Improvements: s.Summary.KeyPoints,
	}

	if s.Evaluation != nil {
		fb.Strengths = []string{
			fmt.Sprintf("Technical skills: %d/10", s.Evaluation.TechnicalSkills),
			fmt.Sprintf("Communication: %d/10", s.Evaluation.Communication),
			fmt.Sprintf("Culture fit: %d/10", s.Evaluation.CultureFit),
			fmt.Sprintf("Problem solving: %d/10", s.Evaluation.ProblemSolving),
		}
	}

	for _, turn := range s.Transcript {
		if turn.Role != "assistant" {
			continue
		}
		fb.QuestionFeedback = append(fb.QuestionFeedback, state.QuestionFeedback{
			Question: turn.Content,
			Feedback: answerAnalysisPending,
		})
	}
	return fb
}

// degradedFeedback is the record used when the end-of-interview call fails.
// The user still reaches the feedback view.
func degradedFeedback() *state.Feedback {
	return &state.Feedback{
		Overall:      "Thank you for completing the interview. We're experiencing technical difficulties retrieving your detailed feedback.",
		Strengths:    []string{"Interview completed successfully"},
		Improvements: []string{"Try again later for detailed feedback"},
	}
}

// neverEstablishedFeedback is the record used when the session id was never
// obtained, so there is nothing to ask the backend about.
func neverEstablishedFeedback() *state.Feedback {
	return &state.Feedback{
		Overall:      "Interview session could not be properly established. Please try again.",
		Improvements: []string{"Check your internet connection and try again"},
	}
}
