package models

import "fmt"

// SessionState is a position in the onboarding state machine.
type SessionState string

const (
	StateCategorySelection SessionState = "category_selection"
	StateAwaitingStep      SessionState = "awaiting_step"
	StateAwaitingAnswer    SessionState = "awaiting_answer"
	StateDocumentReady     SessionState = "document_ready"
)

// Session tracks one onboarding conversation on the caller's side.
// The zero value is in CategorySelection.
type Session struct {
	Category Category     `json:"category"`
	History  History      `json:"history"`
	State    SessionState `json:"state"`
	Pending  *Question    `json:"pending,omitempty"`
	Result   Document     `json:"-"`
}

func (s *Session) state() SessionState {
	if s.State == "" {
		return StateCategorySelection
	}
	return s.State
}

// Begin selects the category and moves to AwaitingStep.
func (s *Session) Begin(category Category) error {
	if s.state() != StateCategorySelection {
		return fmt.Errorf("session: cannot choose category in state %s", s.state())
	}
	if category == "" {
		return fmt.Errorf("session: empty category")
	}
	s.Category = category
	s.State = StateAwaitingStep
	return nil
}

// Apply records the outcome of a step decision.
func (s *Session) Apply(step NextStep) error {
	if s.state() != StateAwaitingStep {
		return fmt.Errorf("session: unexpected step in state %s", s.state())
	}
	switch st := step.(type) {
	case QuestionStep:
		q := st.Question
		s.Pending = &q
		s.State = StateAwaitingAnswer
	case DocumentStep:
		s.Pending = nil
		s.Result = st.Document
		s.State = StateDocumentReady
	default:
		return fmt.Errorf("session: unknown step %T", step)
	}
	return nil
}

// Answer appends the answer to the pending question and moves back to AwaitingStep.
func (s *Session) Answer(answer string) error {
	if s.state() != StateAwaitingAnswer || s.Pending == nil {
		return fmt.Errorf("session: no pending question in state %s", s.state())
	}
	s.History = s.History.Append(Turn{Question: s.Pending.Text, Answer: answer})
	s.Pending = nil
	s.State = StateAwaitingStep
	return nil
}

// Replace swaps the finished document for a refined one.
func (s *Session) Replace(doc Document) error {
	if s.state() != StateDocumentReady {
		return fmt.Errorf("session: no document to replace in state %s", s.state())
	}
	s.Result = doc
	return nil
}

// Done reports whether the session reached its terminal state.
func (s *Session) Done() bool {
	return s.state() == StateDocumentReady
}
