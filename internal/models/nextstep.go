package models

import "fmt"

// StepType is the wire discriminator of a NextStep: "question", "quote" or "rfq".
type StepType string

const StepQuestion StepType = "question"

// NextStep is the outcome of one step decision: either ask another question
// or hand over the final document. Implemented by QuestionStep and DocumentStep.
type NextStep interface {
	Type() StepType
	isNextStep()
}

// QuestionStep asks the user another question.
type QuestionStep struct {
	Question Question
}

func (QuestionStep) Type() StepType { return StepQuestion }
func (QuestionStep) isNextStep()    {}

// DocumentStep ends the conversation with a document.
type DocumentStep struct {
	Document Document
}

func (s DocumentStep) Type() StepType { return StepType(s.Document.Kind()) }
func (DocumentStep) isNextStep()      {}

// StepEnvelope is the JSON form of a NextStep. Exactly one payload is non-nil.
type StepEnvelope struct {
	Type     StepType  `json:"type"`
	Question *Question `json:"question"`
	Quote    *Quote    `json:"quote,omitempty"`
	RFQ      *RFQ      `json:"rfq,omitempty"`
}

// Envelope converts a NextStep to its wire form.
func Envelope(step NextStep) StepEnvelope {
	switch s := step.(type) {
	case QuestionStep:
		q := s.Question
		return StepEnvelope{Type: StepQuestion, Question: &q}
	case DocumentStep:
		env := StepEnvelope{Type: s.Type()}
		switch d := s.Document.(type) {
		case *Quote:
			env.Quote = d
		case *RFQ:
			env.RFQ = d
		}
		return env
	}
	return StepEnvelope{}
}

// Step converts the wire form back into a NextStep, enforcing that the
// populated payload matches Type and that no other payload is present.
func (e StepEnvelope) Step() (NextStep, error) {
	switch e.Type {
	case StepQuestion:
		if e.Quote != nil || e.RFQ != nil {
			return nil, fmt.Errorf("next step: document present on a question step")
		}
		if e.Question == nil {
			return nil, fmt.Errorf("next step: question missing")
		}
		if err := e.Question.Check(); err != nil {
			return nil, err
		}
		return QuestionStep{Question: *e.Question}, nil
	case StepType(KindQuote):
		if e.Question != nil || e.RFQ != nil {
			return nil, fmt.Errorf("next step: unexpected payload on a quote step")
		}
		if e.Quote == nil {
			return nil, fmt.Errorf("next step: quote missing")
		}
		return DocumentStep{Document: e.Quote}, nil
	case StepType(KindRFQ):
		if e.Question != nil || e.Quote != nil {
			return nil, fmt.Errorf("next step: unexpected payload on an rfq step")
		}
		if e.RFQ == nil {
			return nil, fmt.Errorf("next step: rfq missing")
		}
		return DocumentStep{Document: e.RFQ}, nil
	}
	return nil, fmt.Errorf("next step: unknown type %q", e.Type)
}
