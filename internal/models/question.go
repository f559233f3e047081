package models

import "fmt"

// InputType tells the presentation layer which control to render for a question.
type InputType string

const (
	InputText   InputType = "text"
	InputNumber InputType = "number"
	InputSelect InputType = "select"
)

// Valid reports whether t is one of the known input types.
func (t InputType) Valid() bool {
	switch t {
	case InputText, InputNumber, InputSelect:
		return true
	}
	return false
}

// Question is a follow-up question for the user.
// Options is non-nil exactly when InputType is select.
type Question struct {
	Text      string    `json:"text"`
	InputType InputType `json:"inputType"`
	Options   []string  `json:"options"`
}

// TextQuestion builds a free-text question.
func TextQuestion(text string) Question {
	return Question{Text: text, InputType: InputText}
}

// SelectQuestion builds a fixed-option question.
func SelectQuestion(text string, options ...string) Question {
	opts := make([]string, len(options))
	copy(opts, options)
	return Question{Text: text, InputType: InputSelect, Options: opts}
}

// Check enforces the options-iff-select invariant.
func (q Question) Check() error {
	if !q.InputType.Valid() {
		return fmt.Errorf("question: unknown inputType %q", q.InputType)
	}
	if q.InputType == InputSelect {
		if len(q.Options) == 0 {
			return fmt.Errorf("question: select requires at least one option")
		}
		return nil
	}
	if q.Options != nil {
		return fmt.Errorf("question: options must be absent for inputType %q", q.InputType)
	}
	return nil
}
