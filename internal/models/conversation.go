package models

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Turn is one answered question of an onboarding conversation.
type Turn struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// History is the chronological question/answer transcript of one session.
type History []Turn

// Append returns a new history with turn at the end. The receiver is never modified.
func (h History) Append(turn Turn) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, turn)
}

// Len returns the number of completed turns.
func (h History) Len() int {
	return len(h)
}

// Transcript renders the history as numbered Q/A pairs, the form every prompt embeds.
func (h History) Transcript() string {
	parts := make([]string, 0, len(h))
	for i, t := range h {
		parts = append(parts, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, t.Question, i+1, t.Answer))
	}
	return strings.Join(parts, "\n\n")
}

// FindAnswer returns the answer of the first turn whose question mentions keyword.
func (h History) FindAnswer(keyword string) (string, bool) {
	keyword = strings.ToLower(keyword)
	for _, t := range h {
		if strings.Contains(strings.ToLower(t.Question), keyword) {
			return t.Answer, true
		}
	}
	return "", false
}

// Category selects the domain vocabulary of a conversation, e.g. "residential".
type Category string

// Title returns the category with its first letter upper-cased.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Credentials carries the caller's access key and optional model selection
// for the generation service.
type Credentials struct {
	APIKey string `json:"apiKey,omitempty"`
	Model  string `json:"model,omitempty"`
}

// HasKey reports whether an access key is configured.
func (c Credentials) HasKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// WithDefaults fills empty fields from def.
func (c Credentials) WithDefaults(def Credentials) Credentials {
	if !c.HasKey() {
		c.APIKey = def.APIKey
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	return c
}
