package models

import (
	"fmt"
	"strings"
)

// AuditVerdict is the result of checking a document against its conversation.
type AuditVerdict struct {
	Passed                 bool     `json:"passed"`
	Issues                 []string `json:"issues"`
	RefinementInstructions *string  `json:"refinement_instructions"`
}

// Check enforces passed ⇒ no issues ⇒ no refinement instructions.
func (v AuditVerdict) Check() error {
	if v.Passed && len(v.Issues) > 0 {
		return fmt.Errorf("audit verdict: passed with %d issues", len(v.Issues))
	}
	if len(v.Issues) == 0 && v.RefinementInstructions != nil {
		return fmt.Errorf("audit verdict: refinement instructions without issues")
	}
	return nil
}

// Instructions returns the refinement instructions or "" when absent.
func (v AuditVerdict) Instructions() string {
	if v.RefinementInstructions == nil {
		return ""
	}
	return strings.TrimSpace(*v.RefinementInstructions)
}
