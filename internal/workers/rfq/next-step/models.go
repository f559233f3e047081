// internal/workers/rfq/next-step/models.go
package nextstep

import "rfq-workers/internal/models"

type Input struct {
	History        models.History     `json:"history" validate:"dive"`
	Category       models.Category    `json:"category" validate:"required"`
	Credentials    models.Credentials `json:"credentials"`
	QuestionBudget int                `json:"questionBudget,omitempty" validate:"gte=0"`
}

type Output struct {
	Step          models.StepEnvelope `json:"step"`
	StepType      string              `json:"stepType"`
	Terminal      bool                `json:"terminal"`
	QuestionCount int                 `json:"questionCount"`
}
