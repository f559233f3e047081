// internal/workers/rfq/generate-audited/models.go
package generateaudited

import "rfq-workers/internal/models"

type Input struct {
	History     models.History     `json:"history" validate:"dive"`
	Category    models.Category    `json:"category" validate:"required"`
	Credentials models.Credentials `json:"credentials"`
}

type Output struct {
	Document models.DocumentEnvelope `json:"document"`
	Summary  string                  `json:"summary"`
	Outcome  string                  `json:"outcome"`
	Audited  bool                    `json:"audited"`
	Refined  bool                    `json:"refined"`
	Fallback bool                    `json:"fallback"`
	Cached   bool                    `json:"cached"`
	Issues   []string                `json:"issues"`
}
