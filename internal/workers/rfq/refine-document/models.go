// internal/workers/rfq/refine-document/models.go
package refinedocument

import "rfq-workers/internal/models"

type Input struct {
	Document    models.DocumentEnvelope `json:"document"`
	Feedback    string                  `json:"feedback" validate:"required"`
	Credentials models.Credentials      `json:"credentials"`
}

type Output struct {
	Document models.DocumentEnvelope `json:"document"`
	Summary  string                  `json:"summary"`
}
