// internal/workers/rfq/archive-document/models.go
package archivedocument

import "rfq-workers/internal/models"

type Input struct {
	Document models.DocumentEnvelope `json:"document"`
	Category models.Category         `json:"category" validate:"required"`
	Verdict  *models.AuditVerdict    `json:"verdict,omitempty"`
	Audited  bool                    `json:"audited"`
	Refined  bool                    `json:"refined"`
}

type Output struct {
	DocumentID string `json:"documentId"`
	Indexed    bool   `json:"indexed"`
	ArchivedAt string `json:"archivedAt"` // ISO 8601
}
