// internal/workers/rfq/notify-document/models.go
package notifydocument

import "rfq-workers/internal/models"

type Input struct {
	Document       models.DocumentEnvelope `json:"document"`
	DocumentID     string                  `json:"documentId,omitempty"`
	RecipientEmail string                  `json:"recipientEmail,omitempty" validate:"omitempty,email"`
	RecipientPhone string                  `json:"recipientPhone,omitempty" validate:"omitempty,e164"`
	Priority       string                  `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const PriorityHigh = "high"
