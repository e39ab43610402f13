package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is a raw inbound payment-provider callback. Events are
// retained for audit and idempotency even when processing fails.
type WebhookEvent struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	PaymentID       *uuid.UUID      `json:"payment_id,omitempty" db:"payment_id"`
	Provider        PaymentProvider `json:"provider" db:"provider"`
	EventType       string          `json:"event_type" db:"event_type"`
	Payload         JSONB           `json:"payload" db:"payload"`
	Processed       bool            `json:"processed" db:"processed"`
	ProcessingError *string         `json:"processing_error,omitempty" db:"processing_error"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
