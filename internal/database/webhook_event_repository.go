package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// WebhookEventRepository handles database operations for the
// payment_webhooks table. Rows are append-mostly: every inbound provider
// callback is stored before any processing happens.
type WebhookEventRepository struct {
	db DB
}

// NewWebhookEventRepository creates a new WebhookEventRepository
func NewWebhookEventRepository(db DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

const webhookColumns = `id, payment_id, provider, event_type, payload,
	   processed, processing_error, created_at`

// Create stores a raw inbound webhook event, unprocessed
func (r *WebhookEventRepository) Create(event *models.WebhookEvent) error {
	query := `
		INSERT INTO payment_webhooks (
			id, payment_id, provider, event_type, payload, processed, processing_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		event.ID, event.PaymentID, event.Provider, event.EventType,
		event.Payload, event.Processed, event.ProcessingError,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store webhook event: %w", err)
	}

	return nil
}

// MarkProcessed links the event to its payment and marks it applied
func (r *WebhookEventRepository) MarkProcessed(eventID uuid.UUID, paymentID *uuid.UUID) error {
	query := `
		UPDATE payment_webhooks
		SET processed = TRUE, payment_id = COALESCE($2, payment_id), processing_error = NULL
		WHERE id = $1
	`
	return r.execExpectingRow(query, eventID, paymentID)
}

// MarkFailed records why an event could not be applied. The event stays
// unprocessed and is retained for audit.
func (r *WebhookEventRepository) MarkFailed(eventID uuid.UUID, paymentID *uuid.UUID, reason string) error {
	query := `
		UPDATE payment_webhooks
		SET processing_error = $3, payment_id = COALESCE($2, payment_id)
		WHERE id = $1
	`
	return r.execExpectingRow(query, eventID, paymentID, reason)
}

// ListByPaymentID retrieves all events ever received for a payment
func (r *WebhookEventRepository) ListByPaymentID(paymentID uuid.UUID) ([]models.WebhookEvent, error) {
	query := `SELECT ` + webhookColumns + ` FROM payment_webhooks
		WHERE payment_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.WebhookEvent{}
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}

func (r *WebhookEventRepository) execExpectingRow(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *WebhookEventRepository) scanEvent(row scanner) (*models.WebhookEvent, error) {
	event := &models.WebhookEvent{}
	var paymentID uuid.NullUUID
	var processingError sql.NullString

	err := row.Scan(
		&event.ID, &paymentID, &event.Provider, &event.EventType, &event.Payload,
		&event.Processed, &processingError, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentID.Valid {
		event.PaymentID = &paymentID.UUID
	}
	if processingError.Valid {
		event.ProcessingError = &processingError.String
	}

	return event, nil
}
