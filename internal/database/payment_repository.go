package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// ErrDuplicatePayment is returned when a second payment intent is created
// for the same booking. The payments table has a unique booking_id.
var ErrDuplicatePayment = errors.New("payment already exists for this booking")

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, provider, payment_reference, amount,
	   currency, status, provider_response, provider_transaction_id,
	   initiated_at, completed_at, failure_reason, created_at, updated_at`

// Create creates a new payment intent record
func (r *PaymentRepository) Create(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, provider, payment_reference, amount,
			currency, status, provider_response, provider_transaction_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING initiated_at, created_at, updated_at
	`

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = models.TransactionPending
	}
	if payment.Currency == "" {
		payment.Currency = "KES"
	}

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.Provider, payment.PaymentReference,
		payment.Amount, payment.Currency, payment.Status, payment.ProviderResponse,
		payment.ProviderTransactionID,
	).Scan(&payment.InitiatedAt, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(paymentID uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.db.QueryRow(query, paymentID))
}

// GetByReference retrieves a payment by its payment reference
func (r *PaymentRepository) GetByReference(reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_reference = $1`
	return r.scanPayment(r.db.QueryRow(query, reference))
}

// GetByBookingID retrieves the payment for a booking.
// Returns nil, nil when no payment exists.
func (r *PaymentRepository) GetByBookingID(bookingID uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return payment, err
}

// GetByProviderTransactionID retrieves a payment by the provider's
// transaction identifier. Returns nil, nil when no payment matches.
func (r *PaymentRepository) GetByProviderTransactionID(transactionID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_transaction_id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return payment, err
}

// UpdateStatusFrom moves a payment's status, guarded by the expected
// current status. A concurrent or duplicate delivery sees zero rows
// updated instead of double-applying. completed_at is stamped on the
// completed transition.
func (r *PaymentRepository) UpdateStatusFrom(paymentID uuid.UUID, from, to models.PaymentTransactionStatus, failureReason *string) (int64, error) {
	query := `
		UPDATE payments
		SET status = $3,
			failure_reason = COALESCE($4, failure_reason),
			completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1
		  AND status = $2
	`

	result, err := r.db.Exec(query, paymentID, from, to, failureReason)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// SetProviderResult records the provider's acknowledgment of an initiated
// payment: its transaction identifier and raw response.
func (r *PaymentRepository) SetProviderResult(paymentID uuid.UUID, transactionID *string, response models.JSONB) error {
	query := `
		UPDATE payments
		SET provider_transaction_id = COALESCE($2, provider_transaction_id),
			provider_response = COALESCE($3, provider_response),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, paymentID, transactionID, response)
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

func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var providerTransactionID sql.NullString
	var completedAt sql.NullTime
	var failureReason sql.NullString

	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.Provider, &payment.PaymentReference,
		&payment.Amount, &payment.Currency, &payment.Status, &payment.ProviderResponse,
		&providerTransactionID, &payment.InitiatedAt, &completedAt, &failureReason,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if providerTransactionID.Valid {
		payment.ProviderTransactionID = &providerTransactionID.String
	}
	if completedAt.Valid {
		payment.CompletedAt = &completedAt.Time
	}
	if failureReason.Valid {
		payment.FailureReason = &failureReason.String
	}

	return payment, nil
}
