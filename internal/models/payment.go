package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentProvider represents a third-party payment provider
type PaymentProvider string

const (
	ProviderMpesa       PaymentProvider = "mpesa"
	ProviderFlutterwave PaymentProvider = "flutterwave"
	ProviderOther       PaymentProvider = "other"
)

// IsValid checks whether the provider is known
func (p PaymentProvider) IsValid() bool {
	switch p {
	case ProviderMpesa, ProviderFlutterwave, ProviderOther:
		return true
	}
	return false
}

// PaymentTransactionStatus represents the lifecycle status of a payment intent
type PaymentTransactionStatus string

const (
	TransactionPending    PaymentTransactionStatus = "pending"
	TransactionProcessing PaymentTransactionStatus = "processing"
	TransactionCompleted  PaymentTransactionStatus = "completed"
	TransactionFailed     PaymentTransactionStatus = "failed"
	TransactionCancelled  PaymentTransactionStatus = "cancelled"
)

// IsValid checks whether the status is known
func (s PaymentTransactionStatus) IsValid() bool {
	switch s {
	case TransactionPending, TransactionProcessing, TransactionCompleted,
		TransactionFailed, TransactionCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from this status
func (s PaymentTransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionCompleted, TransactionFailed, TransactionCancelled:
		return true
	}
	return false
}

// transactionTransitions is the allowed transition table for payment intents:
// pending -> processing -> completed | failed | cancelled, with the
// processing step optional for providers that report terminal states directly.
var transactionTransitions = map[PaymentTransactionStatus][]PaymentTransactionStatus{
	TransactionPending:    {TransactionProcessing, TransactionCompleted, TransactionFailed, TransactionCancelled},
	TransactionProcessing: {TransactionCompleted, TransactionFailed, TransactionCancelled},
	TransactionCompleted:  {},
	TransactionFailed:     {},
	TransactionCancelled:  {},
}

// CanTransitionTo reports whether the payment status may move to next
func (s PaymentTransactionStatus) CanTransitionTo(next PaymentTransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment represents a single payment intent for one booking (1:1, enforced).
// The payment reference is globally unique and immutable once issued.
type Payment struct {
	ID                    uuid.UUID                `json:"id" db:"id"`
	BookingID             uuid.UUID                `json:"booking_id" db:"booking_id"`
	Provider              PaymentProvider          `json:"provider" db:"provider"`
	PaymentReference      string                   `json:"payment_reference" db:"payment_reference"`
	Amount                float64                  `json:"amount" db:"amount"`
	Currency              string                   `json:"currency" db:"currency"`
	Status                PaymentTransactionStatus `json:"status" db:"status"`
	ProviderResponse      JSONB                    `json:"provider_response,omitempty" db:"provider_response"`
	ProviderTransactionID *string                  `json:"provider_transaction_id,omitempty" db:"provider_transaction_id"`
	InitiatedAt           time.Time                `json:"initiated_at" db:"initiated_at"`
	CompletedAt           *time.Time               `json:"completed_at,omitempty" db:"completed_at"`
	FailureReason         *string                  `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt             time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at" db:"updated_at"`
}

// InitiatePaymentRequest represents the request to initiate a payment
type InitiatePaymentRequest struct {
	BookingID uuid.UUID       `json:"booking_id" binding:"required"`
	Provider  PaymentProvider `json:"provider" binding:"required"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
}

// Validate checks the provider-specific contact requirement: mobile money
// needs a phone number, card/redirect needs an email.
func (r *InitiatePaymentRequest) Validate() error {
	if !r.Provider.IsValid() {
		return errors.New("invalid payment provider")
	}
	switch r.Provider {
	case ProviderMpesa:
		if r.Phone == nil || *r.Phone == "" {
			return errors.New("phone number required for M-Pesa")
		}
	case ProviderFlutterwave:
		if r.Email == nil || *r.Email == "" {
			return errors.New("email required for Flutterwave")
		}
	}
	return nil
}
