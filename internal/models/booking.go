package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks whether the status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// bookingPaymentTransitions is the allowed transition table for booking
// payment status. Refunded is reachable from any state because cancellation
// forces it unconditionally.
var bookingPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusFailed:   {PaymentStatusRefunded},
	PaymentStatusRefunded: {},
}

// CanTransitionTo reports whether the booking payment status may move to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range bookingPaymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking represents one user's reservation of seats on one session.
// At most one booking exists per (user, session) pair.
type Booking struct {
	ID                  uuid.UUID     `json:"id" db:"id"`
	UserID              uuid.UUID     `json:"user_id" db:"user_id"`
	SessionID           uuid.UUID     `json:"session_id" db:"session_id"`
	Seats               int           `json:"seats" db:"seats"`
	PaymentStatus       PaymentStatus `json:"payment_status" db:"payment_status"`
	TotalAmount         float64       `json:"total_amount" db:"total_amount"`
	ContactPhone        *string       `json:"contact_phone,omitempty" db:"contact_phone"`
	SpecialRequirements *string       `json:"special_requirements,omitempty" db:"special_requirements"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason  *string       `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCancelled reports whether the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.CancelledAt != nil
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	SessionID           uuid.UUID `json:"session_id" binding:"required"`
	Seats               int       `json:"seats" binding:"required,min=1"`
	ContactPhone        *string   `json:"contact_phone,omitempty"`
	SpecialRequirements *string   `json:"special_requirements,omitempty"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if r.Seats < 1 {
		return errors.New("seats must be at least 1")
	}
	if r.Seats > 10 {
		return errors.New("maximum 10 seats can be booked at once")
	}
	return nil
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}
