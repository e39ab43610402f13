package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CorporateRequestStatus represents the review status of a corporate training request
type CorporateRequestStatus string

const (
	CorporateStatusPending   CorporateRequestStatus = "pending"
	CorporateStatusReviewing CorporateRequestStatus = "reviewing"
	CorporateStatusConfirmed CorporateRequestStatus = "confirmed"
	CorporateStatusRejected  CorporateRequestStatus = "rejected"
	CorporateStatusCompleted CorporateRequestStatus = "completed"
)

// IsValid checks whether the status is known
func (s CorporateRequestStatus) IsValid() bool {
	switch s {
	case CorporateStatusPending, CorporateStatusReviewing, CorporateStatusConfirmed,
		CorporateStatusRejected, CorporateStatusCompleted:
		return true
	}
	return false
}

// CorporateRequest represents an inbound corporate training inquiry
type CorporateRequest struct {
	ID                  uuid.UUID              `json:"id" db:"id"`
	CompanyName         string                 `json:"company_name" db:"company_name"`
	ContactPerson       string                 `json:"contact_person" db:"contact_person"`
	Email               string                 `json:"email" db:"email"`
	Phone               string                 `json:"phone" db:"phone"`
	Topic               string                 `json:"topic" db:"topic"`
	PreferredDates      pq.StringArray         `json:"preferred_dates,omitempty" db:"preferred_dates"`
	PreferredTime       *string                `json:"preferred_time,omitempty" db:"preferred_time"`
	Location            *string                `json:"location,omitempty" db:"location"`
	Headcount           *int                   `json:"headcount,omitempty" db:"headcount"`
	Notes               *string                `json:"notes,omitempty" db:"notes"`
	Status              CorporateRequestStatus `json:"status" db:"status"`
	AssignedToTrainerID *uuid.UUID             `json:"assigned_to_trainer_id,omitempty" db:"assigned_to_trainer_id"`
	QuotedPrice         *float64               `json:"quoted_price,omitempty" db:"quoted_price"`
	AdminNotes          *string                `json:"admin_notes,omitempty" db:"admin_notes"`
	RespondedAt         *time.Time             `json:"responded_at,omitempty" db:"responded_at"`
	RespondedBy         *uuid.UUID             `json:"responded_by,omitempty" db:"responded_by"`
	CreatedAt           time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at" db:"updated_at"`
}

// CreateCorporateRequest represents the public intake form
type CreateCorporateRequest struct {
	CompanyName    string   `json:"company_name" binding:"required"`
	ContactPerson  string   `json:"contact_person" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Phone          string   `json:"phone" binding:"required"`
	Topic          string   `json:"topic" binding:"required"`
	PreferredDates []string `json:"preferred_dates,omitempty"`
	PreferredTime  *string  `json:"preferred_time,omitempty"`
	Location       *string  `json:"location,omitempty"`
	Headcount      *int     `json:"headcount,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

// RespondCorporateRequest represents the admin review action
type RespondCorporateRequest struct {
	Status              CorporateRequestStatus `json:"status" binding:"required"`
	AssignedToTrainerID *uuid.UUID             `json:"assigned_to_trainer_id,omitempty"`
	QuotedPrice         *float64               `json:"quoted_price,omitempty"`
	AdminNotes          *string                `json:"admin_notes,omitempty"`
}

// Validate validates the admin response
func (r *RespondCorporateRequest) Validate() error {
	if !r.Status.IsValid() {
		return errors.New("invalid corporate request status")
	}
	return nil
}
