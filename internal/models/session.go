package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle status of a scheduled session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsValid checks whether the status is known
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// Session represents a scheduled occurrence of a course with finite capacity
type Session struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	CourseID  uuid.UUID     `json:"course_id" db:"course_id"`
	Date      time.Time     `json:"date" db:"date"`
	StartTime string        `json:"start_time" db:"start_time"`
	EndTime   *string       `json:"end_time,omitempty" db:"end_time"`
	Location  string        `json:"location" db:"location"`
	TrainerID *uuid.UUID    `json:"trainer_id,omitempty" db:"trainer_id"`
	Capacity  int           `json:"capacity" db:"capacity"`
	Status    SessionStatus `json:"status" db:"status"`
	Notes     *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateSessionRequest represents the request to create a session
type CreateSessionRequest struct {
	CourseID  uuid.UUID  `json:"course_id" binding:"required"`
	Date      time.Time  `json:"date" binding:"required"`
	StartTime string     `json:"start_time" binding:"required"`
	EndTime   *string    `json:"end_time,omitempty"`
	Location  string     `json:"location" binding:"required"`
	TrainerID *uuid.UUID `json:"trainer_id,omitempty"`
	Capacity  int        `json:"capacity" binding:"required,min=1"`
	Notes     *string    `json:"notes,omitempty"`
}

// Validate validates the create session request
func (r *CreateSessionRequest) Validate() error {
	if r.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	return nil
}

// UpdateSessionRequest represents the request to update a session
type UpdateSessionRequest struct {
	Date      *time.Time     `json:"date,omitempty"`
	StartTime *string        `json:"start_time,omitempty"`
	EndTime   *string        `json:"end_time,omitempty"`
	Location  *string        `json:"location,omitempty"`
	TrainerID *uuid.UUID     `json:"trainer_id,omitempty"`
	Capacity  *int           `json:"capacity,omitempty"`
	Status    *SessionStatus `json:"status,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// Validate validates the update session request
func (r *UpdateSessionRequest) Validate() error {
	if r.Capacity != nil && *r.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return errors.New("invalid session status")
	}
	return nil
}

// SessionFilter narrows session listings
type SessionFilter struct {
	CourseID *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// SessionAvailability reports remaining seats for a session
type SessionAvailability struct {
	SessionID      uuid.UUID `json:"session_id"`
	Capacity       int       `json:"capacity"`
	SeatsBooked    int       `json:"seats_booked"`
	RemainingSeats int       `json:"remaining_seats"`
}
