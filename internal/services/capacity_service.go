package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
)

// CapacityService answers how many seats remain on a session. Only paid
// bookings consume capacity: pending, failed, refunded and cancelled
// bookings do not hold seats.
type CapacityService struct {
	sessionRepo *database.SessionRepository
	bookingRepo *database.BookingRepository
}

// NewCapacityService creates a new CapacityService
func NewCapacityService(sessionRepo *database.SessionRepository, bookingRepo *database.BookingRepository) *CapacityService {
	return &CapacityService{
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
	}
}

// GetAvailability returns the seat ledger for a session
func (s *CapacityService) GetAvailability(sessionID uuid.UUID) (*models.SessionAvailability, error) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	booked, err := s.bookingRepo.GetPaidSeats(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count booked seats: %w", err)
	}

	remaining := session.Capacity - booked
	if remaining < 0 {
		remaining = 0
	}

	return &models.SessionAvailability{
		SessionID:      sessionID,
		Capacity:       session.Capacity,
		SeatsBooked:    booked,
		RemainingSeats: remaining,
	}, nil
}
