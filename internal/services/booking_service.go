package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingService handles the booking lifecycle: capacity-checked creation,
// ownership-scoped reads, and cancellation.
type BookingService struct {
	bookingRepo *database.BookingRepository
	sessionRepo *database.SessionRepository
	courseRepo  *database.CourseRepository
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	sessionRepo *database.SessionRepository,
	courseRepo *database.CourseRepository,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		courseRepo:  courseRepo,
		logger:      logger,
	}
}

// CreateBooking creates a booking for a user on a session. The seat count is
// checked against remaining capacity inside a serializable transaction, so
// two concurrent requests can never oversell a session.
func (s *BookingService) CreateBooking(userID uuid.UUID, req *models.CreateBookingRequest) (*models.Booking, error) {
	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	// 2. Session must exist and still be open for booking
	session, err := s.sessionRepo.GetByID(req.SessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, fmt.Errorf("%w: session is %s and cannot be booked", ErrConflict, session.Status)
	}

	// 3. One booking per user per session
	existing, err := s.bookingRepo.GetByUserAndSession(userID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: you already have a booking for this session", ErrConflict)
	}

	// 4. Freeze the total at booking time from the course price
	course, err := s.courseRepo.GetByID(session.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", session.CourseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	booking := &models.Booking{
		UserID:              userID,
		SessionID:           req.SessionID,
		Seats:               req.Seats,
		PaymentStatus:       models.PaymentStatusPending,
		TotalAmount:         course.EffectivePrice() * float64(req.Seats),
		ContactPhone:        req.ContactPhone,
		SpecialRequirements: req.SpecialRequirements,
	}

	// 5. Capacity check and insert in one serializable transaction
	if err := s.bookingRepo.CreateWithCapacityCheck(booking, session.Capacity); err != nil {
		switch {
		case errors.Is(err, database.ErrInsufficientSeats):
			return nil, ErrCapacityExceeded
		case errors.Is(err, database.ErrDuplicateBooking):
			return nil, fmt.Errorf("%w: you already have a booking for this session", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"user_id":      userID,
		"session_id":   req.SessionID,
		"seats":        req.Seats,
		"total_amount": booking.TotalAmount,
	}).Info("Booking created")

	return booking, nil
}

// GetBooking retrieves a booking. Non-admin callers only see their own.
func (s *BookingService) GetBooking(bookingID uuid.UUID, requesterID uuid.UUID, isAdmin bool) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !isAdmin && booking.UserID != requesterID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}

	return booking, nil
}

// ListUserBookings returns all bookings for a user, newest first
func (s *BookingService) ListUserBookings(userID uuid.UUID) ([]models.Booking, error) {
	return s.bookingRepo.GetByUserID(userID)
}

// ListSessionBookings returns all bookings on a session (admin only)
func (s *BookingService) ListSessionBookings(sessionID uuid.UUID) ([]models.Booking, error) {
	return s.bookingRepo.GetBySessionID(sessionID)
}

// CancelBooking cancels a booking. Cancellation is not idempotent: a second
// cancel is rejected as a conflict. The booking's payment status is forced
// to refunded regardless of whether it was ever paid; actual money movement
// is an offline concern.
func (s *BookingService) CancelBooking(bookingID uuid.UUID, requesterID uuid.UUID, isAdmin bool, req *models.CancelBookingRequest) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !isAdmin && booking.UserID != requesterID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}

	if booking.IsCancelled() {
		return nil, fmt.Errorf("%w: booking is already cancelled", ErrConflict)
	}

	if booking.PaymentStatus != models.PaymentStatusPaid {
		s.logger.WithFields(logrus.Fields{
			"booking_id":     bookingID,
			"payment_status": booking.PaymentStatus,
		}).Warn("Cancelling booking that was never paid; payment status still moves to refunded")
	}

	var reason *string
	if req != nil {
		reason = req.CancellationReason
	}

	if err := s.bookingRepo.Cancel(bookingID, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race with another cancel
			return nil, fmt.Errorf("%w: booking is already cancelled", ErrConflict)
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"user_id":    booking.UserID,
		"seats":      booking.Seats,
	}).Info("Booking cancelled")

	return s.bookingRepo.GetByID(bookingID)
}
