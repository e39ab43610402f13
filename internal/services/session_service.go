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

// SessionService handles scheduled course sessions
type SessionService struct {
	sessionRepo *database.SessionRepository
	courseRepo  *database.CourseRepository
	trainerRepo *database.TrainerRepository
	logger      *logrus.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo *database.SessionRepository,
	courseRepo *database.CourseRepository,
	trainerRepo *database.TrainerRepository,
	logger *logrus.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		courseRepo:  courseRepo,
		trainerRepo: trainerRepo,
		logger:      logger,
	}
}

// CreateSession schedules a session for a course (admin only)
func (s *SessionService) CreateSession(req *models.CreateSessionRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if _, err := s.courseRepo.GetByID(req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", req.CourseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.TrainerID != nil {
		if _, err := s.trainerRepo.GetByID(*req.TrainerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("trainer %s: %w", *req.TrainerID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get trainer: %w", err)
		}
	}

	session := &models.Session{
		CourseID:  req.CourseID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		TrainerID: req.TrainerID,
		Capacity:  req.Capacity,
		Status:    models.SessionStatusScheduled,
		Notes:     req.Notes,
	}

	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"course_id":  req.CourseID,
		"capacity":   req.Capacity,
	}).Info("Session created")

	return session, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions retrieves sessions matching the filter
func (s *SessionService) ListSessions(filter models.SessionFilter) ([]models.Session, error) {
	return s.sessionRepo.List(filter)
}

// UpdateSession partially updates a session (admin only).
// Capacity reductions below already-paid seats are allowed here; the
// ledger reports zero remaining rather than failing existing bookings.
func (s *SessionService) UpdateSession(sessionID uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.sessionRepo.Update(sessionID, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return s.GetSession(sessionID)
}

// UpdateSessionStatus moves a session through its schedule lifecycle
func (s *SessionService) UpdateSessionStatus(sessionID uuid.UUID, status models.SessionStatus) (*models.Session, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid session status", ErrInvalidRequest)
	}

	if err := s.sessionRepo.UpdateStatus(sessionID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"status":     status,
	}).Info("Session status updated")

	return s.GetSession(sessionID)
}
