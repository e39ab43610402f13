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

// TrainerService handles trainer profiles
type TrainerService struct {
	trainerRepo *database.TrainerRepository
	logger      *logrus.Logger
}

// NewTrainerService creates a new TrainerService
func NewTrainerService(trainerRepo *database.TrainerRepository, logger *logrus.Logger) *TrainerService {
	return &TrainerService{
		trainerRepo: trainerRepo,
		logger:      logger,
	}
}

// CreateTrainer adds a trainer profile (admin only)
func (s *TrainerService) CreateTrainer(req *models.CreateTrainerRequest) (*models.Trainer, error) {
	trainer := &models.Trainer{
		UserID:            req.UserID,
		Name:              req.Name,
		Bio:               req.Bio,
		Photo:             req.Photo,
		Specializations:   req.Specializations,
		YearsOfExperience: req.YearsOfExperience,
		Certifications:    req.Certifications,
		IsActive:          true,
	}

	if err := s.trainerRepo.Create(trainer); err != nil {
		return nil, fmt.Errorf("failed to create trainer: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"trainer_id": trainer.ID,
		"name":       trainer.Name,
	}).Info("Trainer created")

	return trainer, nil
}

// GetTrainer retrieves a trainer profile by ID
func (s *TrainerService) GetTrainer(trainerID uuid.UUID) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(trainerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trainer %s: %w", trainerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trainer: %w", err)
	}
	return trainer, nil
}

// ListTrainers retrieves trainer profiles with pagination
func (s *TrainerService) ListTrainers(limit, offset int) ([]models.Trainer, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.trainerRepo.List(limit, offset)
}

// UpdateTrainer partially updates a trainer profile (admin only)
func (s *TrainerService) UpdateTrainer(trainerID uuid.UUID, req *models.UpdateTrainerRequest) (*models.Trainer, error) {
	if err := s.trainerRepo.Update(trainerID, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trainer %s: %w", trainerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update trainer: %w", err)
	}

	return s.GetTrainer(trainerID)
}

// DeactivateTrainer hides a trainer from the public listing without
// deleting the profile. Assigned sessions are untouched.
func (s *TrainerService) DeactivateTrainer(trainerID uuid.UUID) error {
	inactive := false
	err := s.trainerRepo.Update(trainerID, &models.UpdateTrainerRequest{IsActive: &inactive})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("trainer %s: %w", trainerID, ErrNotFound)
		}
		return fmt.Errorf("failed to deactivate trainer: %w", err)
	}

	s.logger.WithField("trainer_id", trainerID).Info("Trainer deactivated")
	return nil
}
