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

// CorporateService handles corporate training inquiries. Intake is public;
// review is an admin concern.
type CorporateService struct {
	corporateRepo *database.CorporateRequestRepository
	logger        *logrus.Logger
}

// NewCorporateService creates a new CorporateService
func NewCorporateService(corporateRepo *database.CorporateRequestRepository, logger *logrus.Logger) *CorporateService {
	return &CorporateService{
		corporateRepo: corporateRepo,
		logger:        logger,
	}
}

// SubmitRequest records an inbound corporate training inquiry
func (s *CorporateService) SubmitRequest(req *models.CreateCorporateRequest) (*models.CorporateRequest, error) {
	request := &models.CorporateRequest{
		CompanyName:    req.CompanyName,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		Topic:          req.Topic,
		PreferredDates: req.PreferredDates,
		PreferredTime:  req.PreferredTime,
		Location:       req.Location,
		Headcount:      req.Headcount,
		Notes:          req.Notes,
		Status:         models.CorporateStatusPending,
	}

	if err := s.corporateRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create corporate request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"company":    request.CompanyName,
		"topic":      request.Topic,
	}).Info("Corporate request submitted")

	return request, nil
}

// GetRequest retrieves a corporate request (admin only)
func (s *CorporateService) GetRequest(requestID uuid.UUID) (*models.CorporateRequest, error) {
	request, err := s.corporateRepo.GetByID(requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("corporate request %s: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get corporate request: %w", err)
	}
	return request, nil
}

// ListRequests retrieves corporate requests, optionally by status (admin only)
func (s *CorporateService) ListRequests(status *models.CorporateRequestStatus) ([]models.CorporateRequest, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid corporate request status", ErrInvalidRequest)
	}
	return s.corporateRepo.List(status)
}

// RespondToRequest records the admin review of a corporate request
func (s *CorporateService) RespondToRequest(requestID uuid.UUID, adminID uuid.UUID, req *models.RespondCorporateRequest) (*models.CorporateRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.corporateRepo.Respond(requestID, adminID, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("corporate request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to respond to corporate request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"admin_id":   adminID,
		"status":     req.Status,
	}).Info("Corporate request reviewed")

	return s.GetRequest(requestID)
}
