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

// CourseService handles the course catalog
type CourseService struct {
	courseRepo *database.CourseRepository
	logger     *logrus.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(courseRepo *database.CourseRepository, logger *logrus.Logger) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// CreateCourse adds a course to the catalog (admin only)
func (s *CourseService) CreateCourse(req *models.CreateCourseRequest) (*models.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	course := &models.Course{
		Title:         req.Title,
		Category:      req.Category,
		Audience:      req.Audience,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		Price:         req.Price,
		Syllabus:      req.Syllabus,
		Image:         req.Image,
		TrainerID:     req.TrainerID,
		IsActive:      true,
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := s.courseRepo.Create(course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"course_id": course.ID,
		"title":     course.Title,
	}).Info("Course created")

	return course, nil
}

// GetCourse retrieves a course by ID
func (s *CourseService) GetCourse(courseID uuid.UUID) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// ListCourses retrieves courses matching the filter
func (s *CourseService) ListCourses(filter models.CourseFilter) ([]models.Course, error) {
	return s.courseRepo.List(filter)
}

// UpdateCourse partially updates a course (admin only)
func (s *CourseService) UpdateCourse(courseID uuid.UUID, req *models.UpdateCourseRequest) (*models.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.courseRepo.Update(courseID, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return s.GetCourse(courseID)
}

// DeactivateCourse hides a course from the catalog without deleting it.
// Existing sessions and bookings are untouched.
func (s *CourseService) DeactivateCourse(courseID uuid.UUID) error {
	if err := s.courseRepo.Deactivate(courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		return fmt.Errorf("failed to deactivate course: %w", err)
	}

	s.logger.WithField("course_id", courseID).Info("Course deactivated")
	return nil
}
