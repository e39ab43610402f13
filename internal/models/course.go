package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CourseCategory represents the subject category of a course
type CourseCategory string

const (
	CategoryAI            CourseCategory = "AI"
	CategoryRobotics      CourseCategory = "Robotics"
	CategoryData          CourseCategory = "Data"
	CategoryIoT           CourseCategory = "IoT"
	CategoryCybersecurity CourseCategory = "Cybersecurity"
	CategoryBlockchain    CourseCategory = "Blockchain"
	CategoryDevelopment   CourseCategory = "Development"
)

// IsValid checks whether the category is known
func (c CourseCategory) IsValid() bool {
	switch c {
	case CategoryAI, CategoryRobotics, CategoryData, CategoryIoT,
		CategoryCybersecurity, CategoryBlockchain, CategoryDevelopment:
		return true
	}
	return false
}

// Audience represents the target audience of a course
type Audience string

const (
	AudienceKids      Audience = "Kids"
	AudienceAdults    Audience = "Adults"
	AudienceCorporate Audience = "Corporate"
)

// IsValid checks whether the audience is known
func (a Audience) IsValid() bool {
	switch a {
	case AudienceKids, AudienceAdults, AudienceCorporate:
		return true
	}
	return false
}

// Course represents a training course offered on the platform
type Course struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Title         string         `json:"title" db:"title"`
	Category      CourseCategory `json:"category" db:"category"`
	Audience      Audience       `json:"audience" db:"audience"`
	Description   string         `json:"description" db:"description"`
	DurationWeeks *int           `json:"duration_weeks,omitempty" db:"duration_weeks"`
	Price         *float64       `json:"price,omitempty" db:"price"`
	Syllabus      pq.StringArray `json:"syllabus" db:"syllabus"`
	Image         *string        `json:"image,omitempty" db:"image"`
	TrainerID     *uuid.UUID     `json:"trainer_id,omitempty" db:"trainer_id"`
	IsPublished   bool           `json:"is_published" db:"is_published"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// EffectivePrice returns the course price, treating a missing price as zero
func (c *Course) EffectivePrice() float64 {
	if c.Price == nil {
		return 0
	}
	return *c.Price
}

// CreateCourseRequest represents the request to create a course
type CreateCourseRequest struct {
	Title         string         `json:"title" binding:"required"`
	Category      CourseCategory `json:"category" binding:"required"`
	Audience      Audience       `json:"audience" binding:"required"`
	Description   string         `json:"description" binding:"required"`
	DurationWeeks *int           `json:"duration_weeks,omitempty"`
	Price         *float64       `json:"price,omitempty"`
	Syllabus      []string       `json:"syllabus" binding:"required"`
	Image         *string        `json:"image,omitempty"`
	TrainerID     *uuid.UUID     `json:"trainer_id,omitempty"`
	IsPublished   *bool          `json:"is_published,omitempty"`
}

// Validate validates the create course request
func (r *CreateCourseRequest) Validate() error {
	if !r.Category.IsValid() {
		return errors.New("invalid course category")
	}
	if !r.Audience.IsValid() {
		return errors.New("invalid course audience")
	}
	if r.Price != nil && *r.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}

// UpdateCourseRequest represents the request to update a course
type UpdateCourseRequest struct {
	Title         *string         `json:"title,omitempty"`
	Category      *CourseCategory `json:"category,omitempty"`
	Audience      *Audience       `json:"audience,omitempty"`
	Description   *string         `json:"description,omitempty"`
	DurationWeeks *int            `json:"duration_weeks,omitempty"`
	Price         *float64        `json:"price,omitempty"`
	Syllabus      []string        `json:"syllabus,omitempty"`
	Image         *string         `json:"image,omitempty"`
	TrainerID     *uuid.UUID      `json:"trainer_id,omitempty"`
	IsPublished   *bool           `json:"is_published,omitempty"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

// Validate validates the update course request
func (r *UpdateCourseRequest) Validate() error {
	if r.Category != nil && !r.Category.IsValid() {
		return errors.New("invalid course category")
	}
	if r.Audience != nil && !r.Audience.IsValid() {
		return errors.New("invalid course audience")
	}
	if r.Price != nil && *r.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}

// CourseFilter narrows course listings
type CourseFilter struct {
	Category      *CourseCategory
	Audience      *Audience
	PublishedOnly bool
	Limit         int
	Offset        int
}
