package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Trainer represents a trainer profile
type Trainer struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	UserID             *uuid.UUID     `json:"user_id,omitempty" db:"user_id"`
	Name               string         `json:"name" db:"name"`
	Bio                *string        `json:"bio,omitempty" db:"bio"`
	Photo              *string        `json:"photo,omitempty" db:"photo"`
	Specializations    pq.StringArray `json:"specializations,omitempty" db:"specializations"`
	YearsOfExperience  *int           `json:"years_of_experience,omitempty" db:"years_of_experience"`
	Certifications     pq.StringArray `json:"certifications,omitempty" db:"certifications"`
	Rating             *float64       `json:"rating,omitempty" db:"rating"`
	TotalCoursesTaught int            `json:"total_courses_taught" db:"total_courses_taught"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateTrainerRequest represents the request to create a trainer profile
type CreateTrainerRequest struct {
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	Name              string     `json:"name" binding:"required"`
	Bio               *string    `json:"bio,omitempty"`
	Photo             *string    `json:"photo,omitempty"`
	Specializations   []string   `json:"specializations,omitempty"`
	YearsOfExperience *int       `json:"years_of_experience,omitempty"`
	Certifications    []string   `json:"certifications,omitempty"`
}

// UpdateTrainerRequest represents the request to update a trainer profile
type UpdateTrainerRequest struct {
	Name              *string  `json:"name,omitempty"`
	Bio               *string  `json:"bio,omitempty"`
	Photo             *string  `json:"photo,omitempty"`
	Specializations   []string `json:"specializations,omitempty"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
}
