package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
	RoleTrainer UserRole = "trainer"
)

// IsValid checks whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleTrainer:
		return true
	}
	return false
}

// User represents a registered platform user
type User struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	Name                   string     `json:"name" db:"name"`
	Phone                  *string    `json:"phone,omitempty" db:"phone"`
	Role                   UserRole   `json:"role" db:"role"`
	EmailVerified          bool       `json:"email_verified" db:"email_verified"`
	EmailVerificationToken *string    `json:"-" db:"email_verification_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires   *time.Time `json:"-" db:"password_reset_expires"`
	LastLogin              *time.Time `json:"last_login,omitempty" db:"last_login"`
	IsActive               bool       `json:"is_active" db:"is_active"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Name     string   `json:"name" binding:"required"`
	Phone    *string  `json:"phone,omitempty"`
	Role     UserRole `json:"role,omitempty"`
}

// Validate validates the register request
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Role == "" {
		r.Role = RoleStudent
	}
	if !r.Role.IsValid() {
		return errors.New("invalid role")
	}
	return nil
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the request to update a user profile
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// ForgotPasswordRequest asks for a password reset link
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest resets a password using a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// VerifyEmailRequest verifies an email address using a token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}
