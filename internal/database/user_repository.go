package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, phone, role,
	   email_verified, email_verification_token,
	   password_reset_token, password_reset_expires,
	   last_login, is_active, created_at, updated_at`

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, name, phone, role,
			email_verified, email_verification_token, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.Role,
		user.EmailVerified, user.EmailVerificationToken, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(query, userID))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetByResetToken retrieves a user by a non-expired password reset token
func (r *UserRepository) GetByResetToken(token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > NOW()`
	return r.scanUser(r.db.QueryRow(query, token))
}

// GetByVerificationToken retrieves a user by email verification token
func (r *UserRepository) GetByVerificationToken(token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token = $1`
	return r.scanUser(r.db.QueryRow(query, token))
}

// List retrieves users with pagination
func (r *UserRepository) List(limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := r.scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// UpdateProfile updates a user's name and phone
func (r *UserRepository) UpdateProfile(userID uuid.UUID, name *string, phone *string) error {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(query, userID, name, phone)
}

// UpdateLastLogin records the time of a successful login
func (r *UserRepository) UpdateLastLogin(userID uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`
	return r.execExpectingRow(query, userID, at)
}

// SetResetToken stores a password reset token with its expiry
func (r *UserRepository) SetResetToken(userID uuid.UUID, token string, expires time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(query, userID, token, expires)
}

// UpdatePassword replaces the password hash and clears any reset token
func (r *UserRepository) UpdatePassword(userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
			password_reset_token = NULL,
			password_reset_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(query, userID, passwordHash)
}

// MarkEmailVerified marks the email as verified and clears the token
func (r *UserRepository) MarkEmailVerified(userID uuid.UUID) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(query, userID)
}

func (r *UserRepository) execExpectingRow(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *UserRepository) scanUser(row scanner) (*models.User, error) {
	return r.scanUserFrom(row)
}

func (r *UserRepository) scanUserFrom(row scanner) (*models.User, error) {
	user := &models.User{}
	var phone sql.NullString
	var verificationToken sql.NullString
	var resetToken sql.NullString
	var resetExpires sql.NullTime
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &phone, &user.Role,
		&user.EmailVerified, &verificationToken,
		&resetToken, &resetExpires,
		&lastLogin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		user.Phone = &phone.String
	}
	if verificationToken.Valid {
		user.EmailVerificationToken = &verificationToken.String
	}
	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		user.PasswordResetExpires = &resetExpires.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}
