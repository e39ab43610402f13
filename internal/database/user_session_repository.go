package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// UserSessionRepository handles database operations for login audit records
type UserSessionRepository struct {
	db DB
}

// NewUserSessionRepository creates a new UserSessionRepository
func NewUserSessionRepository(db DB) *UserSessionRepository {
	return &UserSessionRepository{db: db}
}

// Create inserts a login audit record
func (r *UserSessionRepository) Create(session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (
			id, user_id, ip_address, user_agent, browser, os, is_mobile
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		session.ID, session.UserID, session.IPAddress, session.UserAgent,
		session.Browser, session.OS, session.IsMobile,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record login session: %w", err)
	}

	return nil
}

// ListByUserID retrieves a user's recent logins, newest first
func (r *UserSessionRepository) ListByUserID(userID uuid.UUID, limit int) ([]models.UserSession, error) {
	query := `
		SELECT id, user_id, ip_address, user_agent, browser, os, is_mobile, created_at
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.UserSession{}
	for rows.Next() {
		var s models.UserSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent,
			&s.Browser, &s.OS, &s.IsMobile, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
