package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// SessionRepository handles database operations for the sessions table
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, course_id, date, start_time, end_time, location,
	   trainer_id, capacity, status, notes, created_at, updated_at`

// Create creates a new session
func (r *SessionRepository) Create(session *models.Session) error {
	query := `
		INSERT INTO sessions (
			id, course_id, date, start_time, end_time, location,
			trainer_id, capacity, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusScheduled
	}

	err := r.db.QueryRow(
		query,
		session.ID, session.CourseID, session.Date, session.StartTime, session.EndTime,
		session.Location, session.TrainerID, session.Capacity, session.Status, session.Notes,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(sessionID uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanSession(r.db.QueryRow(query, sessionID))
}

// List retrieves sessions matching the filter
func (r *SessionRepository) List(filter models.SessionFilter) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	args := []interface{}{}

	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += " ORDER BY date, start_time"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

// Update applies a partial update to a session
func (r *SessionRepository) Update(sessionID uuid.UUID, req *models.UpdateSessionRequest) error {
	query := `
		UPDATE sessions
		SET date = COALESCE($2, date),
			start_time = COALESCE($3, start_time),
			end_time = COALESCE($4, end_time),
			location = COALESCE($5, location),
			trainer_id = COALESCE($6, trainer_id),
			capacity = COALESCE($7, capacity),
			status = COALESCE($8, status),
			notes = COALESCE($9, notes),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(
		query,
		sessionID, req.Date, req.StartTime, req.EndTime, req.Location,
		req.TrainerID, req.Capacity, req.Status, req.Notes,
	)
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

// UpdateStatus updates only the session status
func (r *SessionRepository) UpdateStatus(sessionID uuid.UUID, status models.SessionStatus) error {
	query := `UPDATE sessions SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(query, sessionID, status)
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

func (r *SessionRepository) scanSession(row scanner) (*models.Session, error) {
	session := &models.Session{}
	var endTime sql.NullString
	var trainerID uuid.NullUUID
	var notes sql.NullString

	err := row.Scan(
		&session.ID, &session.CourseID, &session.Date, &session.StartTime, &endTime,
		&session.Location, &trainerID, &session.Capacity, &session.Status, &notes,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		session.EndTime = &endTime.String
	}
	if trainerID.Valid {
		session.TrainerID = &trainerID.UUID
	}
	if notes.Valid {
		session.Notes = &notes.String
	}

	return session, nil
}
