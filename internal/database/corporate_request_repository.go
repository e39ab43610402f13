package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/lib/pq"
)

// CorporateRequestRepository handles database operations for corporate
// training requests
type CorporateRequestRepository struct {
	db DB
}

// NewCorporateRequestRepository creates a new CorporateRequestRepository
func NewCorporateRequestRepository(db DB) *CorporateRequestRepository {
	return &CorporateRequestRepository{db: db}
}

const corporateRequestColumns = `id, company_name, contact_person, email, phone, topic,
	   preferred_dates, preferred_time, location, headcount, notes, status,
	   assigned_to_trainer_id, quoted_price, admin_notes,
	   responded_at, responded_by, created_at, updated_at`

// Create inserts a new corporate training request
func (r *CorporateRequestRepository) Create(req *models.CorporateRequest) error {
	query := `
		INSERT INTO corporate_requests (
			id, company_name, contact_person, email, phone, topic,
			preferred_dates, preferred_time, location, headcount, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = models.CorporateStatusPending
	}

	err := r.db.QueryRow(
		query,
		req.ID, req.CompanyName, req.ContactPerson, req.Email, req.Phone, req.Topic,
		pq.Array(req.PreferredDates), req.PreferredTime, req.Location,
		req.Headcount, req.Notes, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create corporate request: %w", err)
	}

	return nil
}

// GetByID retrieves a corporate request by its ID
func (r *CorporateRequestRepository) GetByID(id uuid.UUID) (*models.CorporateRequest, error) {
	query := `SELECT ` + corporateRequestColumns + ` FROM corporate_requests WHERE id = $1`
	return r.scanRequest(r.db.QueryRow(query, id))
}

// List retrieves corporate requests, optionally filtered by status
func (r *CorporateRequestRepository) List(status *models.CorporateRequestStatus) ([]models.CorporateRequest, error) {
	query := `SELECT ` + corporateRequestColumns + ` FROM corporate_requests`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.CorporateRequest{}
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	return requests, rows.Err()
}

// Respond records the admin review, stamping responded_at and responded_by
func (r *CorporateRequestRepository) Respond(id uuid.UUID, respondedBy uuid.UUID, req *models.RespondCorporateRequest) error {
	query := `
		UPDATE corporate_requests
		SET status = $2,
		    assigned_to_trainer_id = COALESCE($3, assigned_to_trainer_id),
		    quoted_price = COALESCE($4, quoted_price),
		    admin_notes = COALESCE($5, admin_notes),
		    responded_at = NOW(),
		    responded_by = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, req.Status, req.AssignedToTrainerID, req.QuotedPrice, req.AdminNotes, respondedBy)
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

func (r *CorporateRequestRepository) scanRequest(row scanner) (*models.CorporateRequest, error) {
	req := &models.CorporateRequest{}
	var preferredTime, location, notes, adminNotes sql.NullString
	var headcount sql.NullInt64
	var assignedTo, respondedBy uuid.NullUUID
	var quotedPrice sql.NullFloat64
	var respondedAt sql.NullTime

	err := row.Scan(
		&req.ID, &req.CompanyName, &req.ContactPerson, &req.Email, &req.Phone, &req.Topic,
		&req.PreferredDates, &preferredTime, &location, &headcount, &notes, &req.Status,
		&assignedTo, &quotedPrice, &adminNotes,
		&respondedAt, &respondedBy, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if preferredTime.Valid {
		req.PreferredTime = &preferredTime.String
	}
	if location.Valid {
		req.Location = &location.String
	}
	if headcount.Valid {
		h := int(headcount.Int64)
		req.Headcount = &h
	}
	if notes.Valid {
		req.Notes = &notes.String
	}
	if assignedTo.Valid {
		req.AssignedToTrainerID = &assignedTo.UUID
	}
	if quotedPrice.Valid {
		req.QuotedPrice = &quotedPrice.Float64
	}
	if adminNotes.Valid {
		req.AdminNotes = &adminNotes.String
	}
	if respondedAt.Valid {
		req.RespondedAt = &respondedAt.Time
	}
	if respondedBy.Valid {
		req.RespondedBy = &respondedBy.UUID
	}

	return req, nil
}
