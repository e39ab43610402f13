package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/levelpap/training-backend/internal/models"
)

// TrainerRepository handles database operations for the trainers table
type TrainerRepository struct {
	db DB
}

// NewTrainerRepository creates a new TrainerRepository
func NewTrainerRepository(db DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

const trainerColumns = `id, user_id, name, bio, photo, specializations,
	   years_of_experience, certifications, rating, total_courses_taught,
	   is_active, created_at, updated_at`

// Create creates a new trainer profile
func (r *TrainerRepository) Create(trainer *models.Trainer) error {
	query := `
		INSERT INTO trainers (
			id, user_id, name, bio, photo, specializations,
			years_of_experience, certifications
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if trainer.ID == uuid.Nil {
		trainer.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		trainer.ID, trainer.UserID, trainer.Name, trainer.Bio, trainer.Photo,
		pq.Array(trainer.Specializations), trainer.YearsOfExperience,
		pq.Array(trainer.Certifications),
	).Scan(&trainer.CreatedAt, &trainer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trainer: %w", err)
	}

	return nil
}

// GetByID retrieves a trainer by ID
func (r *TrainerRepository) GetByID(trainerID uuid.UUID) (*models.Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers WHERE id = $1`
	return r.scanTrainer(r.db.QueryRow(query, trainerID))
}

// List retrieves active trainers
func (r *TrainerRepository) List(limit, offset int) ([]models.Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers
		WHERE is_active = TRUE
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := []models.Trainer{}
	for rows.Next() {
		trainer, err := r.scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, *trainer)
	}

	return trainers, rows.Err()
}

// Update applies a partial update to a trainer profile
func (r *TrainerRepository) Update(trainerID uuid.UUID, req *models.UpdateTrainerRequest) error {
	query := `
		UPDATE trainers
		SET name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			photo = COALESCE($4, photo),
			specializations = COALESCE($5, specializations),
			years_of_experience = COALESCE($6, years_of_experience),
			certifications = COALESCE($7, certifications),
			is_active = COALESCE($8, is_active),
			updated_at = NOW()
		WHERE id = $1
	`

	var specializations, certifications interface{}
	if req.Specializations != nil {
		specializations = pq.Array(req.Specializations)
	}
	if req.Certifications != nil {
		certifications = pq.Array(req.Certifications)
	}

	result, err := r.db.Exec(
		query,
		trainerID, req.Name, req.Bio, req.Photo, specializations,
		req.YearsOfExperience, certifications, req.IsActive,
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

func (r *TrainerRepository) scanTrainer(row scanner) (*models.Trainer, error) {
	trainer := &models.Trainer{}
	var userID uuid.NullUUID
	var bio sql.NullString
	var photo sql.NullString
	var years sql.NullInt64
	var rating sql.NullFloat64

	err := row.Scan(
		&trainer.ID, &userID, &trainer.Name, &bio, &photo, &trainer.Specializations,
		&years, &trainer.Certifications, &rating, &trainer.TotalCoursesTaught,
		&trainer.IsActive, &trainer.CreatedAt, &trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		trainer.UserID = &userID.UUID
	}
	if bio.Valid {
		trainer.Bio = &bio.String
	}
	if photo.Valid {
		trainer.Photo = &photo.String
	}
	if years.Valid {
		y := int(years.Int64)
		trainer.YearsOfExperience = &y
	}
	if rating.Valid {
		trainer.Rating = &rating.Float64
	}

	return trainer, nil
}
