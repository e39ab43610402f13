package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/levelpap/training-backend/internal/models"
)

// CourseRepository handles database operations for the courses table
type CourseRepository struct {
	db DB
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, title, category, audience, description,
	   duration_weeks, price, syllabus, image, trainer_id,
	   is_published, is_active, created_at, updated_at`

// Create creates a new course
func (r *CourseRepository) Create(course *models.Course) error {
	query := `
		INSERT INTO courses (
			id, title, category, audience, description,
			duration_weeks, price, syllabus, image, trainer_id, is_published
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		course.ID, course.Title, course.Category, course.Audience, course.Description,
		course.DurationWeeks, course.Price, pq.Array(course.Syllabus), course.Image,
		course.TrainerID, course.IsPublished,
	).Scan(&course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(courseID uuid.UUID) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return r.scanCourse(r.db.QueryRow(query, courseID))
}

// List retrieves courses matching the filter
func (r *CourseRepository) List(filter models.CourseFilter) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE is_active = TRUE`
	args := []interface{}{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Audience != nil {
		args = append(args, *filter.Audience)
		query += fmt.Sprintf(" AND audience = $%d", len(args))
	}
	if filter.PublishedOnly {
		query += " AND is_published = TRUE"
	}

	query += " ORDER BY created_at DESC"

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

	courses := []models.Course{}
	for rows.Next() {
		course, err := r.scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}

	return courses, rows.Err()
}

// Update applies a partial update to a course
func (r *CourseRepository) Update(courseID uuid.UUID, req *models.UpdateCourseRequest) error {
	query := `
		UPDATE courses
		SET title = COALESCE($2, title),
			category = COALESCE($3, category),
			audience = COALESCE($4, audience),
			description = COALESCE($5, description),
			duration_weeks = COALESCE($6, duration_weeks),
			price = COALESCE($7, price),
			syllabus = COALESCE($8, syllabus),
			image = COALESCE($9, image),
			trainer_id = COALESCE($10, trainer_id),
			is_published = COALESCE($11, is_published),
			is_active = COALESCE($12, is_active),
			updated_at = NOW()
		WHERE id = $1
	`

	var syllabus interface{}
	if req.Syllabus != nil {
		syllabus = pq.Array(req.Syllabus)
	}

	result, err := r.db.Exec(
		query,
		courseID, req.Title, req.Category, req.Audience, req.Description,
		req.DurationWeeks, req.Price, syllabus, req.Image, req.TrainerID,
		req.IsPublished, req.IsActive,
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

// Deactivate soft-deletes a course
func (r *CourseRepository) Deactivate(courseID uuid.UUID) error {
	query := `UPDATE courses SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(query, courseID)
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

func (r *CourseRepository) scanCourse(row scanner) (*models.Course, error) {
	course := &models.Course{}
	var durationWeeks sql.NullInt64
	var price sql.NullFloat64
	var image sql.NullString
	var trainerID uuid.NullUUID

	err := row.Scan(
		&course.ID, &course.Title, &course.Category, &course.Audience, &course.Description,
		&durationWeeks, &price, &course.Syllabus, &image, &trainerID,
		&course.IsPublished, &course.IsActive, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if durationWeeks.Valid {
		weeks := int(durationWeeks.Int64)
		course.DurationWeeks = &weeks
	}
	if price.Valid {
		course.Price = &price.Float64
	}
	if image.Valid {
		course.Image = &image.String
	}
	if trainerID.Valid {
		course.TrainerID = &trainerID.UUID
	}

	return course, nil
}
