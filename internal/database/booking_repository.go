package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
)

// Errors surfaced by the capacity-checked booking insert. The service layer
// maps these onto the API error taxonomy.
var (
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrDuplicateBooking  = errors.New("booking already exists for this user and session")
)

// serializableRetries is how many times the capacity-checked insert is
// retried when Postgres aborts the serializable transaction.
const serializableRetries = 3

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, session_id, seats, payment_status,
	   total_amount, contact_phone, special_requirements,
	   cancelled_at, cancellation_reason, created_at, updated_at`

// CreateWithCapacityCheck inserts a booking after re-checking remaining
// seats inside a single SERIALIZABLE transaction. Only paid bookings count
// toward capacity. Serialization aborts are retried; a unique violation on
// (user_id, session_id) maps to ErrDuplicateBooking.
func (r *BookingRepository) CreateWithCapacityCheck(booking *models.Booking, capacity int) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentStatusPending
	}

	var err error
	for attempt := 0; attempt <= serializableRetries; attempt++ {
		err = r.createInTx(booking, capacity)
		if err == nil || !IsSerializationFailure(err) {
			break
		}
	}

	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return err
	}

	return nil
}

func (r *BookingRepository) createInTx(booking *models.Booking, capacity int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SET TRANSACTION ISOLATION LEVEL SERIALIZABLE`); err != nil {
		return fmt.Errorf("failed to set isolation level: %w", err)
	}

	var paidSeats int
	err = tx.QueryRow(`
		SELECT COALESCE(SUM(seats), 0)
		FROM bookings
		WHERE session_id = $1
		  AND payment_status = 'paid'
	`, booking.SessionID).Scan(&paidSeats)
	if err != nil {
		return fmt.Errorf("failed to count paid seats: %w", err)
	}

	if booking.Seats > capacity-paidSeats {
		return ErrInsufficientSeats
	}

	err = tx.QueryRow(`
		INSERT INTO bookings (
			id, user_id, session_id, seats, payment_status,
			total_amount, contact_phone, special_requirements
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		booking.ID, booking.UserID, booking.SessionID, booking.Seats,
		booking.PaymentStatus, booking.TotalAmount, booking.ContactPhone,
		booking.SpecialRequirements,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByUserAndSession retrieves a booking for a (user, session) pair.
// Returns nil, nil when no booking exists.
func (r *BookingRepository) GetByUserAndSession(userID, sessionID uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 AND session_id = $2`

	booking, err := r.scanBooking(r.db.QueryRow(query, userID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

// GetByUserID retrieves all bookings for a user
func (r *BookingRepository) GetByUserID(userID uuid.UUID) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetBySessionID retrieves all bookings for a session
func (r *BookingRepository) GetBySessionID(sessionID uuid.UUID) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE session_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetPaidSeats returns the total seats across paid bookings for a session.
// Pending bookings are speculative holds and do not reserve seats.
func (r *BookingRepository) GetPaidSeats(sessionID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(seats), 0)
		FROM bookings
		WHERE session_id = $1
		  AND payment_status = 'paid'
	`

	var totalSeats int
	err := r.db.QueryRow(query, sessionID).Scan(&totalSeats)
	return totalSeats, err
}

// Cancel marks a booking cancelled and forces its payment status to
// refunded. The cancelled_at guard makes repeated cancellation fail with
// zero rows affected.
func (r *BookingRepository) Cancel(bookingID uuid.UUID, reason *string) error {
	query := `
		UPDATE bookings
		SET cancelled_at = NOW(),
			cancellation_reason = $2,
			payment_status = 'refunded',
			updated_at = NOW()
		WHERE id = $1
		  AND cancelled_at IS NULL
	`

	result, err := r.db.Exec(query, bookingID, reason)
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

// UpdatePaymentStatus moves a booking's payment status, guarded by the
// expected current status so concurrent updates cannot double-apply.
// Returns the number of rows updated.
func (r *BookingRepository) UpdatePaymentStatus(bookingID uuid.UUID, from, to models.PaymentStatus) (int64, error) {
	query := `
		UPDATE bookings
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1
		  AND payment_status = $2
	`

	result, err := r.db.Exec(query, bookingID, from, to)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var contactPhone sql.NullString
	var specialRequirements sql.NullString
	var cancelledAt sql.NullTime
	var cancellationReason sql.NullString

	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.SessionID, &booking.Seats,
		&booking.PaymentStatus, &booking.TotalAmount, &contactPhone, &specialRequirements,
		&cancelledAt, &cancellationReason, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if contactPhone.Valid {
		booking.ContactPhone = &contactPhone.String
	}
	if specialRequirements.Valid {
		booking.SpecialRequirements = &specialRequirements.String
	}
	if cancelledAt.Valid {
		booking.CancelledAt = &cancelledAt.Time
	}
	if cancellationReason.Valid {
		booking.CancellationReason = &cancellationReason.String
	}

	return booking, nil
}

func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}
