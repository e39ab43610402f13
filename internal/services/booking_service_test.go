package services

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingService(db *sql.DB) *BookingService {
	mockDB := newMockDatabase(db)
	return NewBookingService(
		database.NewBookingRepository(mockDB),
		database.NewSessionRepository(mockDB),
		database.NewCourseRepository(mockDB),
		newTestLogger(),
	)
}

func TestCreateBooking(t *testing.T) {
	t.Run("Success Freezes Total From Course Price", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		userID := uuid.New()
		sessionID := uuid.New()
		courseID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id").
			WithArgs(sessionID).
			WillReturnRows(sessionRows().AddRow(
				sessionID, courseID, now, "09:00", nil, "Nairobi",
				nil, 20, "scheduled", nil, now, now,
			))
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE user_id").
			WithArgs(userID, sessionID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM courses WHERE id").
			WithArgs(courseID).
			WillReturnRows(courseRows().AddRow(
				courseID, "Project Management", "technical", "professionals", "PM fundamentals",
				6, 15000.0, []byte(`{"intro"}`), nil, nil, true, true, now, now,
			))
		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		booking, err := service.CreateBooking(userID, &models.CreateBookingRequest{
			SessionID: sessionID,
			Seats:     2,
		})
		require.NoError(t, err)
		assert.Equal(t, 30000.0, booking.TotalAmount)
		assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Session Full", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		userID := uuid.New()
		sessionID := uuid.New()
		courseID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id").
			WithArgs(sessionID).
			WillReturnRows(sessionRows().AddRow(
				sessionID, courseID, now, "09:00", nil, "Nairobi",
				nil, 20, "scheduled", nil, now, now,
			))
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE user_id").
			WithArgs(userID, sessionID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM courses WHERE id").
			WithArgs(courseID).
			WillReturnRows(courseRows().AddRow(
				courseID, "Project Management", "technical", "professionals", "PM fundamentals",
				6, 15000.0, []byte(`{"intro"}`), nil, nil, true, true, now, now,
			))
		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(20))
		mock.ExpectRollback()

		_, err = service.CreateBooking(userID, &models.CreateBookingRequest{
			SessionID: sessionID,
			Seats:     1,
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.ErrorIs(t, err, ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Booking", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		userID := uuid.New()
		sessionID := uuid.New()
		courseID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id").
			WithArgs(sessionID).
			WillReturnRows(sessionRows().AddRow(
				sessionID, courseID, now, "09:00", nil, "Nairobi",
				nil, 20, "scheduled", nil, now, now,
			))
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE user_id").
			WithArgs(userID, sessionID).
			WillReturnRows(bookingRows().AddRow(
				uuid.New(), userID, sessionID, 1, "pending",
				15000.0, nil, nil, nil, nil, now, now,
			))

		_, err = service.CreateBooking(userID, &models.CreateBookingRequest{
			SessionID: sessionID,
			Seats:     1,
		})
		assert.ErrorIs(t, err, ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Session Not Found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		sessionID := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id").
			WithArgs(sessionID).
			WillReturnError(sql.ErrNoRows)

		_, err = service.CreateBooking(uuid.New(), &models.CreateBookingRequest{
			SessionID: sessionID,
			Seats:     1,
		})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Completed Session Not Bookable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		sessionID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id").
			WithArgs(sessionID).
			WillReturnRows(sessionRows().AddRow(
				sessionID, uuid.New(), now, "09:00", nil, "Nairobi",
				nil, 20, "completed", nil, now, now,
			))

		_, err = service.CreateBooking(uuid.New(), &models.CreateBookingRequest{
			SessionID: sessionID,
			Seats:     1,
		})
		assert.ErrorIs(t, err, ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Seat Count", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)

		_, err = service.CreateBooking(uuid.New(), &models.CreateBookingRequest{
			SessionID: uuid.New(),
			Seats:     11,
		})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestGetBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newBookingService(db)

	t.Run("Owner Sees Own Booking", func(t *testing.T) {
		bookingID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, uuid.New(), 1, "paid",
				15000.0, nil, nil, nil, nil, now, now,
			))

		booking, err := service.GetBooking(bookingID, userID, false)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other User Denied", func(t *testing.T) {
		bookingID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, uuid.New(), uuid.New(), 1, "paid",
				15000.0, nil, nil, nil, nil, now, now,
			))

		_, err := service.GetBooking(bookingID, uuid.New(), false)
		assert.ErrorIs(t, err, ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Admin Sees Any Booking", func(t *testing.T) {
		bookingID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, uuid.New(), uuid.New(), 1, "paid",
				15000.0, nil, nil, nil, nil, now, now,
			))

		booking, err := service.GetBooking(bookingID, uuid.New(), true)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("Unpaid Booking Still Moves To Refunded", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		bookingID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, uuid.New(), 1, "pending",
				15000.0, nil, nil, nil, nil, now, now,
			))
		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, uuid.New(), 1, "refunded",
				15000.0, nil, nil, now, nil, now, now,
			))

		booking, err := service.CancelBooking(bookingID, userID, false, nil)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRefunded, booking.PaymentStatus)
		assert.True(t, booking.IsCancelled())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Cancel Rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		bookingID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, uuid.New(), 1, "refunded",
				15000.0, nil, nil, now, "changed plans", now, now,
			))

		_, err = service.CancelBooking(bookingID, userID, false, nil)
		assert.ErrorIs(t, err, ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost Race With Concurrent Cancel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		bookingID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, uuid.New(), 1, "paid",
				15000.0, nil, nil, nil, nil, now, now,
			))
		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err = service.CancelBooking(bookingID, userID, false, nil)
		assert.ErrorIs(t, err, ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other User Denied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newBookingService(db)
		bookingID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, uuid.New(), uuid.New(), 1, "paid",
				15000.0, nil, nil, nil, nil, now, now,
			))

		_, err = service.CancelBooking(bookingID, uuid.New(), false, nil)
		assert.ErrorIs(t, err, ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Shared test helpers for the services package

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "course_id", "date", "start_time", "end_time", "location",
		"trainer_id", "capacity", "status", "notes", "created_at", "updated_at",
	})
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "category", "audience", "description",
		"duration_weeks", "price", "syllabus", "image", "trainer_id",
		"is_published", "is_active", "created_at", "updated_at",
	})
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "session_id", "seats", "payment_status",
		"total_amount", "contact_phone", "special_requirements",
		"cancelled_at", "cancellation_reason", "created_at", "updated_at",
	})
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "provider", "payment_reference", "amount",
		"currency", "status", "provider_response", "provider_transaction_id",
		"initiated_at", "completed_at", "failure_reason", "created_at", "updated_at",
	})
}

// mockDatabase adapts sqlmock to the database.DB interface
type mockDatabase struct {
	db *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Beginx() (*sqlx.Tx, error) {
	return m.db.Beginx()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}
