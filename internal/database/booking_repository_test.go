package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithCapacityCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		booking := &models.Booking{
			UserID:      uuid.New(),
			SessionID:   uuid.New(),
			Seats:       2,
			TotalAmount: 30000,
		}
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO bookings").
			WithArgs(
				sqlmock.AnyArg(), booking.UserID, booking.SessionID, 2,
				models.PaymentStatusPending, 30000.0, nil, nil,
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		err := repo.CreateWithCapacityCheck(booking, 20)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, booking.ID)
		assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient Seats", func(t *testing.T) {
		booking := &models.Booking{
			UserID:      uuid.New(),
			SessionID:   uuid.New(),
			Seats:       3,
			TotalAmount: 45000,
		}

		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(18))
		mock.ExpectRollback()

		err := repo.CreateWithCapacityCheck(booking, 20)
		assert.ErrorIs(t, err, ErrInsufficientSeats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exact Fit", func(t *testing.T) {
		booking := &models.Booking{
			UserID:      uuid.New(),
			SessionID:   uuid.New(),
			Seats:       2,
			TotalAmount: 30000,
		}
		now := time.Now()

		// 18 paid seats, capacity 20, requesting 2 must succeed
		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(18))
		mock.ExpectQuery("INSERT INTO bookings").
			WithArgs(
				sqlmock.AnyArg(), booking.UserID, booking.SessionID, 2,
				models.PaymentStatusPending, 30000.0, nil, nil,
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		err := repo.CreateWithCapacityCheck(booking, 20)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Booking", func(t *testing.T) {
		booking := &models.Booking{
			UserID:      uuid.New(),
			SessionID:   uuid.New(),
			Seats:       1,
			TotalAmount: 15000,
		}

		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.CreateWithCapacityCheck(booking, 20)
		assert.ErrorIs(t, err, ErrDuplicateBooking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Serialization Failure Retried", func(t *testing.T) {
		booking := &models.Booking{
			UserID:      uuid.New(),
			SessionID:   uuid.New(),
			Seats:       1,
			TotalAmount: 15000,
		}
		now := time.Now()

		// First attempt aborts with a serialization failure
		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()

		// Second attempt succeeds
		mock.ExpectBegin()
		mock.ExpectExec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(booking.SessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		err := repo.CreateWithCapacityCheck(booking, 20)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()
		userID := uuid.New()
		sessionID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnRows(bookingRows().AddRow(
				bookingID, userID, sessionID, 2, "pending",
				30000.0, nil, nil, nil, nil, now, now,
			))

		booking, err := repo.GetByID(bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
		assert.Equal(t, userID, booking.UserID)
		assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)
		assert.Nil(t, booking.CancelledAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByID(bookingID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetByUserAndSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))

	t.Run("No Booking Returns Nil", func(t *testing.T) {
		userID := uuid.New()
		sessionID := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE user_id").
			WithArgs(userID, sessionID).
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByUserAndSession(userID, sessionID)
		require.NoError(t, err)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaidSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))
	sessionID := uuid.New()

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(14))

	seats, err := repo.GetPaidSeats(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 14, seats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()
		reason := "schedule conflict"

		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, reason).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Cancel(bookingID, &reason)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Cancel(bookingID, nil)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBookingPaymentStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(newMockDatabase(db))

	t.Run("Guarded Transition Applies", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, models.PaymentStatusPending, models.PaymentStatusPaid).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.UpdatePaymentStatus(bookingID, models.PaymentStatusPending, models.PaymentStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Guard Mismatch Updates Nothing", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec("UPDATE bookings").
			WithArgs(bookingID, models.PaymentStatusPending, models.PaymentStatusFailed).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.UpdatePaymentStatus(bookingID, models.PaymentStatusPending, models.PaymentStatusFailed)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "session_id", "seats", "payment_status",
		"total_amount", "contact_phone", "special_requirements",
		"cancelled_at", "cancellation_reason", "created_at", "updated_at",
	})
}

// mockDatabase adapts sqlmock to the DB interface
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
