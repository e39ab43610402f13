package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:        uuid.New(),
			Provider:         models.ProviderMpesa,
			PaymentReference: "MPESA_9F2C41AB03D7E655",
			Amount:           15000,
		}
		now := time.Now()

		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(
				sqlmock.AnyArg(), payment.BookingID, models.ProviderMpesa,
				"MPESA_9F2C41AB03D7E655", 15000.0, "KES",
				models.TransactionPending, sqlmock.AnyArg(), nil,
			).
			WillReturnRows(sqlmock.NewRows([]string{"initiated_at", "created_at", "updated_at"}).
				AddRow(now, now, now))

		err := repo.Create(payment)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, payment.ID)
		assert.Equal(t, "KES", payment.Currency)
		assert.Equal(t, models.TransactionPending, payment.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Booking", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:        uuid.New(),
			Provider:         models.ProviderMpesa,
			PaymentReference: "MPESA_0000000000000001",
			Amount:           15000,
		}

		mock.ExpectQuery("INSERT INTO payments").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(payment)
		assert.ErrorIs(t, err, ErrDuplicatePayment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		payment := &models.Payment{
			BookingID:        uuid.New(),
			Provider:         models.ProviderFlutterwave,
			PaymentReference: "FLW_0000000000000002",
			Amount:           20000,
		}

		mock.ExpectQuery("INSERT INTO payments").
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(payment)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create payment")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaymentByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		paymentID := uuid.New()
		bookingID := uuid.New()
		reference := "FLW_AB12CD34EF56AB78"
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM payments WHERE payment_reference").
			WithArgs(reference).
			WillReturnRows(paymentRows().AddRow(
				paymentID, bookingID, "flutterwave", reference, 20000.0,
				"KES", "processing", []byte(`{}`), nil, now, nil, nil, now, now,
			))

		payment, err := repo.GetByReference(reference)
		require.NoError(t, err)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, reference, payment.PaymentReference)
		assert.Equal(t, models.TransactionProcessing, payment.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE payment_reference").
			WithArgs("FLW_DOESNOTEXIST0000").
			WillReturnError(sql.ErrNoRows)

		payment, err := repo.GetByReference("FLW_DOESNOTEXIST0000")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, payment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaymentByBookingID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("No Payment Returns Nil", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM payments WHERE booking_id").
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		payment, err := repo.GetByBookingID(bookingID)
		require.NoError(t, err)
		assert.Nil(t, payment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaymentByProviderTransactionID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		paymentID := uuid.New()
		bookingID := uuid.New()
		checkoutRequestID := "ws_CO_260820261234567890"
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM payments WHERE provider_transaction_id").
			WithArgs(checkoutRequestID).
			WillReturnRows(paymentRows().AddRow(
				paymentID, bookingID, "mpesa", "MPESA_9F2C41AB03D7E655", 15000.0,
				"KES", "processing", []byte(`{}`), checkoutRequestID, now, nil, nil, now, now,
			))

		payment, err := repo.GetByProviderTransactionID(checkoutRequestID)
		require.NoError(t, err)
		require.NotNil(t, payment.ProviderTransactionID)
		assert.Equal(t, checkoutRequestID, *payment.ProviderTransactionID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Returns Nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE provider_transaction_id").
			WithArgs("ws_CO_unknown").
			WillReturnError(sql.ErrNoRows)

		payment, err := repo.GetByProviderTransactionID("ws_CO_unknown")
		require.NoError(t, err)
		assert.Nil(t, payment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePaymentStatusFrom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("Guarded Transition Applies", func(t *testing.T) {
		paymentID := uuid.New()

		mock.ExpectExec("UPDATE payments").
			WithArgs(paymentID, models.TransactionProcessing, models.TransactionCompleted, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.UpdateStatusFrom(paymentID, models.TransactionProcessing, models.TransactionCompleted, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Guard Mismatch Updates Nothing", func(t *testing.T) {
		paymentID := uuid.New()

		// A concurrent delivery already moved the payment away from
		// processing, so this update is a no-op.
		mock.ExpectExec("UPDATE payments").
			WithArgs(paymentID, models.TransactionProcessing, models.TransactionFailed, "insufficient funds").
			WillReturnResult(sqlmock.NewResult(0, 0))

		reason := "insufficient funds"
		rows, err := repo.UpdateStatusFrom(paymentID, models.TransactionProcessing, models.TransactionFailed, &reason)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetProviderResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		paymentID := uuid.New()
		transactionID := "ws_CO_260820261234567890"

		mock.ExpectExec("UPDATE payments").
			WithArgs(paymentID, transactionID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetProviderResult(paymentID, &transactionID, models.JSONB{"response_code": "0"})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Payment", func(t *testing.T) {
		paymentID := uuid.New()

		mock.ExpectExec("UPDATE payments").
			WithArgs(paymentID, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetProviderResult(paymentID, nil, models.JSONB{"status": "success"})
		assert.ErrorIs(t, err, sql.ErrNoRows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func paymentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "provider", "payment_reference", "amount",
		"currency", "status", "provider_response", "provider_transaction_id",
		"initiated_at", "completed_at", "failure_reason", "created_at", "updated_at",
	})
}
