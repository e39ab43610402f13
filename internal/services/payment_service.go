package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/levelpap/training-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// MpesaGateway is the provider surface the payment service needs from the
// M-Pesa client. Kept as an interface so tests can stub the network.
type MpesaGateway interface {
	IsConfigured() bool
	InitiateStkPush(params *StkPushParams) (*StkPushResponse, error)
	VerifyWebhookSecret(provided string) bool
}

// FlutterwaveGateway is the provider surface the payment service needs
// from the Flutterwave client
type FlutterwaveGateway interface {
	IsConfigured() bool
	CreatePaymentLink(params *PaymentLinkParams) (*FlutterwavePaymentResponse, error)
	VerifyWebhookSignature(verifHash string) bool
}

// PaymentInitiationResult is returned to the caller after a payment intent
// is created and handed to the provider
type PaymentInitiationResult struct {
	Payment         *models.Payment `json:"payment"`
	CheckoutURL     *string         `json:"checkout_url,omitempty"`
	CustomerMessage *string         `json:"customer_message,omitempty"`
}

// PaymentService handles payment intents: one per booking, with a unique
// provider-prefixed reference, driven to a terminal state either by the
// provider webhook or by an immediate initiation failure.
type PaymentService struct {
	paymentRepo    *database.PaymentRepository
	bookingRepo    *database.BookingRepository
	mpesa          MpesaGateway
	flutterwave    FlutterwaveGateway
	phoneValidator *validator.PhoneValidator
	logger         *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	mpesa MpesaGateway,
	flutterwave FlutterwaveGateway,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		bookingRepo:    bookingRepo,
		mpesa:          mpesa,
		flutterwave:    flutterwave,
		phoneValidator: validator.NewPhoneValidator(),
		logger:         logger,
	}
}

// referencePrefixes maps providers to their payment reference prefix
var referencePrefixes = map[models.PaymentProvider]string{
	models.ProviderMpesa:       "MPESA_",
	models.ProviderFlutterwave: "FLW_",
	models.ProviderOther:       "PAY_",
}

// GeneratePaymentReference builds a provider-prefixed reference with 16
// uppercase hex characters of randomness, e.g. MPESA_9F2C41AB03D7E655
func GeneratePaymentReference(provider models.PaymentProvider) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate payment reference: %w", err)
	}
	return referencePrefixes[provider] + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// InitiatePayment creates a payment intent for a booking and hands it to
// the chosen provider. The booking's frozen total is charged; the caller
// cannot override the amount.
func (s *PaymentService) InitiatePayment(userID uuid.UUID, req *models.InitiatePaymentRequest) (*PaymentInitiationResult, error) {
	// 1. Validate provider-specific contact requirements
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}
	if req.Provider == models.ProviderMpesa {
		// Daraja requires the 254XXXXXXXXX MSISDN format
		msisdn, err := s.phoneValidator.Validate(*req.Phone)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
		}
		req.Phone = &msisdn
	}

	// 2. Booking must exist and belong to the caller
	booking, err := s.bookingRepo.GetByID(req.BookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", req.BookingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}

	// 3. Booking must still be payable
	if booking.IsCancelled() {
		return nil, fmt.Errorf("%w: booking is cancelled", ErrConflict)
	}
	if booking.PaymentStatus != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: booking payment status is %s, not pending", ErrConflict, booking.PaymentStatus)
	}

	// 4. One payment intent per booking
	existing, err := s.paymentRepo.GetByBookingID(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: payment already initiated for this booking (reference %s)", ErrConflict, existing.PaymentReference)
	}

	reference, err := GeneratePaymentReference(req.Provider)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BookingID:        req.BookingID,
		Provider:         req.Provider,
		PaymentReference: reference,
		Amount:           booking.TotalAmount,
		Currency:         "KES",
		Status:           models.TransactionPending,
	}

	// 5. Record the intent before touching the provider, so a crash
	// mid-call never loses the reference
	if err := s.paymentRepo.Create(payment); err != nil {
		if errors.Is(err, database.ErrDuplicatePayment) {
			return nil, fmt.Errorf("%w: payment already initiated for this booking", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	// 6. Hand off to the provider
	result, err := s.callProvider(payment, req)
	if err != nil {
		// The intent must not stay pending when the provider said no
		reason := err.Error()
		if _, ferr := s.paymentRepo.UpdateStatusFrom(payment.ID, models.TransactionPending, models.TransactionFailed, &reason); ferr != nil {
			s.logger.WithError(ferr).WithField("payment_id", payment.ID).Error("Failed to mark payment as failed after provider error")
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"reference":  reference,
			"provider":   req.Provider,
		}).Error("Payment initiation failed at provider")
		return nil, fmt.Errorf("payment initiation failed: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": req.BookingID,
		"reference":  reference,
		"provider":   req.Provider,
		"amount":     payment.Amount,
	}).Info("Payment initiated")

	result.Payment, err = s.paymentRepo.GetByID(payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload payment: %w", err)
	}

	return result, nil
}

// callProvider dispatches the initiation to the chosen provider and moves
// the intent to processing once the provider accepts it
func (s *PaymentService) callProvider(payment *models.Payment, req *models.InitiatePaymentRequest) (*PaymentInitiationResult, error) {
	result := &PaymentInitiationResult{}

	switch req.Provider {
	case models.ProviderMpesa:
		resp, err := s.mpesa.InitiateStkPush(&StkPushParams{
			Phone:            *req.Phone,
			Amount:           payment.Amount,
			AccountReference: payment.PaymentReference,
			Description:      "Training course booking",
		})
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.SetProviderResult(payment.ID, &resp.CheckoutRequestID, models.JSONB{
			"merchant_request_id": resp.MerchantRequestID,
			"checkout_request_id": resp.CheckoutRequestID,
			"response_code":       resp.ResponseCode,
		}); err != nil {
			return nil, fmt.Errorf("failed to store provider result: %w", err)
		}
		result.CustomerMessage = &resp.CustomerMessage

	case models.ProviderFlutterwave:
		resp, err := s.flutterwave.CreatePaymentLink(&PaymentLinkParams{
			TxRef:         payment.PaymentReference,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			CustomerEmail: *req.Email,
			Title:         "Training course booking",
		})
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.SetProviderResult(payment.ID, nil, models.JSONB{
			"status": resp.Status,
			"link":   resp.Data.Link,
		}); err != nil {
			return nil, fmt.Errorf("failed to store provider result: %w", err)
		}
		result.CheckoutURL = &resp.Data.Link

	default:
		return nil, fmt.Errorf("provider %s does not support online initiation", req.Provider)
	}

	if _, err := s.paymentRepo.UpdateStatusFrom(payment.ID, models.TransactionPending, models.TransactionProcessing, nil); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	return result, nil
}

// GetPayment retrieves a payment. Non-admin callers only see payments on
// their own bookings.
func (s *PaymentService) GetPayment(paymentID uuid.UUID, requesterID uuid.UUID, isAdmin bool) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if !isAdmin {
		booking, err := s.bookingRepo.GetByID(payment.BookingID)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking: %w", err)
		}
		if booking.UserID != requesterID {
			return nil, fmt.Errorf("%w: payment belongs to another user", ErrForbidden)
		}
	}

	return payment, nil
}

// GetPaymentByReference retrieves a payment by its unique reference.
// Non-admin callers only see payments on their own bookings.
func (s *PaymentService) GetPaymentByReference(reference string, requesterID uuid.UUID, isAdmin bool) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByReference(reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", reference, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if !isAdmin {
		booking, err := s.bookingRepo.GetByID(payment.BookingID)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking: %w", err)
		}
		if booking.UserID != requesterID {
			return nil, fmt.Errorf("%w: payment belongs to another user", ErrForbidden)
		}
	}

	return payment, nil
}

// GetPaymentForBooking retrieves the payment attached to a booking, or
// ErrNotFound when none was ever initiated
func (s *PaymentService) GetPaymentForBooking(bookingID uuid.UUID, requesterID uuid.UUID, isAdmin bool) (*models.Payment, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if !isAdmin && booking.UserID != requesterID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}

	payment, err := s.paymentRepo.GetByBookingID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("no payment for booking %s: %w", bookingID, ErrNotFound)
	}

	return payment, nil
}
