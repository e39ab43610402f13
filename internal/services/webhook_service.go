package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrWebhookUnauthorized is returned when an inbound callback fails
// authenticity verification. This is the only webhook error surfaced to
// the provider; everything else is absorbed so the provider sees 200 and
// does not retry forever.
var ErrWebhookUnauthorized = errors.New("webhook verification failed")

// WebhookService reconciles asynchronous provider callbacks with payments
// and bookings. Every inbound event is persisted raw before any processing,
// so a bug in the pipeline never loses provider data.
type WebhookService struct {
	webhookRepo *database.WebhookEventRepository
	paymentRepo *database.PaymentRepository
	bookingRepo *database.BookingRepository
	mpesa       MpesaGateway
	flutterwave FlutterwaveGateway
	logger      *logrus.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	webhookRepo *database.WebhookEventRepository,
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	mpesa MpesaGateway,
	flutterwave FlutterwaveGateway,
	logger *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		webhookRepo: webhookRepo,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		mpesa:       mpesa,
		flutterwave: flutterwave,
		logger:      logger,
	}
}

// mpesaStkCallback is the Daraja STK push result envelope
type mpesaStkCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// flutterwaveWebhook is the Flutterwave event envelope
type flutterwaveWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID     int64   `json:"id"`
		TxRef  string  `json:"tx_ref"`
		FlwRef string  `json:"flw_ref"`
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"data"`
}

// HandleMpesaCallback processes an inbound Daraja STK push result.
// Returns ErrWebhookUnauthorized when the shared secret does not match;
// all other failures are recorded on the stored event and absorbed.
func (s *WebhookService) HandleMpesaCallback(providedSecret string, body []byte) error {
	event := s.storeEvent(models.ProviderMpesa, "stk_callback", body)

	if !s.mpesa.VerifyWebhookSecret(providedSecret) {
		s.recordFailure(event, nil, "webhook secret mismatch")
		return ErrWebhookUnauthorized
	}

	var callback mpesaStkCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		s.recordFailure(event, nil, fmt.Sprintf("malformed payload: %v", err))
		return nil
	}

	stk := callback.Body.StkCallback
	if stk.CheckoutRequestID == "" {
		s.recordFailure(event, nil, "payload missing CheckoutRequestID")
		return nil
	}

	payment, err := s.paymentRepo.GetByProviderTransactionID(stk.CheckoutRequestID)
	if err != nil {
		s.recordFailure(event, nil, fmt.Sprintf("payment lookup failed: %v", err))
		return nil
	}
	if payment == nil {
		s.recordFailure(event, nil, fmt.Sprintf("no payment for checkout request %s", stk.CheckoutRequestID))
		return nil
	}

	success := stk.ResultCode == 0
	var reason *string
	if !success {
		reason = &stk.ResultDesc
	}

	// The M-Pesa receipt number arrives only on success, in the metadata
	var receipt *string
	for _, item := range stk.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if v, ok := item.Value.(string); ok {
				receipt = &v
			}
		}
	}

	s.applyOutcome(event, payment, success, reason, receipt)
	return nil
}

// HandleFlutterwaveWebhook processes an inbound Flutterwave event.
// Returns ErrWebhookUnauthorized when the verif-hash header does not match;
// all other failures are recorded on the stored event and absorbed.
func (s *WebhookService) HandleFlutterwaveWebhook(verifHash string, body []byte) error {
	var envelope flutterwaveWebhook
	eventType := "unknown"
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Event != "" {
		eventType = envelope.Event
	}

	event := s.storeEvent(models.ProviderFlutterwave, eventType, body)

	if !s.flutterwave.VerifyWebhookSignature(verifHash) {
		s.recordFailure(event, nil, "verif-hash mismatch")
		return ErrWebhookUnauthorized
	}

	if envelope.Data.TxRef == "" {
		s.recordFailure(event, nil, "payload missing tx_ref")
		return nil
	}

	payment, err := s.paymentRepo.GetByReference(envelope.Data.TxRef)
	if errors.Is(err, sql.ErrNoRows) {
		s.recordFailure(event, nil, fmt.Sprintf("no payment for reference %s", envelope.Data.TxRef))
		return nil
	}
	if err != nil {
		s.recordFailure(event, nil, fmt.Sprintf("payment lookup failed: %v", err))
		return nil
	}

	success := envelope.Data.Status == "successful"
	var reason *string
	if !success {
		r := fmt.Sprintf("provider reported status %s", envelope.Data.Status)
		reason = &r
	}

	var flwRef *string
	if envelope.Data.FlwRef != "" {
		flwRef = &envelope.Data.FlwRef
	}

	s.applyOutcome(event, payment, success, reason, flwRef)
	return nil
}

// storeEvent persists the raw callback before anything can go wrong.
// A storage failure is logged but processing continues: losing the audit
// row is better than dropping a money movement.
func (s *WebhookService) storeEvent(provider models.PaymentProvider, eventType string, body []byte) *models.WebhookEvent {
	var payload models.JSONB
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = models.JSONB{"raw": string(body)}
	}

	event := &models.WebhookEvent{
		Provider:  provider,
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.webhookRepo.Create(event); err != nil {
		s.logger.WithError(err).WithField("provider", provider).Error("Failed to store webhook event")
		return nil
	}
	return event
}

// applyOutcome moves the payment and its booking using status-guarded
// updates, so replays and concurrent deliveries apply at most once
func (s *WebhookService) applyOutcome(event *models.WebhookEvent, payment *models.Payment, success bool, reason, providerTxnID *string) {
	log := s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": payment.BookingID,
		"reference":  payment.PaymentReference,
	})

	if payment.Status.IsTerminal() {
		log.WithField("status", payment.Status).Info("Webhook replay for settled payment, ignoring")
		s.markProcessed(event, payment)
		return
	}

	target := models.TransactionCompleted
	if !success {
		target = models.TransactionFailed
	}

	if !payment.Status.CanTransitionTo(target) {
		s.recordFailure(event, payment, fmt.Sprintf("cannot move payment from %s to %s", payment.Status, target))
		return
	}

	if providerTxnID != nil {
		if err := s.paymentRepo.SetProviderResult(payment.ID, providerTxnID, event.Payload); err != nil {
			log.WithError(err).Warn("Failed to store provider transaction id")
		}
	}

	rows, err := s.paymentRepo.UpdateStatusFrom(payment.ID, payment.Status, target, reason)
	if err != nil {
		s.recordFailure(event, payment, fmt.Sprintf("payment update failed: %v", err))
		return
	}
	if rows == 0 {
		// A concurrent delivery won the race
		log.Info("Payment already settled by a concurrent webhook, ignoring")
		s.markProcessed(event, payment)
		return
	}

	bookingTarget := models.PaymentStatusPaid
	if !success {
		bookingTarget = models.PaymentStatusFailed
	}

	rows, err = s.bookingRepo.UpdatePaymentStatus(payment.BookingID, models.PaymentStatusPending, bookingTarget)
	if err != nil {
		s.recordFailure(event, payment, fmt.Sprintf("booking update failed: %v", err))
		return
	}
	if rows == 0 {
		// The booking moved on, usually cancelled while payment was in
		// flight. The payment outcome is still recorded above.
		log.Warn("Booking no longer pending, payment outcome recorded without booking update")
	}

	log.WithFields(logrus.Fields{
		"payment_status": target,
		"booking_status": bookingTarget,
	}).Info("Webhook applied")
	s.markProcessed(event, payment)
}

func (s *WebhookService) markProcessed(event *models.WebhookEvent, payment *models.Payment) {
	if event == nil {
		return
	}
	var paymentID *uuid.UUID
	if payment != nil {
		paymentID = &payment.ID
	}
	if err := s.webhookRepo.MarkProcessed(event.ID, paymentID); err != nil {
		s.logger.WithError(err).WithField("event_id", event.ID).Error("Failed to mark webhook event processed")
	}
}

func (s *WebhookService) recordFailure(event *models.WebhookEvent, payment *models.Payment, reason string) {
	s.logger.WithField("reason", reason).Warn("Webhook event not applied")
	if event == nil {
		return
	}
	var paymentID *uuid.UUID
	if payment != nil {
		paymentID = &payment.ID
	}
	if err := s.webhookRepo.MarkFailed(event.ID, paymentID, reason); err != nil {
		s.logger.WithError(err).WithField("event_id", event.ID).Error("Failed to record webhook processing error")
	}
}
