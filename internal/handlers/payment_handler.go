package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/middleware"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/levelpap/training-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles payment initiation, status and provider webhooks
type PaymentHandler struct {
	paymentService *services.PaymentService
	webhookService *services.WebhookService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	paymentService *services.PaymentService,
	webhookService *services.WebhookService,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookService: webhookService,
		logger:         logger,
	}
}

// InitiateMpesa handles POST /api/v1/payments/mpesa/initiate
func (h *PaymentHandler) InitiateMpesa(c *gin.Context) {
	h.initiate(c, models.ProviderMpesa)
}

// InitiateFlutterwave handles POST /api/v1/payments/flutterwave/initiate
func (h *PaymentHandler) InitiateFlutterwave(c *gin.Context) {
	h.initiate(c, models.ProviderFlutterwave)
}

// initiate is the shared initiation path. Each provider endpoint only
// accepts its own provider in the body.
func (h *PaymentHandler) initiate(c *gin.Context, provider models.PaymentProvider) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if req.Provider != provider {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider for this endpoint"})
		return
	}

	result, err := h.paymentService.InitiatePayment(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetStatus handles GET /api/v1/payments/status?ref=<payment_reference>
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ref := c.Query("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ref query parameter is required"})
		return
	}

	payment, err := h.paymentService.GetPaymentByReference(ref, userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetForBooking handles GET /api/v1/bookings/:id/payment
func (h *PaymentHandler) GetForBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	payment, err := h.paymentService.GetPaymentForBooking(bookingID, userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// MpesaWebhook handles POST /api/v1/payments/webhooks/mpesa.
// Processing failures are absorbed: Daraja gets a 200 and the failure is
// recorded on the stored event. Only an authenticity failure is rejected.
func (h *PaymentHandler) MpesaWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	err = h.webhookService.HandleMpesaCallback(c.GetHeader("X-Webhook-Secret"), body)
	if errors.Is(err, services.ErrWebhookUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "webhook verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}

// FlutterwaveWebhook handles POST /api/v1/payments/webhooks/flutterwave
func (h *PaymentHandler) FlutterwaveWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	err = h.webhookService.HandleFlutterwaveWebhook(c.GetHeader("verif-hash"), body)
	if errors.Is(err, services.ErrWebhookUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "webhook verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}
