package services

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/levelpap/training-backend/internal/config"
	"github.com/sirupsen/logrus"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveService handles Flutterwave hosted payment integration
type FlutterwaveService struct {
	config *config.FlutterwaveConfig
	logger *logrus.Logger
	client *http.Client
}

// NewFlutterwaveService creates a new FlutterwaveService
func NewFlutterwaveService(cfg *config.FlutterwaveConfig, logger *logrus.Logger) *FlutterwaveService {
	return &FlutterwaveService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// flutterwavePaymentRequest is the hosted payment link request body
type flutterwavePaymentRequest struct {
	TxRef          string              `json:"tx_ref"`
	Amount         string              `json:"amount"`
	Currency       string              `json:"currency"`
	RedirectURL    string              `json:"redirect_url"`
	Customer       flutterwaveCustomer `json:"customer"`
	Customizations map[string]string   `json:"customizations,omitempty"`
}

type flutterwaveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FlutterwavePaymentResponse is the hosted payment link response
type FlutterwavePaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// PaymentLinkParams contains the parameters for a hosted payment link
type PaymentLinkParams struct {
	TxRef         string // our payment reference
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
	Title         string
}

// IsConfigured returns true if Flutterwave credentials are present
func (s *FlutterwaveService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// CreatePaymentLink creates a hosted checkout page the customer is
// redirected to. The outcome arrives asynchronously on the webhook.
func (s *FlutterwaveService) CreatePaymentLink(params *PaymentLinkParams) (*FlutterwavePaymentResponse, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("Flutterwave gateway not configured: missing secret key")
	}

	request := &flutterwavePaymentRequest{
		TxRef:       params.TxRef,
		Amount:      fmt.Sprintf("%.2f", params.Amount),
		Currency:    params.Currency,
		RedirectURL: s.config.RedirectURL,
		Customer: flutterwaveCustomer{
			Email: params.CustomerEmail,
			Name:  params.CustomerName,
		},
	}
	if params.Title != "" {
		request.Customizations = map[string]string{"title": params.Title}
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tx_ref":   params.TxRef,
		"amount":   params.Amount,
		"currency": params.Currency,
	}).Info("Creating Flutterwave payment link")

	httpReq, err := http.NewRequest(http.MethodPost, flutterwaveBaseURL+"/payments", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Flutterwave payments endpoint")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var paymentResp FlutterwavePaymentResponse
	if err := json.Unmarshal(body, &paymentResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if paymentResp.Status != "success" {
		return nil, fmt.Errorf("payment initiation failed: %s", paymentResp.Message)
	}
	if paymentResp.Data.Link == "" {
		return nil, fmt.Errorf("payment initiation failed: no checkout link returned")
	}

	s.logger.WithFields(logrus.Fields{
		"tx_ref": params.TxRef,
		"link":   paymentResp.Data.Link,
	}).Info("Flutterwave payment link created")

	return &paymentResp, nil
}

// VerifyWebhookSignature checks the verif-hash header Flutterwave sends on
// every webhook against the configured secret hash.
func (s *FlutterwaveService) VerifyWebhookSignature(verifHash string) bool {
	if s.config.SecretHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(verifHash), []byte(s.config.SecretHash)) == 1
}
