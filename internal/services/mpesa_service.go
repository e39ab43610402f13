package services

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/levelpap/training-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// MpesaEnvironmentURLs maps environment names to their Daraja API base URLs
var MpesaEnvironmentURLs = map[string]string{
	"sandbox":    "https://sandbox.safaricom.co.ke",
	"production": "https://api.safaricom.co.ke",
}

// MpesaService handles M-Pesa Daraja STK push integration
type MpesaService struct {
	config *config.MpesaConfig
	logger *logrus.Logger
	client *http.Client
}

// NewMpesaService creates a new MpesaService
func NewMpesaService(cfg *config.MpesaConfig, logger *logrus.Logger) *MpesaService {
	return &MpesaService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// mpesaTokenResponse is the Daraja OAuth token response
type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// stkPushRequest is the Daraja STK push request body
type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// StkPushResponse is the Daraja STK push acknowledgement
type StkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// StkPushParams contains the parameters for an STK push
type StkPushParams struct {
	Phone            string // 2547XXXXXXXX format
	Amount           float64
	AccountReference string // our payment reference
	Description      string
}

// IsConfigured returns true if Daraja credentials are present
func (s *MpesaService) IsConfigured() bool {
	return s.config.ConsumerKey != "" && s.config.ConsumerSecret != ""
}

// getAccessToken fetches a Daraja OAuth token using the consumer key/secret
func (s *MpesaService) getAccessToken() (string, error) {
	baseURL := s.baseURL()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(s.config.ConsumerKey, s.config.ConsumerSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp mpesaTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	return tokenResp.AccessToken, nil
}

// InitiateStkPush sends an STK push prompt to the customer's phone.
// The eventual outcome arrives asynchronously on the callback URL.
func (s *MpesaService) InitiateStkPush(params *StkPushParams) (*StkPushResponse, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("M-Pesa gateway not configured: missing consumer credentials")
	}

	token, err := s.getAccessToken()
	if err != nil {
		return nil, err
	}

	// Daraja password is base64(shortcode + passkey + timestamp)
	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString(
		[]byte(s.config.Shortcode + s.config.Passkey + timestamp),
	)

	request := &stkPushRequest{
		BusinessShortCode: s.config.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            fmt.Sprintf("%.0f", params.Amount),
		PartyA:            params.Phone,
		PartyB:            s.config.Shortcode,
		PhoneNumber:       params.Phone,
		CallBackURL:       s.config.CallbackURL,
		AccountReference:  params.AccountReference,
		TransactionDesc:   params.Description,
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reference":   params.AccountReference,
		"amount":      params.Amount,
		"environment": s.config.Environment,
	}).Info("Initiating M-Pesa STK push")

	httpReq, err := http.NewRequest(http.MethodPost, s.baseURL()+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build STK push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Daraja STK push endpoint")
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

	var pushResp StkPushResponse
	if err := json.Unmarshal(body, &pushResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// ResponseCode "0" means the prompt was accepted for processing
	if pushResp.ResponseCode != "0" {
		return nil, fmt.Errorf("STK push rejected: %s", pushResp.ResponseDescription)
	}

	s.logger.WithFields(logrus.Fields{
		"reference":           params.AccountReference,
		"checkout_request_id": pushResp.CheckoutRequestID,
	}).Info("M-Pesa STK push accepted")

	return &pushResp, nil
}

// VerifyWebhookSecret checks the shared secret carried on inbound callbacks.
// When no secret is configured (sandbox), verification passes.
func (s *MpesaService) VerifyWebhookSecret(provided string) bool {
	if s.config.WebhookSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.config.WebhookSecret)) == 1
}

func (s *MpesaService) baseURL() string {
	if url, ok := MpesaEnvironmentURLs[s.config.Environment]; ok {
		return url
	}
	return MpesaEnvironmentURLs["sandbox"]
}
