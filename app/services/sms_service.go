// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/amirphl/dti-portal/config"
)

// SMSGateway sends SMS through an HTTP JSON gateway
type SMSGateway struct {
	config  *config.SMSConfig
	client  *http.Client
	baseURL string
}

// SMSRequest represents the request payload for the SMS gateway
type SMSRequest struct {
	SenderName     string `json:"senderName"`
	Recipient      string `json:"recipient"` // Format: 639XXXXXXXXX
	Body           string `json:"body"`
	RetryCount     int    `json:"retryCount"`
	ValidityPeriod int    `json:"validityPeriod"` // seconds
}

// SMSResponse represents individual message result from the gateway
type SMSResponse struct {
	MessageID  int64  `json:"messageId"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// NewSMSGateway creates a new SMS gateway client
func NewSMSGateway(cfg *config.SMSConfig) *SMSGateway {
	return &SMSGateway{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: fmt.Sprintf("https://%s", cfg.ProviderDomain),
	}
}

// toInternational converts 09XXXXXXXXX into 639XXXXXXXXX
func toInternational(mobile string) string {
	if strings.HasPrefix(mobile, "0") {
		return "63" + mobile[1:]
	}
	return mobile
}

// SendSMS implements SMSProvider
func (g *SMSGateway) SendSMS(ctx context.Context, mobile, message string) error {
	return g.SendBulk(ctx, []string{mobile}, message)
}

// SendBulk sends one message to many recipients in a single request
func (g *SMSGateway) SendBulk(ctx context.Context, recipients []string, message string) error {
	if len(recipients) == 0 {
		return nil
	}

	requests := make([]SMSRequest, 0, len(recipients))
	for _, r := range recipients {
		requests = append(requests, SMSRequest{
			SenderName:     g.config.SenderName,
			Recipient:      toInternational(r),
			Body:           message,
			RetryCount:     g.config.RetryCount,
			ValidityPeriod: g.config.ValidityPeriod,
		})
	}

	requestBody, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/messages", bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SMS gateway returned status %d", resp.StatusCode)
	}

	var results []SMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return fmt.Errorf("failed to decode SMS response: %w", err)
	}
	for _, r := range results {
		if r.StatusCode != http.StatusOK || r.Status != "ACCEPTED" {
			return fmt.Errorf("SMS delivery failed for %s: %s (%d)", r.Recipient, r.Status, r.StatusCode)
		}
	}
	return nil
}
