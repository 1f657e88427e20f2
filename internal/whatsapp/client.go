// Package whatsapp sends outbound WhatsApp text messages through the Meta
// Graph API and formats appointment confirmations.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v21.0"
	defaultHTTPTimeout  = 15 * time.Second
)

// ErrNotConfigured is returned when no phone number id or token is set.
var ErrNotConfigured = errors.New("whatsapp: phone number id and access token are required")

// Config holds the Graph API credentials.
type Config struct {
	GraphAPIBase  string
	PhoneNumberID string
	AccessToken   string
	HTTPClient    *http.Client
	Logger        *logging.Logger
}

// Client sends messages from one WhatsApp business number.
type Client struct {
	graphAPIBase  string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewClient creates a Graph API client. A client without credentials is still
// returned; Send reports ErrNotConfigured.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.GraphAPIBase), "/")
	if base == "" {
		base = defaultGraphAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		graphAPIBase:  base,
		phoneNumberID: strings.TrimSpace(cfg.PhoneNumberID),
		accessToken:   strings.TrimSpace(cfg.AccessToken),
		httpClient:    httpClient,
		logger:        logger.WithComponent("whatsapp"),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.phoneNumberID != "" && c.accessToken != ""
}

// SendTextMessage sends body to phone. A leading '+' is stripped.
func (c *Client) SendTextMessage(ctx context.Context, phone, body string) (*SendResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	to := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if to == "" {
		return nil, errors.New("whatsapp: recipient phone is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("whatsapp: message body is required")
	}
	return c.send(ctx, SendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             TextBody{PreviewURL: false, Body: body},
	})
}

func (c *Client) send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	sendResp.Raw = json.RawMessage(respBody)

	if sendResp.Error != nil {
		c.logger.Warn("whatsapp send rejected", "status", resp.StatusCode, "code", sendResp.Error.Code, "error", sendResp.Error.Message)
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
	}
	return &sendResp, nil
}

// SendRequest is the Graph API text message payload.
type SendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

type TextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// SendResponse is the Graph API reply. Raw keeps the body for relaying.
type SendResponse struct {
	MessagingProduct string          `json:"messaging_product,omitempty"`
	Contacts         []Contact       `json:"contacts,omitempty"`
	Messages         []MessageRef    `json:"messages,omitempty"`
	Error            *APIError       `json:"error,omitempty"`
	Raw              json.RawMessage `json:"-"`
}

type Contact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type MessageRef struct {
	ID string `json:"id"`
}

// APIError is the Graph API error object.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// MessageID returns the first accepted message id.
func (r *SendResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}
