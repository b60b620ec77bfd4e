package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"golang.org/x/time/rate"
)

// Messenger delivers plain-text messages to a phone number
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}

// WhatsAppTextRequest is the Cloud API text message body
type WhatsAppTextRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// WhatsAppErrorResponse is the Cloud API error envelope
type WhatsAppErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type WhatsAppClient struct {
	config     *config.WhatsAppConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewWhatsAppClient(cfg *config.WhatsAppConfig) *WhatsAppClient {
	perSecond := cfg.SendsPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WhatsAppClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Send posts one text message. It waits for the send pacer first and never
// retries.
func (c *WhatsAppClient) Send(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send cancelled: %w", err)
	}

	reqBody := WhatsAppTextRequest{MessagingProduct: "whatsapp", To: to, Type: "text"}
	reqBody.Text.Body = body

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.config.APIBase, "/"), c.config.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr WhatsAppErrorResponse
	if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("WhatsApp API error %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("WhatsApp API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}

// SendChunked splits text at line boundaries and sends the pieces in order.
// The first failure stops the sequence; earlier pieces stay delivered.
func SendChunked(ctx context.Context, m Messenger, to, text string, limit int) error {
	parts := summary.Split(text, limit)
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if err := m.Send(ctx, to, part); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

// Configured reports whether the client has the credentials to send
func (c *WhatsAppClient) Configured() bool {
	return c.config.PhoneNumberID != "" && c.config.AccessToken != ""
}
