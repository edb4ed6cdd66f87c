package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/greenplanet/inventory-server/config"
	"go.uber.org/zap"
)

// Message is one outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
}

// Mailer delivers messages through an external provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer posts messages as JSON to an HTTP delivery provider.
// Delivery is synchronous with no retry; the caller surfaces failures
// to the user.
type HTTPMailer struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPMailer(cfg config.EmailConfig, logger *zap.Logger) *HTTPMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPMailer{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		from:       cfg.FromAddress,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send posts one message. Non-2xx responses come back as an error
// carrying the provider's detail so the user sees why delivery failed.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("email: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email: provider returned status %d: %s", resp.StatusCode, string(detail))
	}

	m.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// ClaimSubject builds the fixed claim documentation subject line.
func ClaimSubject(policyNumber string) string {
	if policyNumber == "" {
		policyNumber = "N/A"
	}
	return "Insurance Claim Documentation - Policy: " + policyNumber
}
