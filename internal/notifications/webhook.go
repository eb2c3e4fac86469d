package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// WebhookSink posts decisions as signed JSON to a configured endpoint,
// typically a chat bridge or the ServiceNow inbound API.
type WebhookSink struct {
	endpoint string
	secret   string
	client   *http.Client
	retries  int
	logger   *log.Logger
}

func NewWebhookSink(endpoint, secret string, timeout time.Duration, retries int, logger *log.Logger) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookSink{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: timeout},
		retries:  retries,
		logger:   logger,
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, d *models.AssignmentDecision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		if err := s.post(ctx, payload); err != nil {
			lastErr = err
			s.logger.Printf("notification attempt %d/%d failed: %v", attempt+1, s.retries+1, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to deliver notification after %d attempts: %w", s.retries+1, lastErr)
}

func (s *WebhookSink) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ticketwise-Signature", s.sign(payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSink) sign(payload []byte) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
