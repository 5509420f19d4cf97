package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const eventTypeHeader = "X-Shareit-Event"

// WebhookSender posts notifications as JSON to a single endpoint.
type WebhookSender struct {
	client *resty.Client
	url    string
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &WebhookSender{client: client, url: url}
}

func (s *WebhookSender) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader(eventTypeHeader, n.EventType).
		SetHeader("Idempotency-Key", n.ID).
		SetBody(body).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}
	return nil
}
