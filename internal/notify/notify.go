// Package notify delivers fire-and-forget alerts for newly indexed
// "Interested" emails. Delivery failure is logged and never blocks
// indexing.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oneboxhq/onebox-backend/internal/models"
)

// DefaultTimeout bounds one notification delivery.
const DefaultTimeout = 10 * time.Second

// Notifier delivers an alert about one indexed email.
type Notifier interface {
	Notify(ctx context.Context, email *models.Email) error
}

// SlackNotifier posts a short chat alert to a Slack-compatible incoming
// webhook. A SlackNotifier with an empty URL is disabled and delivers
// nothing.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a SlackNotifier for the given incoming
// webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
}

// Notify posts a chat message describing the email.
func (n *SlackNotifier) Notify(ctx context.Context, email *models.Email) error {
	if n.webhookURL == "" {
		return nil
	}

	text := fmt.Sprintf("📬 *Interested Email*\n*Subject:* %s\n*From:* %s", email.Subject, email.From)
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	return post(ctx, n.client, n.webhookURL, payload)
}

// WebhookNotifier posts the full email document, its label and a unique
// delivery id to a generic webhook endpoint. Empty URL means disabled.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier for the given endpoint.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
	}
}

// webhookEvent is the wire payload of one webhook delivery.
type webhookEvent struct {
	EventID string        `json:"event_id"`
	Email   *models.Email `json:"email"`
	Label   string        `json:"label"`
}

// Notify posts the email document to the webhook endpoint.
func (n *WebhookNotifier) Notify(ctx context.Context, email *models.Email) error {
	if n.url == "" {
		return nil
	}

	payload, err := json.Marshal(webhookEvent{
		EventID: uuid.NewString(),
		Email:   email,
		Label:   email.Label,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	return post(ctx, n.client, n.url, payload)
}

func post(ctx context.Context, client *http.Client, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Fanout delivers to every configured notifier, logging failures.
// One sink failing does not stop delivery to the others.
type Fanout struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewFanout creates a Fanout over the given notifiers.
func NewFanout(logger *slog.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

// Notify delivers the email to all sinks. It always returns nil:
// notification failure is logged, never propagated.
func (f *Fanout) Notify(ctx context.Context, email *models.Email) error {
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, email); err != nil && f.logger != nil {
			f.logger.Warn("notification delivery failed",
				slog.String("subject", email.Subject),
				slog.Any("error", err))
		}
	}
	return nil
}
