// Package emergency delivers SOS alerts raised by the assistant.
package emergency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/model"
)

// Alert describes one SOS event.
type Alert struct {
	SessionID   string          `json:"session_id"`
	Location    *model.Location `json:"location,omitempty"`
	Contacts    []model.Contact `json:"contacts"`
	TriggeredAt time.Time       `json:"triggered_at"`
}

// Notifier contacts whoever must act on an alert.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier records alerts in the log only.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "emergency").Logger()}
}

// Notify logs the alert at error level so it is never filtered out.
func (n *LogNotifier) Notify(_ context.Context, alert Alert) error {
	evt := n.log.Error().
		Str("session_id", alert.SessionID).
		Int("contacts", len(alert.Contacts)).
		Time("triggered_at", alert.TriggeredAt)
	if alert.Location != nil {
		evt = evt.Float64("lat", alert.Location.Latitude).Float64("lng", alert.Location.Longitude)
	}
	evt.Msg("SOS alert raised")

	for _, c := range alert.Contacts {
		n.log.Info().Str("name", c.Name).Str("phone", c.Phone).Msg("notifying emergency contact")
	}
	return nil
}

// WebhookNotifier POSTs alerts as JSON to a configured URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, httpClient: client}
}

// Notify sends the alert. Any non-2xx status is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// MultiNotifier fans an alert out to several notifiers. Every notifier is
// attempted; the first error is returned.
type MultiNotifier []Notifier

// Notify implements Notifier
func (m MultiNotifier) Notify(ctx context.Context, alert Alert) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil && first == nil {
			first = err
		}
	}
	return first
}
