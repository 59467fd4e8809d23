// Package notifier posts waste and return alerts to a Slack incoming webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
	HTTPClient *http.Client
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WasteIdentified announces newly classified waste. Nothing is sent for an empty list.
func (s *SlackClient) WasteIdentified(ctx context.Context, date time.Time, fresh []cargo.WasteRecord) error {
	if s.WebhookURL == "" || len(fresh) == 0 {
		return nil
	}

	var lines []string
	for _, w := range fresh {
		where := "not stored"
		if w.Placement != nil {
			where = w.Placement.ContainerID
		}
		lines = append(lines, fmt.Sprintf("• `%s` %s (%s, %s)", w.ItemID, w.Name, w.Reason, where))
	}

	return s.send(ctx, []map[string]interface{}{
		headerBlock(fmt.Sprintf("🗑️ %d new waste item(s)", len(fresh))),
		contextBlock(fmt.Sprintf("*Date:* %s", date.Format(time.DateOnly))),
		{"type": "divider"},
		sectionBlock(strings.Join(lines, "\n")),
	})
}

// ReturnPlanned sends the manifest of a committed return plan.
func (s *SlackClient) ReturnPlanned(ctx context.Context, m cargo.ReturnManifest) error {
	if s.WebhookURL == "" {
		return nil
	}

	blocks := []map[string]interface{}{
		headerBlock(fmt.Sprintf("🚀 Return manifest for %s", m.UndockingContainerID)),
		contextBlock(fmt.Sprintf("*Undocking:* %s", m.UndockingDate.Format(time.DateOnly))),
		{
			"type": "section",
			"fields": []map[string]interface{}{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Items:*\n%d", len(m.Items))},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Mass:*\n%.1f / %.1f kg", m.TotalMass, m.MaxWeight)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Volume:*\n%.0f cm³", m.TotalVolume)},
			},
		},
	}

	if m.BudgetExceeded {
		blocks = append(blocks, sectionBlock(fmt.Sprintf(
			"⚠️ *Weight budget exceeded*\n%d waste item(s) stay aboard; %d more undocking(s) needed.",
			len(m.Remaining), m.AdditionalUndockings)))
	}

	return s.send(ctx, blocks)
}

func headerBlock(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "header",
		"text": map[string]interface{}{"type": "plain_text", "text": text},
	}
}

func contextBlock(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":     "context",
		"elements": []map[string]interface{}{{"type": "mrkdwn", "text": text}},
	}
}

func sectionBlock(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{"type": "mrkdwn", "text": text},
	}
}

func (s *SlackClient) send(ctx context.Context, blocks []map[string]interface{}) error {
	payload := map[string]interface{}{
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}
	return nil
}
