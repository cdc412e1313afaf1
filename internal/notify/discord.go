// Package notify delivers human-readable outcome summaries to a Discord
// webhook channel. Delivery is fire-and-forget: a failed notification is
// logged and dropped, never retried, and never affects the mutation it
// describes.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type DiscordWebhook struct {
	client *resty.Client
	url    string
}

func NewDiscordWebhook(webhookURL string) *DiscordWebhook {
	return &DiscordWebhook{
		client: resty.New().SetTimeout(10 * time.Second),
		url:    webhookURL,
	}
}

func (d *DiscordWebhook) Notify(ctx context.Context, message string) {
	if d.url == "" {
		return
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": message}).
		Post(d.url)
	if err != nil {
		slog.Warn("notification delivery failed", "error", err)
		return
	}

	// Discord answers 204 on success.
	if resp.StatusCode() >= http.StatusBadRequest {
		slog.Warn("notification rejected", "status", resp.StatusCode())
	}
}
