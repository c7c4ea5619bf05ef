package alert

import (
	"context"
)

type jsonPoster interface {
	PostJSON(ctx context.Context, webhookURL string, payload interface{}) error
}

type webhookAlerter struct {
	client jsonPoster
	url    string
}

// NewWebhookAlerter posts every alert as JSON to url.
func NewWebhookAlerter(client jsonPoster, url string) IAlerter {
	return &webhookAlerter{client: client, url: url}
}

func (w *webhookAlerter) Send(ctx context.Context, alert *Alert) error {
	return w.client.PostJSON(ctx, w.url, alert)
}

func (w *webhookAlerter) Close() error { return nil }
