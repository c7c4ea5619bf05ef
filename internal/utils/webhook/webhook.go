package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

// Client is a small HTTP client for outgoing webhook calls
type Client struct {
	httpClient *resty.Client
	logger     *logger.Logger
}

// New creates a new webhook client with timeout
func New(logger *logger.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			}),
		logger: logger,
	}
}

// CallUptimeWebhook makes a simple GET request to the webhook URL. Failures
// are logged and otherwise ignored.
func (c *Client) CallUptimeWebhook(ctx context.Context, webhookURL string) {
	if webhookURL == "" {
		return
	}

	resp, err := c.httpClient.R().SetContext(ctx).Get(webhookURL)
	if err != nil {
		c.logger.Error("Failed to call uptime webhook", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return
	}

	c.logger.Info("Successfully called uptime webhook", map[string]string{
		"url":         webhookURL,
		"status_code": resp.Status(),
	})
}

// PostJSON sends payload as a JSON body and fails on any non 2xx answer.
func (c *Client) PostJSON(ctx context.Context, webhookURL string, payload interface{}) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(webhookURL)
	if err != nil {
		return errors.Wrap(err, "failed to post webhook")
	}

	if resp.IsError() {
		return errors.Errorf("webhook responded with status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
