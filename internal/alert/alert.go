package alert

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/utils/webhook"
)

// Alert is the payload published for a scan that needs attention.
type Alert struct {
	Address    string          `json:"address"`
	Status     string          `json:"status"`
	WindowDays int             `json:"window_days"`
	Findings   []model.Finding `json:"findings"`
	// UnresolvedRecipients could not be checked for prior activity
	UnresolvedRecipients []string  `json:"unresolved_recipients,omitempty"`
	DetectedAt           time.Time `json:"detected_at"`
	// Sinks limits delivery to the named sinks. Empty means every sink.
	Sinks []string `json:"-"`
}

// DeliveryError names the sinks an alert could not be delivered to. The
// other sinks received it.
type DeliveryError struct {
	Failed []string
	Err    error
}

func (e *DeliveryError) Error() string {
	return "failed to deliver alert to " + strings.Join(e.Failed, ", ") + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// New builds the alerter for the sinks configured in appConfig. Alerts are
// always logged; the webhook and NATS sinks are added when configured.
func New(appConfig *config.AppConfig, logger *logger.Logger) (IAlerter, error) {
	sinks := []namedSink{{name: "log", alerter: NewLogAlerter(logger)}}

	if appConfig.Alert.WebhookURL != "" {
		sinks = append(sinks, namedSink{
			name:    "webhook",
			alerter: NewWebhookAlerter(webhook.New(logger), appConfig.Alert.WebhookURL),
		})
	}

	if appConfig.Alert.NatsURL != "" {
		natsAlerter, err := NewNatsAlerter(appConfig.Alert.NatsURL, appConfig.Alert.NatsSubject, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, namedSink{name: "nats", alerter: natsAlerter})
	}

	return &multiAlerter{sinks: sinks, logger: logger}, nil
}

type namedSink struct {
	name    string
	alerter IAlerter
}

// multiAlerter fans an alert out to every sink. A failing sink does not stop
// delivery to the others.
type multiAlerter struct {
	sinks  []namedSink
	logger *logger.Logger
}

// Send delivers alert to every sink, or to alert.Sinks when set. Failures
// come back as a *DeliveryError.
func (m *multiAlerter) Send(ctx context.Context, alert *Alert) error {
	var failed []string
	var firstErr error
	for _, sink := range m.sinks {
		if len(alert.Sinks) > 0 && !slices.Contains(alert.Sinks, sink.name) {
			continue
		}
		if err := sink.alerter.Send(ctx, alert); err != nil {
			m.logger.Error("[Send]["+sink.name+"]", map[string]string{
				"address": alert.Address,
				"error":   err.Error(),
			})
			failed = append(failed, sink.name)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return &DeliveryError{Failed: failed, Err: firstErr}
	}
	return nil
}

func (m *multiAlerter) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.alerter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type logAlerter struct {
	logger *logger.Logger
}

func NewLogAlerter(logger *logger.Logger) IAlerter {
	return &logAlerter{logger: logger}
}

func (l *logAlerter) Send(_ context.Context, alert *Alert) error {
	hashes := make([]string, 0, len(alert.Findings))
	for _, f := range alert.Findings {
		hashes = append(hashes, f.TransactionHash+":"+string(f.Reason))
	}

	l.logger.Warn("Suspicious outgoing transactions", map[string]string{
		"address":     alert.Address,
		"status":      alert.Status,
		"window_days": strconv.Itoa(alert.WindowDays),
		"findings":    strings.Join(hashes, ","),
		"unresolved":  strings.Join(alert.UnresolvedRecipients, ","),
	})
	return nil
}

func (l *logAlerter) Close() error { return nil }
