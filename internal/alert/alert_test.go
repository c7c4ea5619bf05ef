package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/types/environments"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) Send(ctx context.Context, alert *Alert) error {
	return m.Called(alert).Error(0)
}

func (m *MockAlerter) Close() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(subject string, data []byte) error {
	return m.Called(subject, data).Error(0)
}

func (m *MockPublisher) FlushWithContext(ctx context.Context) error {
	_, hasDeadline := ctx.Deadline()
	return m.Called(hasDeadline).Error(0)
}

func sampleAlert() *Alert {
	return &Alert{
		Address:    "0xAbC",
		Status:     "suspicious",
		WindowDays: 7,
		Findings: []model.Finding{
			{TransactionHash: "0x1", RecipientAddress: "0xdef", Reason: model.ReasonMicroPayment},
			{TransactionHash: "0x1", RecipientAddress: "0xdef", Reason: model.ReasonFreshRecipient},
		},
		DetectedAt: time.Unix(1760000000, 0).UTC(),
	}
}

func TestNew_LogOnly(t *testing.T) {
	alerter, err := New(&config.AppConfig{}, logger.New(environments.Test))
	require.NoError(t, err)

	assert.NoError(t, alerter.Send(context.Background(), sampleAlert()))
	assert.NoError(t, alerter.Close())
}

func TestNew_WebhookSink(t *testing.T) {
	received := make(chan Alert, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		received <- a
	}))
	defer server.Close()

	cfg := &config.AppConfig{Alert: config.AlertConfig{WebhookURL: server.URL}}
	alerter, err := New(cfg, logger.New(environments.Test))
	require.NoError(t, err)

	require.NoError(t, alerter.Send(context.Background(), sampleAlert()))

	got := <-received
	assert.Equal(t, "0xAbC", got.Address)
	assert.Equal(t, "suspicious", got.Status)
	require.Len(t, got.Findings, 2)
	assert.Equal(t, model.ReasonFreshRecipient, got.Findings[1].Reason)
}

func TestNew_UnreachableNats(t *testing.T) {
	cfg := &config.AppConfig{Alert: config.AlertConfig{NatsURL: "nats://127.0.0.1:1", NatsSubject: "drainwatch.alerts"}}

	_, err := New(cfg, logger.New(environments.Test))
	assert.Error(t, err)
}

func TestMultiAlerter_KeepsDeliveringAfterFailure(t *testing.T) {
	failing := &MockAlerter{}
	failing.On("Send", mock.Anything).Return(errors.New("connection refused"))
	healthy := &MockAlerter{}
	healthy.On("Send", mock.Anything).Return(nil)

	m := &multiAlerter{
		sinks: []namedSink{
			{name: "webhook", alerter: failing},
			{name: "nats", alerter: healthy},
		},
		logger: logger.New(environments.Test),
	}

	err := m.Send(context.Background(), sampleAlert())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook")
	assert.NotContains(t, err.Error(), "nats")
	healthy.AssertNumberOfCalls(t, "Send", 1)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, []string{"webhook"}, deliveryErr.Failed)
	assert.EqualError(t, deliveryErr.Unwrap(), "connection refused")
}

func TestMultiAlerter_SendsToNamedSinks(t *testing.T) {
	tests := []struct {
		name          string
		sinks         []string
		expectedCalls map[string]int
	}{
		{name: "every sink", sinks: nil, expectedCalls: map[string]int{"log": 1, "webhook": 1, "nats": 1}},
		{name: "one sink", sinks: []string{"nats"}, expectedCalls: map[string]int{"log": 0, "webhook": 0, "nats": 1}},
		{name: "two sinks", sinks: []string{"webhook", "nats"}, expectedCalls: map[string]int{"log": 0, "webhook": 1, "nats": 1}},
		{name: "unknown sink", sinks: []string{"email"}, expectedCalls: map[string]int{"log": 0, "webhook": 0, "nats": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := map[string]*MockAlerter{}
			sinks := []namedSink{}
			for _, name := range []string{"log", "webhook", "nats"} {
				m := &MockAlerter{}
				m.On("Send", mock.Anything).Return(nil)
				mocks[name] = m
				sinks = append(sinks, namedSink{name: name, alerter: m})
			}
			m := &multiAlerter{sinks: sinks, logger: logger.New(environments.Test)}

			a := sampleAlert()
			a.Sinks = tt.sinks
			require.NoError(t, m.Send(context.Background(), a))

			for name, calls := range tt.expectedCalls {
				mocks[name].AssertNumberOfCalls(t, "Send", calls)
			}
		})
	}
}

func TestNatsAlerter_Send(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", "drainwatch.alerts", mock.MatchedBy(func(data []byte) bool {
		var a Alert
		return json.Unmarshal(data, &a) == nil && a.Address == "0xAbC" && len(a.Findings) == 2
	})).Return(nil)
	// flushing needs a deadline even when the caller gave none
	pub.On("FlushWithContext", true).Return(nil)

	n := &natsAlerter{conn: pub, subject: "drainwatch.alerts"}

	require.NoError(t, n.Send(context.Background(), sampleAlert()))
	pub.AssertExpectations(t)
	assert.NoError(t, n.Close())
}

func TestNatsAlerter_PublishError(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed"))

	n := &natsAlerter{conn: pub, subject: "drainwatch.alerts"}

	err := n.Send(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drainwatch.alerts")
	pub.AssertNotCalled(t, "FlushWithContext", mock.Anything)
}
