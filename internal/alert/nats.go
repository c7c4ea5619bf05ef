package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

const flushTimeout = 5 * time.Second

type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

type natsAlerter struct {
	conn    publisher
	close   func()
	subject string
}

// NewNatsAlerter connects to natsURL and publishes alerts on subject.
func NewNatsAlerter(natsURL, subject string, logger *logger.Logger) (IAlerter, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("drain-watcher"),
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			fields := map[string]string{}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.Warn("Disconnected from NATS", fields)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", map[string]string{
				"url": nc.ConnectedUrl(),
			})
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to NATS")
	}

	return &natsAlerter{
		conn:    conn,
		close:   conn.Close,
		subject: subject,
	}, nil
}

func (n *natsAlerter) Send(ctx context.Context, alert *Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return errors.Wrap(err, "failed to marshal alert")
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.Wrapf(err, "failed to publish alert on %s", n.subject)
	}

	// publish only buffers; flush so a lost connection surfaces here
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.Wrap(err, "failed to flush NATS connection")
	}
	return nil
}

func (n *natsAlerter) Close() error {
	if n.close != nil {
		n.close()
	}
	return nil
}
