package alert

import "context"

// IAlerter delivers alerts about suspicious scans to an operator facing sink.
type IAlerter interface {
	Send(ctx context.Context, alert *Alert) error
	Close() error
}
