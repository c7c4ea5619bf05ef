package explorer

import (
	"context"

	"github.com/dwarvesf/drain-watcher/internal/model"
)

type IExplorer interface {
	// GetTransactionsByAddress returns the normal transactions of address, newest first.
	GetTransactionsByAddress(ctx context.Context, address string) ([]model.RawTransaction, error)
	// CountTransactions returns how many transactions of address are indexed,
	// stopping at limit so callers only pay for what they need to know.
	CountTransactions(ctx context.Context, address string, limit int) (int, error)
}
