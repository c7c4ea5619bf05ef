package oracle

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

// ExplorerOracle answers from the transaction count reported by the explorer.
type ExplorerOracle struct {
	explorer explorer.IExplorer
	logger   *logger.Logger
}

func NewExplorerOracle(explorer explorer.IExplorer, logger *logger.Logger) *ExplorerOracle {
	return &ExplorerOracle{
		explorer: explorer,
		logger:   logger,
	}
}

func (o *ExplorerOracle) HasPriorActivity(ctx context.Context, address string) (bool, error) {
	// one more than the threshold is enough to decide
	count, err := o.explorer.CountTransactions(ctx, address, PriorActivityThreshold+1)
	if err != nil {
		return false, errors.Wrapf(err, "count transactions of %s", address)
	}

	o.logger.Debug("[HasPriorActivity][CountTransactions]", map[string]string{
		"address": address,
		"count":   strconv.Itoa(count),
	})

	return count > PriorActivityThreshold, nil
}
