package oracle

import (
	"context"
	"strconv"

	"github.com/dwarvesf/drain-watcher/internal/baserpc"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

// NonceOracle answers from the account nonce when it alone proves activity
// and asks next otherwise. A nonce above the threshold means the address
// already sent that many transactions, which the indexer counts as well.
type NonceOracle struct {
	rpc    baserpc.IBaseRPC
	next   IActivityOracle
	logger *logger.Logger
}

func NewNonceOracle(rpc baserpc.IBaseRPC, next IActivityOracle, logger *logger.Logger) *NonceOracle {
	return &NonceOracle{
		rpc:    rpc,
		next:   next,
		logger: logger,
	}
}

func (o *NonceOracle) HasPriorActivity(ctx context.Context, address string) (bool, error) {
	nonce, err := o.rpc.NonceAt(ctx, address)
	if err != nil {
		// the node is a shortcut only, the indexer still has the answer
		o.logger.Warn("[HasPriorActivity][NonceAt] falling back", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return o.next.HasPriorActivity(ctx, address)
	}

	if nonce > PriorActivityThreshold {
		o.logger.Debug("[HasPriorActivity][NonceAt] active sender", map[string]string{
			"address": address,
			"nonce":   strconv.FormatUint(nonce, 10),
		})
		return true, nil
	}

	return o.next.HasPriorActivity(ctx, address)
}
