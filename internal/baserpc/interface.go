package baserpc

import "context"

type IBaseRPC interface {
	// NonceAt returns the number of transactions sent by address at the latest block.
	NonceAt(ctx context.Context, address string) (uint64, error)
	// BlockNumber is used to probe node health.
	BlockNumber(ctx context.Context) (uint64, error)
}
