package baserpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

// ethCaller is the subset of *ethclient.Client used here.
type ethCaller interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type BaseRPC struct {
	client ethCaller
	logger *logger.Logger
}

func New(appConfig *config.AppConfig, logger *logger.Logger) (IBaseRPC, error) {
	client, err := ethclient.Dial(appConfig.Blockchain.RPCEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial rpc endpoint")
	}

	return &BaseRPC{
		client: client,
		logger: logger,
	}, nil
}

func (b *BaseRPC) NonceAt(ctx context.Context, address string) (uint64, error) {
	if !common.IsHexAddress(address) {
		return 0, errors.Errorf("invalid address %q", address)
	}

	nonce, err := b.client.NonceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		b.logger.Error("[NonceAt][client.NonceAt]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return 0, err
	}
	return nonce, nil
}

func (b *BaseRPC) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := b.client.BlockNumber(ctx)
	if err != nil {
		b.logger.Error("[BlockNumber][client.BlockNumber]", map[string]string{
			"error": err.Error(),
		})
		return 0, err
	}
	return n, nil
}
