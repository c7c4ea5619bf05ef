package explorer

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

const (
	maxRetries    = 2
	retryWaitTime = time.Second
)

// ErrRateLimited is returned when the explorer keeps refusing requests
// after retrying.
var ErrRateLimited = errors.New("explorer rate limit reached")

type etherscan struct {
	apiKey string
	client *resty.Client
	logger *logger.Logger
}

func New(cfg *config.AppConfig, logger *logger.Logger) IExplorer {
	client := resty.New().
		SetBaseURL(cfg.Explorer.APIURL).
		SetTimeout(cfg.Explorer.Timeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryWaitTime).
		AddRetryCondition(shouldRetry)

	return &etherscan{
		apiKey: cfg.Explorer.APIKey,
		client: client,
		logger: logger,
	}
}

func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError {
		return true
	}
	// etherscan reports throttling with a 200 and status "0"
	return strings.Contains(strings.ToLower(r.String()), rateLimitedMessage)
}

func (c *etherscan) GetTransactionsByAddress(ctx context.Context, address string) ([]model.RawTransaction, error) {
	txs, err := c.txList(ctx, map[string]string{
		"address":    address,
		"startblock": defaultStartBlock,
		"endblock":   defaultEndBlock,
		"sort":       sortNewestFirst,
	})
	if err != nil {
		c.logger.Error("[GetTransactionsByAddress][txList]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, err
	}

	return txs, nil
}

func (c *etherscan) CountTransactions(ctx context.Context, address string, limit int) (int, error) {
	if limit <= 0 {
		return 0, errors.Errorf("limit must be positive, got %d", limit)
	}

	txs, err := c.txList(ctx, map[string]string{
		"address":    address,
		"startblock": defaultStartBlock,
		"endblock":   defaultEndBlock,
		"page":       "1",
		"offset":     strconv.Itoa(limit),
		"sort":       sortOldestFirst,
	})
	if err != nil {
		c.logger.Error("[CountTransactions][txList]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return 0, err
	}

	if len(txs) > limit {
		return limit, nil
	}
	return len(txs), nil
}

func (c *etherscan) txList(ctx context.Context, params map[string]string) ([]model.RawTransaction, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("module", "account").
		SetQueryParam("action", "txlist")
	if c.apiKey != "" {
		req.SetQueryParam("apikey", c.apiKey)
	}

	resp, err := req.Get("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to request txlist")
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, errors.Wrapf(ErrRateLimited, "status code: %d", resp.StatusCode())
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	return decodeTxList(resp.Body())
}

func decodeTxList(body []byte) ([]model.RawTransaction, error) {
	var envelope txListResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to parse txlist response")
	}

	if envelope.Status != statusOK {
		if envelope.Message == messageNoTxs {
			return []model.RawTransaction{}, nil
		}

		var reason string
		_ = json.Unmarshal(envelope.Result, &reason)
		if strings.Contains(strings.ToLower(reason), rateLimitedMessage) {
			return nil, errors.Wrap(ErrRateLimited, reason)
		}
		return nil, errors.Errorf("explorer error: %s: %s", envelope.Message, reason)
	}

	txs := []model.RawTransaction{}
	if err := json.Unmarshal(envelope.Result, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to parse transactions")
	}
	return txs, nil
}
