package detector

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/oracle"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

type lookupFunc func(ctx context.Context, address string) (bool, error)

// Classifier applies the micro payment and fresh recipient heuristics.
// It holds no state between calls.
type Classifier struct {
	cfg    Config
	logger *logger.Logger
}

func NewClassifier(cfg Config, logger *logger.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Classify scans txs in order and returns findings in scan order.
//
// A recipient is reported as fresh at most once per call. Recipients the
// oracle knows are not remembered, so each of their occurrences consults the
// oracle again. When the oracle fails for some recipients the findings that
// could be established are returned together with an *IncompleteError.
func (c *Classifier) Classify(ctx context.Context, txs []model.Transaction, o oracle.IActivityOracle) ([]model.Finding, error) {
	lookup := lookupFunc(o.HasPriorActivity)
	if c.cfg.OracleConcurrency > 1 {
		prefetched, err := c.prefetch(ctx, txs, o)
		if err != nil {
			return nil, err
		}
		lookup = prefetched
	}

	findings := []model.Finding{}
	seen := map[string]struct{}{}
	failures := &failureLog{index: map[string]struct{}{}}

	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// zero value transfers are approvals or no-ops
		if tx.Value == nil || tx.Value.Sign() <= 0 {
			continue
		}

		if tx.Value.Cmp(c.cfg.MicroThreshold) < 0 {
			findings = append(findings, model.Finding{
				TransactionHash:  tx.Hash,
				RecipientAddress: tx.To,
				Reason:           model.ReasonMicroPayment,
			})
		}

		if tx.IsContractCreation() {
			continue
		}
		key := normalize(tx.To)
		if _, ok := seen[key]; ok {
			continue
		}

		prior, err := lookup(ctx, tx.To)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Error("[Classify][HasPriorActivity]", map[string]string{
				"address": tx.To,
				"txHash":  tx.Hash,
				"error":   err.Error(),
			})
			failures.add(tx.To, err)
			continue
		}

		if !prior {
			findings = append(findings, model.Finding{
				TransactionHash:  tx.Hash,
				RecipientAddress: tx.To,
				Reason:           model.ReasonFreshRecipient,
			})
			seen[key] = struct{}{}
		}
	}

	if len(failures.errs) > 0 {
		return findings, &IncompleteError{Failures: failures.errs}
	}
	return findings, nil
}

// prefetch resolves every distinct candidate recipient once, in parallel,
// and returns a lookup answering from those results.
func (c *Classifier) prefetch(ctx context.Context, txs []model.Transaction, o oracle.IActivityOracle) (lookupFunc, error) {
	var (
		mu      sync.Mutex
		answers = map[string]bool{}
		errs    = map[string]error{}
		queued  = map[string]struct{}{}
	)

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.OracleConcurrency)

	for _, tx := range txs {
		if tx.Value == nil || tx.Value.Sign() <= 0 || tx.IsContractCreation() {
			continue
		}
		key := normalize(tx.To)
		if _, ok := queued[key]; ok {
			continue
		}
		queued[key] = struct{}{}

		address := tx.To
		g.Go(func() error {
			prior, err := o.HasPriorActivity(ctx, address)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[key] = err
				return nil
			}
			answers[key] = prior
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("[Classify][prefetch] resolved recipients", map[string]string{
		"count":  strconv.Itoa(len(queued)),
		"failed": strconv.Itoa(len(errs)),
	})

	return func(_ context.Context, address string) (bool, error) {
		key := normalize(address)
		if err, ok := errs[key]; ok {
			return false, err
		}
		return answers[key], nil
	}, nil
}

type failureLog struct {
	index map[string]struct{}
	errs  []*OracleUnavailableError
}

// add keeps the first failure of every address.
func (f *failureLog) add(address string, err error) {
	key := normalize(address)
	if _, ok := f.index[key]; ok {
		return
	}
	f.index[key] = struct{}{}
	f.errs = append(f.errs, &OracleUnavailableError{Address: address, Err: err})
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
