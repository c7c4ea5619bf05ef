package watcher

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/alert"
	"github.com/dwarvesf/drain-watcher/internal/detector"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/monitoring"
	"github.com/dwarvesf/drain-watcher/internal/oracle"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

// ErrWatchInProgress is returned when WatchAll is called while a previous
// pass is still running.
var ErrWatchInProgress = errors.New("watch pass already in progress")

type Watcher struct {
	appConfig  *config.AppConfig
	explorer   explorer.IExplorer
	oracle     oracle.IActivityOracle
	classifier *detector.Classifier
	filter     *detector.Filter
	alerter    alert.IAlerter
	metrics    *monitoring.DetectorMetrics
	logger     *logger.Logger

	watchMutex sync.Mutex
	// alerted remembers per finding whether every sink received it, or
	// which sinks still miss it, while it stays inside the window
	alerted *cache.Cache
	now     func() time.Time
}

func New(
	appConfig *config.AppConfig,
	explorer explorer.IExplorer,
	oracle oracle.IActivityOracle,
	classifier *detector.Classifier,
	alerter alert.IAlerter,
	metrics *monitoring.DetectorMetrics,
	logger *logger.Logger,
) *Watcher {
	return newWatcher(appConfig, explorer, oracle, classifier, alerter, metrics, logger, time.Now)
}

func newWatcher(
	appConfig *config.AppConfig,
	explorer explorer.IExplorer,
	oracle oracle.IActivityOracle,
	classifier *detector.Classifier,
	alerter alert.IAlerter,
	metrics *monitoring.DetectorMetrics,
	logger *logger.Logger,
	now func() time.Time,
) *Watcher {
	window := time.Duration(appConfig.Detector.WindowDays) * 24 * time.Hour
	if window <= 0 {
		window = 24 * time.Hour
	}

	return &Watcher{
		appConfig:  appConfig,
		explorer:   explorer,
		oracle:     oracle,
		classifier: classifier,
		filter:     detector.NewFilter(now),
		alerter:    alerter,
		metrics:    metrics,
		logger:     logger,
		alerted:    cache.New(window, time.Hour),
		now:        now,
	}
}

func (w *Watcher) Scan(ctx context.Context, address string, windowDays int) (*ScanResult, error) {
	start := time.Now()
	result, err := w.scan(ctx, address, windowDays)

	status := "error"
	if err == nil {
		status = string(result.Status)
	}
	if w.metrics != nil {
		w.metrics.RecordScan(status, time.Since(start).Seconds())
	}

	return result, err
}

func (w *Watcher) scan(ctx context.Context, address string, windowDays int) (*ScanResult, error) {
	if err := detector.ValidateScan(address, windowDays); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)

	raw, err := w.explorer.GetTransactionsByAddress(ctx, address)
	if err != nil {
		w.logger.Error("[Scan][GetTransactionsByAddress]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, errors.Wrapf(err, "failed to fetch transactions of %s", address)
	}

	selection, err := w.filter.SelectOutgoing(raw, address, windowDays)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Address:        address,
		WindowDays:     windowDays,
		OutgoingCount:  len(selection.Transactions),
		Findings:       []FindingDetail{},
		SkippedRecords: skippedRecords(selection.Skipped),
		ScannedAt:      w.now().UTC(),
	}
	if len(selection.Skipped) > 0 {
		w.logger.Warn("[Scan][SelectOutgoing] skipped malformed records", map[string]string{
			"address": address,
			"count":   strconv.Itoa(len(selection.Skipped)),
		})
		if w.metrics != nil {
			w.metrics.RecordSkipped(len(selection.Skipped))
		}
	}

	if len(selection.Transactions) == 0 {
		result.Status = StatusNoOutgoing
		return result, nil
	}

	findings, err := w.classifier.Classify(ctx, selection.Transactions, w.oracle)
	var incomplete *detector.IncompleteError
	switch {
	case err == nil:
	case errors.As(err, &incomplete):
		result.UnresolvedRecipients = incomplete.Addresses()
		if w.metrics != nil {
			w.metrics.RecordOracleFailures(len(incomplete.Failures))
		}
	default:
		w.logger.Error("[Scan][Classify]", map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, err
	}

	result.Findings = detailFindings(findings, selection.Transactions)
	if w.metrics != nil {
		for _, f := range findings {
			w.metrics.RecordFinding(string(f.Reason))
		}
	}

	switch {
	case incomplete != nil:
		result.Status = StatusIncomplete
	case len(findings) > 0:
		result.Status = StatusSuspicious
	default:
		result.Status = StatusClean
	}

	return result, nil
}

func (w *Watcher) WatchAll(ctx context.Context) (*WatchSummary, error) {
	if !w.watchMutex.TryLock() {
		return nil, ErrWatchInProgress
	}
	defer w.watchMutex.Unlock()

	summary := &WatchSummary{}
	var failed []string

	for _, address := range w.appConfig.Watch.Addresses {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Scanned++
		result, err := w.Scan(ctx, address, w.appConfig.Detector.WindowDays)
		if err != nil {
			summary.Failed++
			failed = append(failed, address)
			continue
		}

		switch result.Status {
		case StatusSuspicious:
			summary.Suspicious++
		case StatusIncomplete:
			summary.Incomplete++
		case StatusNoOutgoing:
			summary.NoOutgoing++
		default:
			summary.Clean++
		}

		sent, err := w.alertNew(ctx, result)
		summary.Alerts += sent
		if err != nil {
			w.logger.Error("[WatchAll][alertNew]", map[string]string{
				"address": address,
				"error":   err.Error(),
			})
		}
	}

	w.logger.Info("[WatchAll] watch pass finished", map[string]string{
		"scanned":    strconv.Itoa(summary.Scanned),
		"noOutgoing": strconv.Itoa(summary.NoOutgoing),
		"suspicious": strconv.Itoa(summary.Suspicious),
		"incomplete": strconv.Itoa(summary.Incomplete),
		"failed":     strconv.Itoa(summary.Failed),
		"alerts":     strconv.Itoa(summary.Alerts),
	})

	if len(failed) > 0 {
		return summary, errors.Errorf("failed to scan %d of %d addresses: %s",
			len(failed), summary.Scanned, strings.Join(failed, ", "))
	}
	return summary, nil
}

// alertNew sends the findings of result not yet delivered everywhere.
// Findings new to the watcher go to every sink; findings a sink missed
// earlier go to that sink only. A finding is remembered per sink once
// delivered, so a healthy sink never sees it twice.
func (w *Watcher) alertNew(ctx context.Context, result *ScanResult) (int, error) {
	if w.alerter == nil || len(result.Findings) == 0 {
		return 0, nil
	}

	type batch struct {
		sinks    []string
		findings []model.Finding
		keys     []string
	}
	batches := []*batch{}
	bySinks := map[string]*batch{}
	for _, f := range result.Findings {
		key := strings.ToLower(result.Address + "|" + f.TransactionHash + "|" + string(f.Reason))
		var sinks []string
		if v, found := w.alerted.Get(key); found {
			pending, ok := v.([]string)
			if !ok {
				continue
			}
			sinks = pending
		}

		group := strings.Join(sinks, ",")
		b, ok := bySinks[group]
		if !ok {
			b = &batch{sinks: sinks}
			bySinks[group] = b
			batches = append(batches, b)
		}
		b.findings = append(b.findings, f.Finding)
		b.keys = append(b.keys, key)
	}

	sent := 0
	var firstErr error
	for _, b := range batches {
		err := w.alerter.Send(ctx, &alert.Alert{
			Address:              result.Address,
			Status:               string(result.Status),
			WindowDays:           result.WindowDays,
			Findings:             b.findings,
			UnresolvedRecipients: result.UnresolvedRecipients,
			DetectedAt:           result.ScannedAt,
			Sinks:                b.sinks,
		})
		if err == nil {
			sent++
			for _, key := range b.keys {
				w.alerted.SetDefault(key, delivered{})
			}
			continue
		}

		if firstErr == nil {
			firstErr = err
		}
		// without a sink breakdown the whole batch is retried as is
		var deliveryErr *alert.DeliveryError
		if errors.As(err, &deliveryErr) {
			for _, key := range b.keys {
				w.alerted.SetDefault(key, deliveryErr.Failed)
			}
		}
	}
	return sent, firstErr
}

// delivered marks a finding every sink has received.
type delivered struct{}

func detailFindings(findings []model.Finding, txs []model.Transaction) []FindingDetail {
	byHash := make(map[string]model.Transaction, len(txs))
	for _, tx := range txs {
		byHash[tx.Hash] = tx
	}

	details := make([]FindingDetail, 0, len(findings))
	for _, f := range findings {
		tx := byHash[f.TransactionHash]
		value := model.NewWeb3BigInt(tx.Value, model.EtherDecimals)
		details = append(details, FindingDetail{
			Finding:   f,
			Value:     value,
			ValueEth:  value.String(),
			Timestamp: tx.Timestamp.UTC(),
		})
	}
	return details
}

func skippedRecords(errs []*detector.MalformedRecordError) []SkippedRecord {
	if len(errs) == 0 {
		return nil
	}
	records := make([]SkippedRecord, 0, len(errs))
	for _, e := range errs {
		records = append(records, SkippedRecord{
			TransactionHash: e.Hash,
			Field:           e.Field,
			Error:           e.Err.Error(),
		})
	}
	return records
}
