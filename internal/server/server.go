package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/drain-watcher/internal/alert"
	"github.com/dwarvesf/drain-watcher/internal/baserpc"
	"github.com/dwarvesf/drain-watcher/internal/detector"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/handler"
	"github.com/dwarvesf/drain-watcher/internal/handler/health"
	"github.com/dwarvesf/drain-watcher/internal/monitoring"
	"github.com/dwarvesf/drain-watcher/internal/oracle"
	"github.com/dwarvesf/drain-watcher/internal/transport/http"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/utils/webhook"
	"github.com/dwarvesf/drain-watcher/internal/watcher"
)

const stalledJobThreshold = 30 * time.Minute

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	detectorMetrics := monitoring.NewDetectorMetrics()
	detectorMetrics.MustRegister(registry)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)

	explorerClient := monitoring.NewCircuitBreakerExplorer(
		explorer.New(appConfig, logger),
		monitoring.CircuitBreakerConfigs[monitoring.ServiceExplorer],
		apiMetrics,
		logger,
	)
	checkers := map[string]health.Checker{
		monitoring.ServiceExplorer: explorerClient,
	}

	var rpc baserpc.IBaseRPC
	if appConfig.Blockchain.RPCEndpoint != "" {
		baseRpc, err := baserpc.New(appConfig, logger)
		if err != nil {
			logger.Fatal("[Init][baserpc.New]", map[string]string{
				"error": err.Error(),
			})
		}
		rpcClient := monitoring.NewCircuitBreakerBaseRPC(
			baseRpc,
			monitoring.CircuitBreakerConfigs[monitoring.ServiceBaseRPC],
			apiMetrics,
			logger,
		)
		checkers[monitoring.ServiceBaseRPC] = rpcClient
		rpc = rpcClient
	}

	detectorConfig, err := newDetectorConfig(appConfig)
	if err != nil {
		logger.Fatal("[Init][newDetectorConfig]", map[string]string{
			"error": err.Error(),
		})
	}
	classifier, err := detector.NewClassifier(detectorConfig, logger)
	if err != nil {
		logger.Fatal("[Init][detector.NewClassifier]", map[string]string{
			"error": err.Error(),
		})
	}

	alerter, err := alert.New(appConfig, logger)
	if err != nil {
		logger.Fatal("[Init][alert.New]", map[string]string{
			"error": err.Error(),
		})
	}
	defer alerter.Close()

	w := watcher.New(
		appConfig,
		explorerClient,
		NewActivityOracle(appConfig, explorerClient, rpc, registry, logger),
		classifier,
		alerter,
		detectorMetrics,
		logger,
	)

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics, stalledJobThreshold)
	c := cron.New()
	if len(appConfig.Watch.Addresses) > 0 {
		uptime := webhook.New(logger)
		watchJob := monitoring.NewInstrumentedJob(health.WatchJobName, func(ctx context.Context) (map[string]interface{}, error) {
			summary, err := w.WatchAll(ctx)
			if err != nil {
				if summary != nil {
					return summary.Metadata(), err
				}
				return nil, err
			}
			uptime.CallUptimeWebhook(ctx, appConfig.Watch.UptimeWebhookURL)
			return summary.Metadata(), nil
		}, jobStatusManager, logger, appConfig.Watch.JobTimeout)

		if _, err := c.AddJob(appConfig.Watch.ScanPeriod, watchJob); err != nil {
			logger.Fatal("[Init][cron.AddJob]", map[string]string{
				"schedule": appConfig.Watch.ScanPeriod,
				"error":    err.Error(),
			})
		}
	} else {
		logger.Warn("[Init] no watched addresses configured, periodic scan disabled")
	}
	c.Start()
	defer c.Stop()

	h := handler.New(appConfig, logger, w, checkers, registry, jobStatusManager)
	httpServer := http.NewHttpServer(appConfig, logger, h, httpMetrics)

	if err := httpServer.Run(":" + appConfig.ApiServer.Port); err != nil {
		logger.Error("[Init][httpServer.Run]", map[string]string{
			"error": err.Error(),
		})
	}
}

// newDetectorConfig checks the detector section of appConfig, including the
// window the periodic watch scans with.
func newDetectorConfig(appConfig *config.AppConfig) (detector.Config, error) {
	if err := detector.ValidateWindow(appConfig.Detector.WindowDays); err != nil {
		return detector.Config{}, err
	}
	return detector.NewConfig(appConfig.Detector.MicroThreshold, appConfig.Detector.OracleConcurrency)
}

// NewActivityOracle chains the nonce shortcut in front of the explorer
// lookup when an RPC client is available, and caches answers when a TTL is
// configured. Cache hits and misses are exported on registry when it is set.
func NewActivityOracle(
	appConfig *config.AppConfig,
	ex explorer.IExplorer,
	rpc baserpc.IBaseRPC,
	registry prometheus.Registerer,
	logger *logger.Logger,
) oracle.IActivityOracle {
	var o oracle.IActivityOracle = oracle.NewExplorerOracle(ex, logger)
	if rpc != nil {
		o = oracle.NewNonceOracle(rpc, o, logger)
	}
	if appConfig.Oracle.CacheTTL <= 0 {
		return o
	}

	cached := oracle.NewCachedOracle(o, appConfig.Oracle.CacheTTL)
	if registry != nil {
		if err := monitoring.RegisterOracleCache(registry, cached); err != nil {
			logger.Warn("[NewActivityOracle][RegisterOracleCache]", map[string]string{
				"error": err.Error(),
			})
		}
	}
	return cached
}
