package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwarvesf/drain-watcher/internal/handler/health"
	"github.com/dwarvesf/drain-watcher/internal/handler/metrics"
	"github.com/dwarvesf/drain-watcher/internal/handler/scan"
	"github.com/dwarvesf/drain-watcher/internal/monitoring"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/watcher"
)

type Handler struct {
	ScanHandler    scan.IHandler
	HealthHandler  health.IHealthHandler
	MetricsHandler *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	watcher watcher.IWatcher,
	checkers map[string]health.Checker,
	metricsGatherer prometheus.Gatherer,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		ScanHandler:    scan.New(watcher, logger, appConfig),
		HealthHandler:  health.New(appConfig, logger, checkers, jobStatusManager),
		MetricsHandler: metrics.NewMetricsHandler(metricsGatherer),
	}
}
