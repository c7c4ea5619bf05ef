package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dwarvesf/drain-watcher/internal/monitoring"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

const (
	externalChecksTimeout = 10 * time.Second
	checkTimeout          = 5 * time.Second
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	checkers         map[string]Checker
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance. checkers maps the name shown in
// the response to the dependency probed; nil entries are skipped.
func New(config *config.AppConfig, logger *logger.Logger, checkers map[string]Checker, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	active := make(map[string]Checker, len(checkers))
	for name, checker := range checkers {
		if checker != nil {
			active[name] = checker
		}
	}

	return &HealthHandler{
		config:           config,
		logger:           logger,
		checkers:         active,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, BasicHealthResponse{
		Message: "ok",
	})
}

// External handles the external API dependencies health check endpoint
// @Summary External dependencies health check
// @Description Validates explorer and blockchain node connectivity
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), externalChecksTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	results := make([]HealthCheck, len(names))

	// checks never fail the group, each result carries its own error
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			results[i] = h.check(gctx, h.checkers[name])
			return nil
		})
	}
	_ = g.Wait()

	response := HealthResponse{
		Status:    statusHealthy,
		Timestamp: start,
		Checks:    make(map[string]HealthCheck, len(names)),
	}
	for i, name := range names {
		response.Checks[name] = results[i]
		if results[i].Status != statusHealthy {
			response.Status = statusUnhealthy
			h.logger.Warn("[External][HealthCheck]", map[string]string{
				"dependency": name,
				"error":      results[i].Error,
			})
		}
	}
	response.DurationMs = time.Since(start).Milliseconds()

	statusCode := http.StatusOK
	if response.Status != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

func (h *HealthHandler) check(ctx context.Context, checker Checker) HealthCheck {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	check := HealthCheck{Status: statusHealthy}
	if err := checker.HealthCheck(checkCtx); err != nil {
		check.Status = statusUnhealthy
		check.Error = err.Error()
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			check.Error = "timeout"
		}
	}
	check.Latency = time.Since(start).Milliseconds()
	return check
}
