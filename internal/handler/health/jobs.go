package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/drain-watcher/internal/monitoring"
)

// WatchJobName is the name the periodic watch job is monitored under.
const WatchJobName = "watch_scan"

// consecutive failures of the watch job tolerated before reporting unhealthy
const maxWatchFailures = 2

// Jobs handles the background jobs health check endpoint
// @Summary Background jobs health check
// @Description Validates background job status and performance
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} JobsHealthResponse
// @Success 206 {object} JobsHealthResponse
// @Failure 503 {object} JobsHealthResponse
// @Router /api/v1/health/jobs [get]
func (h *HealthHandler) Jobs(c *gin.Context) {
	start := time.Now()

	if h.jobStatusManager == nil {
		c.JSON(http.StatusServiceUnavailable, JobsHealthResponse{
			Status:     statusUnhealthy,
			Timestamp:  time.Now(),
			Jobs:       make(map[string]monitoring.JobStatus),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return
	}

	jobs := h.jobStatusManager.GetAllJobStatuses()
	summary := h.jobStatusManager.GetJobsSummary()

	overallStatus := statusHealthy
	if summary.StalledJobs > 0 {
		overallStatus = statusUnhealthy
	} else if summary.UnhealthyJobs > 0 {
		overallStatus = statusDegraded
		if job, exists := jobs[WatchJobName]; exists &&
			job.Status == monitoring.JobStatusFailed &&
			job.ConsecutiveFailures > maxWatchFailures {
			overallStatus = statusUnhealthy
		}
	}

	response := JobsHealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Jobs:       jobs,
		Summary:    summary,
		DurationMs: time.Since(start).Milliseconds(),
	}

	statusCode := http.StatusOK
	switch overallStatus {
	case statusUnhealthy:
		statusCode = http.StatusServiceUnavailable
	case statusDegraded:
		statusCode = http.StatusPartialContent
	}

	h.logger.Debug("Jobs health check completed", map[string]string{
		"overall_status": overallStatus,
		"duration":       fmt.Sprintf("%dms", response.DurationMs),
		"total_jobs":     fmt.Sprintf("%d", summary.TotalJobs),
		"unhealthy_jobs": fmt.Sprintf("%d", summary.UnhealthyJobs),
		"stalled_jobs":   fmt.Sprintf("%d", summary.StalledJobs),
	})

	c.JSON(statusCode, response)
}
