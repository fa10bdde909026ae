package health

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/walletpay-backend/internal/monitoring"
)

// criticalFailureThreshold is the number of consecutive failures after which a critical job
// makes the service unhealthy.
const criticalFailureThreshold = 2

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
		for _, name := range monitoring.CriticalJobs {
			if job, exists := jobs[name]; exists &&
				job.Status == monitoring.JobStatusFailed &&
				job.ConsecutiveFailures > criticalFailureThreshold {
				overallStatus = statusUnhealthy
				break
			}
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

	h.logger.Info("Jobs health check completed", map[string]string{
		"overall_status": overallStatus,
		"duration":       strconv.FormatInt(response.DurationMs, 10) + "ms",
		"total_jobs":     strconv.Itoa(summary.TotalJobs),
		"unhealthy_jobs": strconv.Itoa(summary.UnhealthyJobs),
		"stalled_jobs":   strconv.Itoa(summary.StalledJobs),
		"running_jobs":   strconv.Itoa(summary.RunningJobs),
	})

	c.JSON(statusCode, response)
}
