package monitoring

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
	"github.com/dwarvesf/walletpay-backend/internal/utils/webhook"
)

// JobExecutionStatus represents different job execution states
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	JobStatusStalled JobExecutionStatus = "stalled"
)

const (
	defaultStalledThreshold = 5 * time.Minute
	defaultCleanupInterval  = time.Hour
	defaultRetentionPeriod  = 24 * time.Hour
)

// JobStatus contains complete status information for a background job
type JobStatus struct {
	JobName             string                 `json:"job_name"`
	Status              JobExecutionStatus     `json:"status"`
	LastRunTime         time.Time              `json:"last_run_time"`
	LastDuration        time.Duration          `json:"last_duration_ms"`
	SuccessCount        int64                  `json:"success_count"`
	FailureCount        int64                  `json:"failure_count"`
	ConsecutiveFailures int64                  `json:"consecutive_failures"`
	LastError           string                 `json:"last_error,omitempty"`
	AverageExecution    time.Duration          `json:"average_execution_ms"`
	MaxExecutionTime    time.Duration          `json:"max_execution_ms"`
	MinExecutionTime    time.Duration          `json:"min_execution_ms"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// JobsSummary provides an overview of all job statuses
type JobsSummary struct {
	TotalJobs      int       `json:"total_jobs"`
	RunningJobs    int       `json:"running_jobs"`
	HealthyJobs    int       `json:"healthy_jobs"`
	UnhealthyJobs  int       `json:"unhealthy_jobs"`
	StalledJobs    int       `json:"stalled_jobs"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// JobStatusManager tracks background job runs. Call Start to enable stalled detection and cleanup.
type JobStatusManager struct {
	mu               sync.RWMutex
	statuses         map[string]*JobStatus
	logger           *logger.Logger
	metrics          *BackgroundJobMetrics
	stalledThreshold time.Duration
	cleanupInterval  time.Duration
	retentionPeriod  time.Duration
	now              func() time.Time
}

func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics, stalledThreshold time.Duration) *JobStatusManager {
	if stalledThreshold <= 0 {
		stalledThreshold = defaultStalledThreshold
	}
	return &JobStatusManager{
		statuses:         make(map[string]*JobStatus),
		logger:           logger,
		metrics:          metrics,
		stalledThreshold: stalledThreshold,
		cleanupInterval:  defaultCleanupInterval,
		retentionPeriod:  defaultRetentionPeriod,
		now:              time.Now,
	}
}

// Start runs stalled job detection and status cleanup until ctx is done.
func (jsm *JobStatusManager) Start(ctx context.Context) {
	go jsm.loop(ctx, time.Minute, jsm.detectStalledJobs)
	go jsm.loop(ctx, jsm.cleanupInterval, jsm.cleanupOldStatuses)
}

func (jsm *JobStatusManager) loop(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (jsm *JobStatusManager) newStatus(jobName string, status JobExecutionStatus) *JobStatus {
	now := jsm.now()
	return &JobStatus{
		JobName:          jobName,
		Status:           status,
		Metadata:         make(map[string]interface{}),
		CreatedAt:        now,
		UpdatedAt:        now,
		MinExecutionTime: time.Duration(math.MaxInt64),
	}
}

// RegisterJob registers a new job for monitoring
func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, exists := jsm.statuses[jobName]; !exists {
		jsm.statuses[jobName] = jsm.newStatus(jobName, JobStatusPending)
		jsm.logger.Info("Job registered for monitoring", map[string]string{
			"job_name": jobName,
		})
	}
}

// StartJob marks a job as started and updates its status
func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		status = jsm.newStatus(jobName, JobStatusRunning)
		jsm.statuses[jobName] = status
	}
	status.Status = JobStatusRunning
	status.LastRunTime = jsm.now()
	status.UpdatedAt = status.LastRunTime

	jsm.metrics.activeJobs.Inc()
	jsm.metrics.jobExecutionHistory.WithLabelValues(jobName, status.LastRunTime.Format("2006-01-02")).Inc()

	jsm.logger.Debug("Job started", map[string]string{
		"job_name":   jobName,
		"start_time": status.LastRunTime.Format(time.RFC3339),
	})
}

// CompleteJob marks a job as completed and updates all relevant statistics
func (jsm *JobStatusManager) CompleteJob(jobName string, err error, metadata map[string]interface{}) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		jsm.logger.Error("Attempted to complete unregistered job", map[string]string{
			"job_name": jobName,
		})
		return
	}

	duration := jsm.now().Sub(status.LastRunTime)
	status.LastDuration = duration
	status.UpdatedAt = jsm.now()

	if duration < status.MinExecutionTime {
		status.MinExecutionTime = duration
	}
	if duration > status.MaxExecutionTime {
		status.MaxExecutionTime = duration
	}

	totalRuns := status.SuccessCount + status.FailureCount
	status.AverageExecution = (status.AverageExecution*time.Duration(totalRuns) + duration) / time.Duration(totalRuns+1)

	for key, value := range metadata {
		status.Metadata[key] = value
	}

	if err != nil {
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		if _, ok := status.Metadata["error_type"]; !ok {
			status.Metadata["error_type"] = classifyJobError(err)
		}

		jsm.metrics.jobRuns.WithLabelValues(jobName, "error").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "failed").Observe(duration.Seconds())

		jsm.logger.Error("Job failed", map[string]string{
			"job_name":             jobName,
			"duration":             duration.String(),
			"error":                err.Error(),
			"consecutive_failures": fmt.Sprintf("%d", status.ConsecutiveFailures),
		})
	} else {
		status.Status = JobStatusSuccess
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.LastError = ""
		delete(status.Metadata, "error_type")

		jsm.metrics.jobRuns.WithLabelValues(jobName, "success").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "success").Observe(duration.Seconds())

		jsm.logger.Info("Job completed successfully", map[string]string{
			"job_name": jobName,
			"duration": duration.String(),
		})
	}

	jsm.metrics.activeJobs.Dec()
}

func copyStatus(status *JobStatus) JobStatus {
	statusCopy := *status
	statusCopy.Metadata = make(map[string]interface{}, len(status.Metadata))
	for k, v := range status.Metadata {
		statusCopy.Metadata[k] = v
	}
	return statusCopy
}

// GetJobStatus returns the current status of a specific job
func (jsm *JobStatusManager) GetJobStatus(jobName string) (*JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		return nil, false
	}
	statusCopy := copyStatus(status)
	return &statusCopy, true
}

// GetAllJobStatuses returns copies of every job status. Running jobs past the stalled threshold report as stalled.
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	result := make(map[string]JobStatus, len(jsm.statuses))
	now := jsm.now()
	for name, status := range jsm.statuses {
		statusCopy := copyStatus(status)
		if status.Status == JobStatusRunning && now.Sub(status.LastRunTime) > jsm.stalledThreshold {
			statusCopy.Status = JobStatusStalled
		}
		result[name] = statusCopy
	}
	return result
}

func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	statuses := jsm.GetAllJobStatuses()

	summary := JobsSummary{
		TotalJobs:      len(statuses),
		LastUpdateTime: jsm.now(),
	}

	for _, status := range statuses {
		switch status.Status {
		case JobStatusRunning:
			summary.RunningJobs++
		case JobStatusSuccess, JobStatusPending:
			summary.HealthyJobs++
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		}
	}

	return summary
}

// detectStalledJobs checks for jobs that have been running longer than the threshold
func (jsm *JobStatusManager) detectStalledJobs() {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	now := jsm.now()
	stalledCount := 0

	for jobName, status := range jsm.statuses {
		if status.Status == JobStatusStalled {
			stalledCount++
			continue
		}
		if status.Status == JobStatusRunning && now.Sub(status.LastRunTime) > jsm.stalledThreshold {
			status.Status = JobStatusStalled
			status.UpdatedAt = now
			stalledCount++

			jsm.logger.Error("Job detected as stalled", map[string]string{
				"job_name":      jobName,
				"last_run_time": status.LastRunTime.Format(time.RFC3339),
				"duration":      now.Sub(status.LastRunTime).String(),
			})
		}
	}

	jsm.metrics.stalledJobs.Set(float64(stalledCount))
}

// cleanupOldStatuses drops statuses of jobs that have not run within the retention period
func (jsm *JobStatusManager) cleanupOldStatuses() {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	cutoff := jsm.now().Add(-jsm.retentionPeriod)
	cleaned := 0

	for jobName, status := range jsm.statuses {
		if status.UpdatedAt.Before(cutoff) && status.Status != JobStatusRunning {
			delete(jsm.statuses, jobName)
			cleaned++
		}
	}

	if cleaned > 0 {
		jsm.logger.Info("Cleaned up old job statuses", map[string]string{
			"cleaned_count": fmt.Sprintf("%d", cleaned),
		})
	}
}

// InstrumentedJob wraps a job function with monitoring, a timeout, panic recovery and an optional uptime heartbeat
type InstrumentedJob struct {
	jobName       string
	jobFunc       func(ctx context.Context) error
	statusManager *JobStatusManager
	logger        *logger.Logger
	timeout       time.Duration
	webhookClient *webhook.Client
	webhookURL    string
}

func NewInstrumentedJob(
	jobName string,
	jobFunc func(ctx context.Context) error,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
) *InstrumentedJob {
	statusManager.RegisterJob(jobName)

	return &InstrumentedJob{
		jobName:       jobName,
		jobFunc:       jobFunc,
		statusManager: statusManager,
		logger:        logger,
		timeout:       timeout,
	}
}

// WithHeartbeat pings url after every successful run.
func (ij *InstrumentedJob) WithHeartbeat(client *webhook.Client, url string) *InstrumentedJob {
	ij.webhookClient = client
	ij.webhookURL = url
	return ij
}

func (ij *InstrumentedJob) Name() string {
	return ij.jobName
}

// Run satisfies cron.Job.
func (ij *InstrumentedJob) Run() {
	_ = ij.Execute(context.Background())
}

// Execute runs the job once and returns its error after recording it.
func (ij *InstrumentedJob) Execute(parent context.Context) error {
	ij.statusManager.StartJob(ij.jobName)

	ctx, cancel := context.WithTimeout(parent, ij.timeout)
	defer cancel()

	type outcome struct {
		err      error
		metadata map[string]interface{}
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("Job panicked", map[string]string{
					"job_name": ij.jobName,
					"panic":    fmt.Sprintf("%v", r),
				})
				done <- outcome{
					err: fmt.Errorf("job panicked: %v", r),
					metadata: map[string]interface{}{
						"panic":       fmt.Sprintf("%v", r),
						"stack_trace": string(debug.Stack()),
						"error_type":  "panic",
					},
				}
			}
		}()
		done <- outcome{err: ij.jobFunc(ctx)}
	}()

	var result outcome
	select {
	case result = <-done:
	case <-ctx.Done():
		ij.statusManager.metrics.jobTimeouts.WithLabelValues(ij.jobName).Inc()
		result = outcome{
			err: fmt.Errorf("job timeout after %v", ij.timeout),
			metadata: map[string]interface{}{
				"error_type": "timeout",
				"timeout":    ij.timeout.String(),
			},
		}
	}

	ij.statusManager.CompleteJob(ij.jobName, result.err, result.metadata)

	if result.err == nil && ij.webhookClient != nil && ij.webhookURL != "" {
		ij.webhookClient.Heartbeat(parent, ij.webhookURL)
	}
	return result.err
}

// BackgroundJobMetrics contains all Prometheus metrics for background job monitoring
type BackgroundJobMetrics struct {
	jobDuration         *prometheus.HistogramVec
	jobRuns             *prometheus.CounterVec
	activeJobs          prometheus.Gauge
	stalledJobs         prometheus.Gauge
	pendingTransactions *prometheus.GaugeVec
	jobExecutionHistory *prometheus.CounterVec
	jobTimeouts         *prometheus.CounterVec
}

func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletpay_background_job_duration_seconds",
				Help:    "Background job execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"job_name", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletpay_background_job_runs_total",
				Help: "Total number of background job runs",
			},
			[]string{"job_name", "status"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "walletpay_background_jobs_active",
				Help: "Number of currently running background jobs",
			},
		),
		stalledJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "walletpay_background_jobs_stalled",
				Help: "Number of stalled background jobs",
			},
		),
		pendingTransactions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "walletpay_pending_transactions_total",
				Help: "Number of transaction records still pending after the last reconciliation, by chain",
			},
			[]string{"chain"},
		),
		jobExecutionHistory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletpay_job_execution_history_total",
				Help: "Historical job execution counts",
			},
			[]string{"job_name", "date"},
		),
		jobTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletpay_job_timeouts_total",
				Help: "Total job timeouts",
			},
			[]string{"job_name"},
		),
	}
}

func (m *BackgroundJobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.jobDuration,
		m.jobRuns,
		m.activeJobs,
		m.stalledJobs,
		m.pendingTransactions,
		m.jobExecutionHistory,
		m.jobTimeouts,
	)
}

// SetPendingTransactions records how many records each chain still has pending.
func (m *BackgroundJobMetrics) SetPendingTransactions(pending map[model.Chain]int) {
	for _, chain := range model.SupportedChains() {
		m.pendingTransactions.WithLabelValues(string(chain)).Set(float64(pending[chain]))
	}
}

// classifyJobError classifies errors into different types for better monitoring
func classifyJobError(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "sql"):
		return "database"
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "network"):
		return "network"
	case strings.Contains(errStr, "rpc"), strings.Contains(errStr, "api"), strings.Contains(errStr, "circuit breaker"):
		return "external_api"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
