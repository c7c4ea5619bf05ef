package monitoring

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/drain-watcher/internal/detector"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

var (
	ErrJobTimeout  = errors.New("job timeout")
	ErrJobPanicked = errors.New("job panicked")
)

type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	// JobStatusStalled is never stored, it is derived when a status is read.
	JobStatusStalled JobExecutionStatus = "stalled"
)

// JobStatus is the state of one background job as served by the jobs
// health endpoint.
type JobStatus struct {
	JobName             string                 `json:"job_name"`
	Status              JobExecutionStatus     `json:"status"`
	LastRunTime         time.Time              `json:"last_run_time"`
	LastSuccessTime     time.Time              `json:"last_success_time"`
	LastDuration        time.Duration          `json:"last_duration_ms"`
	AverageExecution    time.Duration          `json:"average_execution_ms"`
	SuccessCount        int64                  `json:"success_count"`
	FailureCount        int64                  `json:"failure_count"`
	ConsecutiveFailures int64                  `json:"consecutive_failures"`
	LastError           string                 `json:"last_error,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

type JobsSummary struct {
	TotalJobs      int       `json:"total_jobs"`
	RunningJobs    int       `json:"running_jobs"`
	HealthyJobs    int       `json:"healthy_jobs"`
	UnhealthyJobs  int       `json:"unhealthy_jobs"`
	StalledJobs    int       `json:"stalled_jobs"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// JobStatusManager keeps the outcome of every run of the registered jobs.
type JobStatusManager struct {
	mu               sync.RWMutex
	jobs             map[string]*JobStatus
	logger           *logger.Logger
	metrics          *BackgroundJobMetrics
	stalledThreshold time.Duration
}

// NewJobStatusManager returns a manager reporting a running job as stalled
// once it has run longer than stalledThreshold. metrics may be nil.
func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics, stalledThreshold time.Duration) *JobStatusManager {
	return &JobStatusManager{
		jobs:             make(map[string]*JobStatus),
		logger:           logger,
		metrics:          metrics,
		stalledThreshold: stalledThreshold,
	}
}

func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, ok := jsm.jobs[jobName]; ok {
		return
	}
	jsm.jobs[jobName] = &JobStatus{
		JobName:  jobName,
		Status:   JobStatusPending,
		Metadata: map[string]interface{}{},
	}
	jsm.logger.Info("[RegisterJob]", map[string]string{"job_name": jobName})
}

func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	job, ok := jsm.jobs[jobName]
	if !ok {
		job = &JobStatus{JobName: jobName, Metadata: map[string]interface{}{}}
		jsm.jobs[jobName] = job
	}
	job.Status = JobStatusRunning
	job.LastRunTime = time.Now()

	jsm.metrics.jobStarted()
	jsm.logger.Debug("[StartJob]", map[string]string{"job_name": jobName})
}

// CompleteJob records the outcome of the current run of jobName. metadata
// replaces the metadata of the previous run.
func (jsm *JobStatusManager) CompleteJob(jobName string, err error, metadata map[string]interface{}) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	job, ok := jsm.jobs[jobName]
	if !ok || job.Status != JobStatusRunning {
		jsm.logger.Error("[CompleteJob] job is not running", map[string]string{"job_name": jobName})
		return
	}

	now := time.Now()
	duration := now.Sub(job.LastRunTime)
	runs := job.SuccessCount + job.FailureCount
	job.LastDuration = duration
	job.AverageExecution = (job.AverageExecution*time.Duration(runs) + duration) / time.Duration(runs+1)

	job.Metadata = make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		job.Metadata[k] = v
	}

	fields := map[string]string{
		"job_name": jobName,
		"duration": duration.String(),
	}
	if err != nil {
		errType := classifyJobError(err)
		job.Status = JobStatusFailed
		job.FailureCount++
		job.ConsecutiveFailures++
		job.LastError = err.Error()
		job.Metadata["error_type"] = errType

		fields["error"] = err.Error()
		fields["error_type"] = errType
		fields["consecutive_failures"] = strconv.FormatInt(job.ConsecutiveFailures, 10)
		jsm.logger.Error("[CompleteJob] job failed", fields)
	} else {
		job.Status = JobStatusSuccess
		job.SuccessCount++
		job.ConsecutiveFailures = 0
		job.LastError = ""
		job.LastSuccessTime = now
		jsm.logger.Info("[CompleteJob] job succeeded", fields)
	}

	jsm.metrics.jobFinished(jobName, err == nil, duration)
}

func (jsm *JobStatusManager) GetJobStatus(jobName string) (*JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	job, ok := jsm.jobs[jobName]
	if !ok {
		return nil, false
	}
	status := jsm.snapshot(job, time.Now())
	return &status, true
}

// GetAllJobStatuses returns copies of every job status keyed by job name.
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	now := time.Now()
	statuses := make(map[string]JobStatus, len(jsm.jobs))
	stalled := 0
	for name, job := range jsm.jobs {
		status := jsm.snapshot(job, now)
		if status.Status == JobStatusStalled {
			stalled++
		}
		statuses[name] = status
	}
	jsm.metrics.setStalled(stalled)

	return statuses
}

func (jsm *JobStatusManager) snapshot(job *JobStatus, now time.Time) JobStatus {
	status := *job
	status.Metadata = make(map[string]interface{}, len(job.Metadata))
	for k, v := range job.Metadata {
		status.Metadata[k] = v
	}
	if job.Status == JobStatusRunning && now.Sub(job.LastRunTime) > jsm.stalledThreshold {
		status.Status = JobStatusStalled
	}
	return status
}

func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	summary := JobsSummary{LastUpdateTime: time.Now()}

	for _, status := range jsm.GetAllJobStatuses() {
		summary.TotalJobs++
		switch status.Status {
		case JobStatusRunning:
			summary.RunningJobs++
		case JobStatusSuccess:
			summary.HealthyJobs++
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		}
	}

	return summary
}

// JobFunc is the body of a monitored job. The returned metadata is kept on
// the job status whether the run failed or not.
type JobFunc func(ctx context.Context) (map[string]interface{}, error)

// InstrumentedJob runs a JobFunc under a deadline, records its outcome and
// turns panics into failed runs. It implements cron.Job.
type InstrumentedJob struct {
	name    string
	fn      JobFunc
	manager *JobStatusManager
	logger  *logger.Logger
	timeout time.Duration
}

func NewInstrumentedJob(name string, fn JobFunc, manager *JobStatusManager, logger *logger.Logger, timeout time.Duration) *InstrumentedJob {
	manager.RegisterJob(name)

	return &InstrumentedJob{
		name:    name,
		fn:      fn,
		manager: manager,
		logger:  logger.With(map[string]string{"job_name": name}),
		timeout: timeout,
	}
}

func (ij *InstrumentedJob) Run() {
	ij.Execute(context.Background())
}

// Execute returns once the job finished or its deadline passed. A job
// ignoring its context keeps running in the background after the deadline.
func (ij *InstrumentedJob) Execute(ctx context.Context) {
	ij.manager.StartJob(ij.name)

	ctx, cancel := context.WithTimeout(ctx, ij.timeout)
	defer cancel()

	type outcome struct {
		metadata map[string]interface{}
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("[Execute] recovered from panic", map[string]string{
					"panic": fmt.Sprint(r),
				})
				done <- outcome{
					metadata: map[string]interface{}{"stack_trace": string(debug.Stack())},
					err:      errors.Wrapf(ErrJobPanicked, "%v", r),
				}
			}
		}()
		metadata, err := ij.fn(ctx)
		done <- outcome{metadata: metadata, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		ij.manager.metrics.jobTimedOut(ij.name)
		res = outcome{err: errors.Wrapf(ErrJobTimeout, "gave up after %v", ij.timeout)}
	}

	ij.manager.CompleteJob(ij.name, res.err, res.metadata)
}

func classifyJobError(err error) string {
	var (
		incomplete *detector.IncompleteError
		netErr     net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrJobTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrJobPanicked):
		return "panic"
	case errors.As(err, &incomplete):
		return "oracle"
	case errors.Is(err, explorer.ErrRateLimited),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return "external_api"
	case errors.As(err, &netErr):
		return "network"
	default:
		return "unknown"
	}
}
