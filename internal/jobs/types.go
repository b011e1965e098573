// Package jobs defines the run-job model used by the HTTP trigger surface.
// A job is one request to execute the pipeline; the in-memory queue executes
// them one at a time so overlapping triggers share the rate limiter safely.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a run job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// RunJob represents one requested pipeline run and its outcome.
type RunJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// Run outcome, filled in on completion.
	RunID       string  `json:"run_id,omitempty"`
	RunStatus   string  `json:"run_status,omitempty"` // success, partial, failure
	Processed   int     `json:"processed"`
	Skipped     int     `json:"skipped"`
	Failed      int     `json:"failed"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Publisher defines the interface for publishing run jobs to a queue.
type Publisher interface {
	// PublishRun enqueues a pipeline run.
	PublishRun(ctx context.Context, job *RunJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming run jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for the in-flight job to complete.
	Stop(ctx context.Context) error
}

// JobHandler executes one run job. The returned error marks the job failed.
type JobHandler func(ctx context.Context, job *RunJob) error

// JobStore stores and retrieves job state for the API's status endpoints.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *RunJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*RunJob, error)

	// ListJobs retrieves jobs, most recent first.
	ListJobs(ctx context.Context, limit int) ([]*RunJob, error)
}
