// Package v1alpha1 contains the wire types served and accepted by the
// analytics API.
package v1alpha1

import "time"

// Event kinds accepted at the ingestion endpoint. The names follow the
// Spark listener event types emitted by the driver.
const (
	EventKindJobStart = "SparkListenerJobStart"
	EventKindTaskEnd  = "SparkListenerTaskEnd"
	EventKindJobEnd   = "SparkListenerJobEnd"
)

// Job results reported by SparkListenerJobEnd.
const (
	JobResultSucceeded = "JobSucceeded"
	JobResultFailed    = "JobFailed"
	JobResultUnknown   = "Unknown"
)

// Event is the raw ingestion payload. Kind-specific fields are optional at
// the wire level; the normalizer decides which ones are required.
type Event struct {
	Event     string `json:"event" validate:"required,event_kind"`
	JobID     *int64 `json:"job_id" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required,rfc3339"`

	// SparkListenerJobStart
	User *string `json:"user,omitempty"`

	// SparkListenerTaskEnd
	TaskID     *string `json:"task_id,omitempty"`
	DurationMS *int64  `json:"duration_ms,omitempty"`
	Successful *bool   `json:"successful,omitempty"`

	// SparkListenerJobEnd
	CompletionTime *string `json:"completion_time,omitempty"`
	JobResult      *string `json:"job_result,omitempty" validate:"omitempty,job_result"`
}

// Ingest outcomes.
const (
	IngestStatusAccepted  = "accepted"
	IngestStatusDuplicate = "duplicate"
	IngestStatusRejected  = "rejected"
)

// EventIngestResult is the response body of POST /api/v1/events.
type EventIngestResult struct {
	Status  string `json:"status"`
	JobID   int64  `json:"job_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Job statuses surfaced on analytics reads.
const (
	JobStatusPending = "Pending"
	JobStatusOpen    = "Open"
	JobStatusClosed  = "Closed"
)

// JobAnalytics is the per-job metrics view.
type JobAnalytics struct {
	JobID           int64      `json:"job_id"`
	User            string     `json:"user"`
	Status          string     `json:"status"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	TaskCount       int        `json:"task_count"`
	FailedTasks     int        `json:"failed_tasks"`
	SuccessRate     float64    `json:"success_rate"`
	JobResult       string     `json:"job_result"`
}

// JobSummary is the per-job slice of a daily summary.
type JobSummary struct {
	JobID           int64   `json:"job_id"`
	User            string  `json:"user"`
	DurationSeconds float64 `json:"duration_seconds"`
	TaskCount       int     `json:"task_count"`
	SuccessRate     float64 `json:"success_rate"`
	JobResult       string  `json:"job_result"`
}

// DailySummary aggregates all jobs whose end time falls on one calendar date.
type DailySummary struct {
	Date               string       `json:"date"`
	TotalJobs          int          `json:"total_jobs"`
	AvgDurationSeconds float64      `json:"avg_duration_seconds"`
	AvgSuccessRate     float64      `json:"avg_success_rate"`
	Jobs               []JobSummary `json:"jobs"`
}

// Error is the generic error response body.
type Error struct {
	Message string `json:"message"`
}
