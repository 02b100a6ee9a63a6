package events

// JobClosedEvent is published once a job observed both its lifecycle
// boundaries. Downstream consumers use it to trigger reporting without
// polling the analytics API.
type JobClosedEvent struct {
	JobID           int64   `json:"job_id"`
	User            string  `json:"user"`
	Result          string  `json:"result"`
	DurationSeconds float64 `json:"duration_seconds"`
	TaskCount       int     `json:"task_count"`
	SuccessRate     float64 `json:"success_rate"`
}

// JobProcessedEvent is published when the background pipeline finishes
// recomputing a job's analytics.
type JobProcessedEvent struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}
