package model

import (
	"fmt"
	"time"
)

// EventKind enumerates the Spark listener event types the service accepts.
type EventKind string

const (
	EventKindJobStart EventKind = "SparkListenerJobStart"
	EventKindTaskEnd  EventKind = "SparkListenerTaskEnd"
	EventKindJobEnd   EventKind = "SparkListenerJobEnd"
)

// KnownEventKind reports whether kind is one of the supported event types.
func KnownEventKind(kind string) bool {
	switch EventKind(kind) {
	case EventKindJobStart, EventKindTaskEnd, EventKindJobEnd:
		return true
	}
	return false
}

// TaskOutcome is the payload of one SparkListenerTaskEnd event.
type TaskOutcome struct {
	TaskID     string `json:"task_id"`
	DurationMS int64  `json:"duration_ms"`
	Successful bool   `json:"successful"`
}

// NormalizedEvent is the typed form of a raw ingestion payload, produced by
// the normalizer. Exactly one of the kind-specific fields is meaningful,
// selected by Kind.
type NormalizedEvent struct {
	Kind      EventKind
	JobID     int64
	Timestamp time.Time

	// EventKindJobStart
	User string

	// EventKindTaskEnd
	Task *TaskOutcome

	// EventKindJobEnd
	Result string
}

// Key returns the identity key used for deduplication. Two events with the
// same (job id, kind, timestamp) are the same event, payload differences
// notwithstanding.
func (e NormalizedEvent) Key() string {
	return fmt.Sprintf("%d|%s|%d", e.JobID, e.Kind, e.Timestamp.UnixNano())
}

// Processing statuses of stored event logs.
const (
	ProcessingStatusPending    = "PENDING"
	ProcessingStatusProcessing = "PROCESSING"
	ProcessingStatusProcessed  = "PROCESSED"
	ProcessingStatusFailed     = "FAILED"
)

// EventLog is the durable row for one accepted raw event. It is an audit
// and reprocessing trail; the job aggregate itself lives in JobRecord.
type EventLog struct {
	ID               uint      `gorm:"primaryKey"`
	EventType        string    `gorm:"index;not null"`
	JobID            int64     `gorm:"index:idx_job_event_type;index;not null"`
	User             string    `gorm:"index"`
	Timestamp        time.Time `gorm:"index;not null"`
	Payload          []byte    `gorm:"type:jsonb"`
	IngestionTime    time.Time `gorm:"not null"`
	ProcessingStatus string    `gorm:"index;not null;default:PENDING"`
	ProcessingTime   *time.Time
	ErrorMessage     string `gorm:"type:text"`
}

type EventLogList []EventLog

func (EventLog) TableName() string { return "event_logs" }
