package model

import (
	"fmt"
	"time"
)

// JobStatus is derived from which lifecycle events have been applied, never
// stored independently.
type JobStatus string

const (
	JobStatusPending JobStatus = "Pending"
	JobStatusOpen    JobStatus = "Open"
	JobStatusClosed  JobStatus = "Closed"
)

// Job results reported by SparkListenerJobEnd.
const (
	JobResultSucceeded = "JobSucceeded"
	JobResultFailed    = "JobFailed"
	JobResultUnknown   = "Unknown"
)

// PendingEnd buffers a SparkListenerJobEnd that arrived before the job's
// start event. It is applied the moment the start event shows up.
type PendingEnd struct {
	EndTime time.Time `json:"end_time"`
	Result  string    `json:"result"`
}

// JobRecord is the aggregate for one job id. It is created lazily on the
// first event referencing the id and mutated exclusively by Apply, under the
// caller's per-job lock.
type JobRecord struct {
	JobID     int64 `gorm:"primaryKey;autoIncrement:false"`
	User      string
	StartTime *time.Time
	EndTime   *time.Time `gorm:"index"`
	Result    string

	Tasks       *JSONField[[]TaskOutcome] `gorm:"type:jsonb"`
	AppliedKeys *JSONField[[]string]      `gorm:"type:jsonb"`
	PendingEnd  *JSONField[*PendingEnd]   `gorm:"type:jsonb"`

	// Version counts material mutations and doubles as the cache
	// invalidation marker for derived analytics.
	Version int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type JobRecordList []JobRecord

func (JobRecord) TableName() string { return "job_records" }

func NewJobRecord(jobID int64) *JobRecord {
	return &JobRecord{
		JobID:       jobID,
		Tasks:       MakeJSONField([]TaskOutcome{}),
		AppliedKeys: MakeJSONField([]string{}),
	}
}

// Status derives the lifecycle state: Closed once both start and end are
// known, Open with only a start, Pending otherwise. A buffered out-of-order
// end does not close the job on its own.
func (r *JobRecord) Status() JobStatus {
	switch {
	case r.StartTime != nil && r.EndTime != nil:
		return JobStatusClosed
	case r.StartTime != nil:
		return JobStatusOpen
	default:
		return JobStatusPending
	}
}

// Seen reports whether an event with the given identity key has already
// been folded into this record.
func (r *JobRecord) Seen(key string) bool {
	if r.AppliedKeys == nil {
		return false
	}
	for _, k := range r.AppliedKeys.Data {
		if k == key {
			return true
		}
	}
	return false
}

// TaskOutcomes returns the task outcomes applied so far.
func (r *JobRecord) TaskOutcomes() []TaskOutcome {
	if r.Tasks == nil {
		return nil
	}
	return r.Tasks.Data
}

func (r *JobRecord) pendingEnd() *PendingEnd {
	if r.PendingEnd == nil {
		return nil
	}
	return r.PendingEnd.Data
}

// ApplyOutcome describes what folding one event did to the record.
type ApplyOutcome int

const (
	// OutcomeApplied means the event changed the record.
	OutcomeApplied ApplyOutcome = iota
	// OutcomeDuplicate means the identity key was already in the ledger;
	// nothing changed. Duplicates are a defined success, not an error.
	OutcomeDuplicate
	// OutcomeIgnored means the event was new but could not alter the
	// record (e.g. a second JobEnd). Its key is still recorded so replays
	// stay no-ops.
	OutcomeIgnored
)

// Apply folds one normalized event into the record, implementing the
// Pending -> Open -> Closed state machine. Out-of-order ends are buffered in
// PendingEnd; a late start applies both the start and the buffered end in
// one step. Closed records keep accepting task outcomes.
//
// Apply must be called under the per-job lock; it is not safe for
// concurrent use on the same record.
func (r *JobRecord) Apply(ev NormalizedEvent) (ApplyOutcome, error) {
	if ev.JobID != r.JobID {
		return OutcomeIgnored, fmt.Errorf("event for job %d applied to record %d", ev.JobID, r.JobID)
	}

	key := ev.Key()
	if r.Seen(key) {
		return OutcomeDuplicate, nil
	}
	r.recordKey(key)

	switch ev.Kind {
	case EventKindJobStart:
		if r.StartTime != nil {
			// First start wins; a later start with a different
			// timestamp cannot reopen or rewrite the record.
			return OutcomeIgnored, nil
		}
		start := ev.Timestamp
		r.StartTime = &start
		r.User = ev.User
		if pe := r.pendingEnd(); pe != nil {
			end := pe.EndTime
			r.EndTime = &end
			r.Result = normalizeResult(pe.Result)
			r.PendingEnd = nil
		}

	case EventKindTaskEnd:
		if ev.Task == nil {
			return OutcomeIgnored, fmt.Errorf("task end event for job %d without task payload", ev.JobID)
		}
		r.Tasks = MakeJSONField(append(r.TaskOutcomes(), *ev.Task))

	case EventKindJobEnd:
		if r.EndTime != nil {
			// A job closes once.
			return OutcomeIgnored, nil
		}
		if r.StartTime == nil {
			if r.pendingEnd() != nil {
				// First observed end wins, buffered or not.
				return OutcomeIgnored, nil
			}
			r.PendingEnd = MakeJSONField(&PendingEnd{EndTime: ev.Timestamp, Result: ev.Result})
		} else {
			end := ev.Timestamp
			r.EndTime = &end
			r.Result = normalizeResult(ev.Result)
		}

	default:
		return OutcomeIgnored, fmt.Errorf("unsupported event kind %q", ev.Kind)
	}

	r.Version++
	return OutcomeApplied, nil
}

func (r *JobRecord) recordKey(key string) {
	if r.AppliedKeys == nil {
		r.AppliedKeys = MakeJSONField([]string{})
	}
	r.AppliedKeys.Data = append(r.AppliedKeys.Data, key)
}

func normalizeResult(result string) string {
	if result == "" {
		return JobResultUnknown
	}
	return result
}
