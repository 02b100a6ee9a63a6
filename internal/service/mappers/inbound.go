package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/store/model"
)

// NormalizedEventFromApi canonicalizes a raw ingestion payload into the typed
// event the accumulator consumes. The error messages end up in 400 responses,
// so they name the offending field.
func NormalizedEventFromApi(resource api.Event) (model.NormalizedEvent, error) {
	if !model.KnownEventKind(resource.Event) {
		return model.NormalizedEvent{}, fmt.Errorf("event type %q is not supported", resource.Event)
	}
	if resource.JobID == nil {
		return model.NormalizedEvent{}, fmt.Errorf("job_id is required")
	}

	timestamp, err := time.Parse(time.RFC3339, resource.Timestamp)
	if err != nil {
		return model.NormalizedEvent{}, fmt.Errorf("timestamp %q is not a valid RFC3339 instant", resource.Timestamp)
	}

	ev := model.NormalizedEvent{
		Kind:      model.EventKind(resource.Event),
		JobID:     *resource.JobID,
		Timestamp: timestamp.UTC(),
	}

	switch ev.Kind {
	case model.EventKindJobStart:
		if resource.User == nil || *resource.User == "" {
			return model.NormalizedEvent{}, fmt.Errorf("user is required for %s", resource.Event)
		}
		ev.User = *resource.User

	case model.EventKindTaskEnd:
		if resource.TaskID == nil || *resource.TaskID == "" {
			return model.NormalizedEvent{}, fmt.Errorf("task_id is required for %s", resource.Event)
		}
		if resource.DurationMS == nil {
			return model.NormalizedEvent{}, fmt.Errorf("duration_ms is required for %s", resource.Event)
		}
		if resource.Successful == nil {
			return model.NormalizedEvent{}, fmt.Errorf("successful is required for %s", resource.Event)
		}
		ev.Task = &model.TaskOutcome{
			TaskID:     *resource.TaskID,
			DurationMS: *resource.DurationMS,
			Successful: *resource.Successful,
		}

	case model.EventKindJobEnd:
		if resource.JobResult == nil || *resource.JobResult == "" {
			return model.NormalizedEvent{}, fmt.Errorf("job_result is required for %s", resource.Event)
		}
		// completion_time is audit metadata; the end instant is the event
		// timestamp, same as for every other kind.
		if resource.CompletionTime != nil {
			if _, err := time.Parse(time.RFC3339, *resource.CompletionTime); err != nil {
				return model.NormalizedEvent{}, fmt.Errorf("completion_time %q is not a valid RFC3339 instant", *resource.CompletionTime)
			}
		}
		ev.Result = *resource.JobResult
	}

	return ev, nil
}

// EventLogFromApi builds the audit row persisted alongside every accepted
// event. The raw payload is kept verbatim for reprocessing.
func EventLogFromApi(resource api.Event, ev model.NormalizedEvent) model.EventLog {
	payload, _ := json.Marshal(resource)

	eventLog := model.EventLog{
		EventType: string(ev.Kind),
		JobID:     ev.JobID,
		Timestamp: ev.Timestamp,
		Payload:   payload,
	}
	if resource.User != nil {
		eventLog.User = *resource.User
	}
	return eventLog
}
