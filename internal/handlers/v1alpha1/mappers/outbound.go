package mappers

import (
	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/service"
)

func EventIngestResultFromOutcome(outcome *service.IngestOutcome) api.EventIngestResult {
	result := api.EventIngestResult{
		Status: api.IngestStatusAccepted,
		JobID:  outcome.JobID,
	}
	if outcome.Status == service.IngestStatusDuplicate {
		result.Status = api.IngestStatusDuplicate
		result.Message = "event already applied"
	}
	return result
}
