package mappers

import (
	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/store/model"
)

func JobAnalyticsFromRecord(record *model.JobRecord) api.JobAnalytics {
	m := record.Metrics()

	return api.JobAnalytics{
		JobID:           record.JobID,
		User:            record.User,
		Status:          string(record.Status()),
		StartTime:       record.StartTime,
		EndTime:         record.EndTime,
		DurationSeconds: m.DurationSeconds,
		TaskCount:       m.TaskCount,
		FailedTasks:     m.FailedTasks,
		SuccessRate:     m.SuccessRate,
		JobResult:       m.Result,
	}
}

func DailySummaryFromModel(summary model.DailySummary) api.DailySummary {
	out := api.DailySummary{
		Date:               summary.Date.Format("2006-01-02"),
		TotalJobs:          summary.TotalJobs,
		AvgDurationSeconds: summary.AvgDurationSeconds,
		AvgSuccessRate:     summary.AvgSuccessRate,
		Jobs:               make([]api.JobSummary, 0, len(summary.Jobs)),
	}

	for _, snapshot := range summary.Jobs {
		out.Jobs = append(out.Jobs, api.JobSummary{
			JobID:           snapshot.JobID,
			User:            snapshot.User,
			DurationSeconds: snapshot.Metrics.DurationSeconds,
			TaskCount:       snapshot.Metrics.TaskCount,
			SuccessRate:     snapshot.Metrics.SuccessRate,
			JobResult:       snapshot.Metrics.Result,
		})
	}

	return out
}
