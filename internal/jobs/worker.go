package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/sparkops/job-analytics/internal/service"
)

const JobTimeout = time.Minute

type ProcessJobWorker struct {
	river.WorkerDefaults[ProcessJobArgs]
	analytics *service.AnalyticsService
}

func NewProcessJobWorker(analytics *service.AnalyticsService) *ProcessJobWorker {
	return &ProcessJobWorker{analytics: analytics}
}

func (w *ProcessJobWorker) Timeout(job *river.Job[ProcessJobArgs]) time.Duration {
	return JobTimeout
}

func (w *ProcessJobWorker) Work(ctx context.Context, job *river.Job[ProcessJobArgs]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := w.analytics.ProcessJob(ctx, job.Args.JobID); err != nil {
		zap.S().Named("jobs").Errorw("failed to process job", "job_id", job.Args.JobID, "error", err)
		return err
	}

	return nil
}
