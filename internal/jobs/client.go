package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/sparkops/job-analytics/internal/service"
)

type Client struct {
	*river.Client[pgx.Tx]
}

func NewClient(ctx context.Context, pool *pgxpool.Pool, analytics *service.AnalyticsService) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewProcessJobWorker(analytics))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient}, nil
}

func (c *Client) InsertJob(ctx context.Context, args ProcessJobArgs) (int64, error) {
	result, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	})
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}

// EnqueueProcessJob satisfies the ingest service's enqueuer boundary.
func (c *Client) EnqueueProcessJob(ctx context.Context, jobID int64) error {
	_, err := c.InsertJob(ctx, ProcessJobArgs{JobID: jobID})
	return err
}
