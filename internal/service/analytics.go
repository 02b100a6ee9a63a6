package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/cache"
	"github.com/sparkops/job-analytics/internal/events"
	"github.com/sparkops/job-analytics/internal/service/mappers"
	"github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/internal/store/model"
	"github.com/sparkops/job-analytics/pkg/metrics"
)

const (
	jobCacheName = "job"
	dayCacheName = "day"
)

// AnalyticsService serves derived analytics, cache-aside: a miss recomputes
// synchronously from the job records, a hit is only served when the cached
// artifact matches the record's current version.
type AnalyticsService struct {
	store    store.Store
	cache    cache.Cache
	producer *events.EventProducer
}

func NewAnalyticsService(store store.Store, c cache.Cache) *AnalyticsService {
	return &AnalyticsService{store: store, cache: c}
}

// WithEventProducer publishes a notification whenever background processing
// finishes a job.
func (s *AnalyticsService) WithEventProducer(producer *events.EventProducer) *AnalyticsService {
	s.producer = producer
	return s
}

func (s *AnalyticsService) GetJobAnalytics(ctx context.Context, jobID int64) (api.JobAnalytics, error) {
	record, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return api.JobAnalytics{}, NewErrJobNotFound(jobID)
		}
		return api.JobAnalytics{}, err
	}

	key := cache.JobKey(jobID)
	marker := strconv.FormatInt(record.Version, 10)

	if artifact, found := s.cache.Get(ctx, key, marker); found {
		var analytics api.JobAnalytics
		if err := json.Unmarshal(artifact, &analytics); err == nil {
			metrics.IncreaseCacheRequestsMetric(jobCacheName, "hit")
			return analytics, nil
		}
	}
	metrics.IncreaseCacheRequestsMetric(jobCacheName, "miss")

	analytics := mappers.JobAnalyticsFromRecord(record)
	s.put(ctx, key, marker, analytics)

	return analytics, nil
}

func (s *AnalyticsService) GetDailySummary(ctx context.Context, date time.Time) (api.DailySummary, error) {
	key := cache.DayKey(date)

	if artifact, found := s.cache.Get(ctx, key, cache.NoMarker); found {
		var summary api.DailySummary
		if err := json.Unmarshal(artifact, &summary); err == nil {
			metrics.IncreaseCacheRequestsMetric(dayCacheName, "hit")
			return summary, nil
		}
	}
	metrics.IncreaseCacheRequestsMetric(dayCacheName, "miss")

	records, err := s.store.Job().ListClosedByEndDate(ctx, date)
	if err != nil {
		return api.DailySummary{}, err
	}

	summary := mappers.DailySummaryFromModel(model.NewDailySummary(date, records))
	s.put(ctx, key, cache.NoMarker, summary)

	return summary, nil
}

// ProcessJob re-derives analytics for one job with pending event logs. Jobs
// that have not closed yet are skipped and left pending for a later sweep.
func (s *AnalyticsService) ProcessJob(ctx context.Context, jobID int64) error {
	started := time.Now()

	record, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			msg := fmt.Sprintf("job %d has no record", jobID)
			metrics.IncreaseJobsProcessedMetric("failed")
			return s.store.Event().UpdateStatusByJob(ctx, jobID, model.ProcessingStatusFailed, &msg)
		}
		return err
	}

	if record.Status() != model.JobStatusClosed {
		// not closed yet; keep the logs pending for a later sweep
		metrics.IncreaseJobsProcessedMetric("skipped")
		return s.store.Event().UpdateStatusByJob(ctx, jobID, model.ProcessingStatusPending, nil)
	}

	analytics := mappers.JobAnalyticsFromRecord(record)
	s.put(ctx, cache.JobKey(jobID), strconv.FormatInt(record.Version, 10), analytics)
	_ = s.cache.Invalidate(ctx, cache.DayKey(*record.EndTime))

	if err := s.store.Event().UpdateStatusByJob(ctx, jobID, model.ProcessingStatusProcessed, nil); err != nil {
		metrics.IncreaseJobsProcessedMetric("failed")
		return err
	}

	metrics.IncreaseJobsProcessedMetric("processed")
	metrics.ObserveJobProcessingDuration(time.Since(started).Seconds())
	s.notifyProcessed(ctx, jobID)

	return nil
}

func (s *AnalyticsService) put(ctx context.Context, key, marker string, artifact any) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return
	}
	if err := s.cache.Put(ctx, key, marker, data); err != nil {
		zap.S().Named("analytics").Errorw("failed to cache artifact", "key", key, "error", err)
	}
}

func (s *AnalyticsService) notifyProcessed(ctx context.Context, jobID int64) {
	if s.producer == nil {
		return
	}

	body, err := json.Marshal(events.JobProcessedEvent{JobID: jobID, Status: model.ProcessingStatusProcessed})
	if err != nil {
		return
	}
	if err := s.producer.Write(ctx, events.JobProcessedMessageKind, bytes.NewReader(body)); err != nil {
		zap.S().Named("analytics").Errorw("failed to publish job processed event", "job_id", jobID, "error", err)
	}
}
