package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/cache"
	"github.com/sparkops/job-analytics/internal/events"
	"github.com/sparkops/job-analytics/internal/service/mappers"
	"github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/internal/store/model"
	"github.com/sparkops/job-analytics/pkg/keymutex"
	"github.com/sparkops/job-analytics/pkg/metrics"
)

// Ingest statuses returned to the API layer. Duplicates are a defined
// success, not an error.
type IngestStatus string

const (
	IngestStatusAccepted  IngestStatus = "accepted"
	IngestStatusDuplicate IngestStatus = "duplicate"
)

// IngestOutcome reports what one ingested event did to its job.
type IngestOutcome struct {
	Status IngestStatus
	JobID  int64
}

// Enqueuer hands a job id to the background processing pipeline.
type Enqueuer interface {
	EnqueueProcessJob(ctx context.Context, jobID int64) error
}

// IngestService folds raw events into job records: normalize, dedup, apply
// the lifecycle transition, persist. All transitions for one job id run
// under that job's key lock; distinct jobs proceed in parallel.
type IngestService struct {
	store    store.Store
	cache    cache.Cache
	locks    *keymutex.KeyMutex
	producer *events.EventProducer
	enqueuer Enqueuer
}

func NewIngestService(store store.Store, c cache.Cache) *IngestService {
	return &IngestService{
		store: store,
		cache: c,
		locks: keymutex.New(),
	}
}

// WithEventProducer publishes a notification whenever a job closes.
func (s *IngestService) WithEventProducer(producer *events.EventProducer) *IngestService {
	s.producer = producer
	return s
}

// WithEnqueuer schedules background processing whenever a closed job gains
// new data.
func (s *IngestService) WithEnqueuer(enqueuer Enqueuer) *IngestService {
	s.enqueuer = enqueuer
	return s
}

func (s *IngestService) Ingest(ctx context.Context, resource api.Event) (*IngestOutcome, error) {
	ev, err := mappers.NormalizedEventFromApi(resource)
	if err != nil {
		metrics.IncreaseEventsIngestedMetric(resource.Event, "rejected")
		return nil, NewErrEventMalformed(err)
	}

	lockKey := strconv.FormatInt(ev.JobID, 10)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Job().Get(ctx, ev.JobID)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			_, _ = store.Rollback(ctx)
			return nil, err
		}
		// first event for this job id creates the record
		record = model.NewJobRecord(ev.JobID)
	}

	wasClosed := record.Status() == model.JobStatusClosed

	outcome, err := record.Apply(ev)
	if err != nil {
		_, _ = store.Rollback(ctx)
		metrics.IncreaseEventsIngestedMetric(string(ev.Kind), "rejected")
		return nil, NewErrEventMalformed(err)
	}

	if outcome == model.OutcomeDuplicate {
		_, _ = store.Rollback(ctx)
		metrics.IncreaseEventsIngestedMetric(string(ev.Kind), "duplicate")
		return &IngestOutcome{Status: IngestStatusDuplicate, JobID: ev.JobID}, nil
	}

	if _, err := s.store.Event().Create(ctx, mappers.EventLogFromApi(resource, ev)); err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}
	if _, err := s.store.Job().Upsert(ctx, record); err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}
	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidate(ctx, record)

	if outcome == model.OutcomeApplied && record.Status() == model.JobStatusClosed {
		s.notifyClosed(ctx, record, !wasClosed)
	}

	metrics.IncreaseEventsIngestedMetric(string(ev.Kind), "accepted")
	return &IngestOutcome{Status: IngestStatusAccepted, JobID: ev.JobID}, nil
}

func (s *IngestService) invalidate(ctx context.Context, record *model.JobRecord) {
	_ = s.cache.Invalidate(ctx, cache.JobKey(record.JobID))
	if record.EndTime != nil {
		_ = s.cache.Invalidate(ctx, cache.DayKey(*record.EndTime))
	}
}

// notifyClosed schedules background processing and, on the Open -> Closed
// transition itself, publishes the job-closed event.
func (s *IngestService) notifyClosed(ctx context.Context, record *model.JobRecord, justClosed bool) {
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueProcessJob(ctx, record.JobID); err != nil {
			zap.S().Named("ingest").Errorw("failed to enqueue job processing", "job_id", record.JobID, "error", err)
		}
	}

	if s.producer == nil || !justClosed {
		return
	}

	m := record.Metrics()
	body, err := json.Marshal(events.JobClosedEvent{
		JobID:           record.JobID,
		User:            record.User,
		Result:          m.Result,
		DurationSeconds: m.DurationSeconds,
		TaskCount:       m.TaskCount,
		SuccessRate:     m.SuccessRate,
	})
	if err != nil {
		return
	}
	if err := s.producer.Write(ctx, events.JobClosedMessageKind, bytes.NewReader(body)); err != nil {
		zap.S().Named("ingest").Errorw("failed to publish job closed event", "job_id", record.JobID, "error", err)
	}
}
