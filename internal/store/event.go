package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sparkops/job-analytics/internal/store/model"
)

type Event interface {
	Create(ctx context.Context, eventLog model.EventLog) (*model.EventLog, error)
	ListByJob(ctx context.Context, jobID int64) (model.EventLogList, error)
	PendingJobIDs(ctx context.Context, limit int) ([]int64, error)
	UpdateStatusByJob(ctx context.Context, jobID int64, status string, errorMessage *string) error
}

type EventStore struct {
	db *gorm.DB
}

var _ Event = (*EventStore)(nil)

func NewEventStore(db *gorm.DB) Event {
	return &EventStore{db: db}
}

func (s *EventStore) Create(ctx context.Context, eventLog model.EventLog) (*model.EventLog, error) {
	if eventLog.IngestionTime.IsZero() {
		eventLog.IngestionTime = time.Now().UTC()
	}
	if eventLog.ProcessingStatus == "" {
		eventLog.ProcessingStatus = model.ProcessingStatusPending
	}

	if result := s.getDB(ctx).Create(&eventLog); result.Error != nil {
		return nil, result.Error
	}
	return &eventLog, nil
}

func (s *EventStore) ListByJob(ctx context.Context, jobID int64) (model.EventLogList, error) {
	var logs model.EventLogList
	result := s.getDB(ctx).
		Where("job_id = ?", jobID).
		Order("timestamp").
		Find(&logs)
	if result.Error != nil {
		return nil, result.Error
	}
	return logs, nil
}

// PendingJobIDs returns up to limit distinct job ids that still have
// unprocessed event logs, oldest first.
func (s *EventStore) PendingJobIDs(ctx context.Context, limit int) ([]int64, error) {
	var jobIDs []int64
	result := s.getDB(ctx).
		Model(&model.EventLog{}).
		Where("processing_status = ?", model.ProcessingStatusPending).
		Distinct("job_id").
		Order("job_id").
		Limit(limit).
		Pluck("job_id", &jobIDs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobIDs, nil
}

func (s *EventStore) UpdateStatusByJob(ctx context.Context, jobID int64, status string, errorMessage *string) error {
	updates := map[string]any{
		"processing_status": status,
		"processing_time":   time.Now().UTC(),
	}
	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}

	result := s.getDB(ctx).
		Model(&model.EventLog{}).
		Where("job_id = ?", jobID).
		Updates(updates)
	return result.Error
}

func (s *EventStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
