package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkops/job-analytics/internal/store/model"
)

type Job interface {
	Get(ctx context.Context, jobID int64) (*model.JobRecord, error)
	Upsert(ctx context.Context, record *model.JobRecord) (*model.JobRecord, error)
	ListClosedByEndDate(ctx context.Context, date time.Time) (model.JobRecordList, error)
}

type JobStore struct {
	db *gorm.DB
}

var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) Get(ctx context.Context, jobID int64) (*model.JobRecord, error) {
	var record model.JobRecord
	result := s.getDB(ctx).Where("job_id = ?", jobID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &record, nil
}

// Upsert writes the whole record, inserting on first contact with a job id
// and replacing the aggregate columns afterwards. Combined with the per-job
// lock held by the caller this gives single-writer semantics per job.
func (s *JobStore) Upsert(ctx context.Context, record *model.JobRecord) (*model.JobRecord, error) {
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		UpdateAll: true,
	}).Create(record)
	if result.Error != nil {
		return nil, result.Error
	}
	return record, nil
}

// ListClosedByEndDate returns the closed jobs whose end time falls within
// the calendar date, interpreted in UTC.
func (s *JobStore) ListClosedByEndDate(ctx context.Context, date time.Time) (model.JobRecordList, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var records model.JobRecordList
	result := s.getDB(ctx).
		Where("start_time IS NOT NULL").
		Where("end_time >= ? AND end_time < ?", dayStart, dayEnd).
		Order("job_id").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
