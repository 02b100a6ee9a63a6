package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/sparkops/job-analytics/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Event() Event
	Job() Job
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db    *gorm.DB
	event Event
	job   Job
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:    db,
		event: NewEventStore(db),
		job:   NewJobStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Event() Event {
	return s.event
}

func (s *DataStore) Job() Job {
	return s.job
}

// InitialMigration auto-migrates the schema. Postgres deployments use the
// goose migrations instead; this path serves sqlite and tests.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.EventLog{}, &model.JobRecord{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
