package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/sparkops/job-analytics/internal/config"
	st "github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/internal/store/model"
)

var _ = Describe("event store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewSqliteDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from event_logs;")
	})

	Context("create", func() {
		It("defaults ingestion time and processing status", func() {
			eventLog, err := s.Event().Create(context.TODO(), model.EventLog{
				EventType: string(model.EventKindTaskEnd),
				JobID:     42,
				Timestamp: time.Now().UTC(),
				Payload:   []byte(`{"Task ID": 1}`),
			})
			Expect(err).To(BeNil())
			Expect(eventLog.ID).ToNot(BeZero())
			Expect(eventLog.IngestionTime.IsZero()).To(BeFalse())
			Expect(eventLog.ProcessingStatus).To(Equal(model.ProcessingStatusPending))
		})
	})

	Context("list", func() {
		It("returns the logs of a job ordered by event timestamp", func() {
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
				_, err := s.Event().Create(context.TODO(), model.EventLog{
					EventType: string(model.EventKindTaskEnd),
					JobID:     42,
					Timestamp: base.Add(offset),
					Payload:   []byte(`{}`),
				})
				Expect(err).To(BeNil())
			}
			_, err := s.Event().Create(context.TODO(), model.EventLog{
				EventType: string(model.EventKindJobStart),
				JobID:     43,
				Timestamp: base,
				Payload:   []byte(`{}`),
			})
			Expect(err).To(BeNil())

			logs, err := s.Event().ListByJob(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(logs).To(HaveLen(3))
			Expect(logs[0].Timestamp.Before(logs[1].Timestamp)).To(BeTrue())
			Expect(logs[1].Timestamp.Before(logs[2].Timestamp)).To(BeTrue())
		})
	})

	Context("pending job ids", func() {
		It("returns distinct job ids with unprocessed logs", func() {
			for _, jobID := range []int64{7, 7, 9, 11} {
				_, err := s.Event().Create(context.TODO(), model.EventLog{
					EventType: string(model.EventKindTaskEnd),
					JobID:     jobID,
					Timestamp: time.Now().UTC(),
					Payload:   []byte(`{}`),
				})
				Expect(err).To(BeNil())
			}

			jobIDs, err := s.Event().PendingJobIDs(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(jobIDs).To(Equal([]int64{7, 9, 11}))
		})

		It("honors the limit", func() {
			for _, jobID := range []int64{1, 2, 3} {
				_, err := s.Event().Create(context.TODO(), model.EventLog{
					EventType: string(model.EventKindTaskEnd),
					JobID:     jobID,
					Timestamp: time.Now().UTC(),
					Payload:   []byte(`{}`),
				})
				Expect(err).To(BeNil())
			}

			jobIDs, err := s.Event().PendingJobIDs(context.TODO(), 2)
			Expect(err).To(BeNil())
			Expect(jobIDs).To(HaveLen(2))
		})
	})

	Context("update status", func() {
		It("marks all the logs of a job processed", func() {
			for range 2 {
				_, err := s.Event().Create(context.TODO(), model.EventLog{
					EventType: string(model.EventKindTaskEnd),
					JobID:     42,
					Timestamp: time.Now().UTC(),
					Payload:   []byte(`{}`),
				})
				Expect(err).To(BeNil())
			}

			err := s.Event().UpdateStatusByJob(context.TODO(), 42, model.ProcessingStatusProcessed, nil)
			Expect(err).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from event_logs WHERE processing_status = 'PROCESSED';").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(2))

			jobIDs, err := s.Event().PendingJobIDs(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(jobIDs).To(BeEmpty())
		})

		It("records the failure message", func() {
			_, err := s.Event().Create(context.TODO(), model.EventLog{
				EventType: string(model.EventKindTaskEnd),
				JobID:     42,
				Timestamp: time.Now().UTC(),
				Payload:   []byte(`{}`),
			})
			Expect(err).To(BeNil())

			msg := "boom"
			err = s.Event().UpdateStatusByJob(context.TODO(), 42, model.ProcessingStatusFailed, &msg)
			Expect(err).To(BeNil())

			var stored string
			err = gormdb.Raw("SELECT error_message from event_logs WHERE job_id = 42;").Scan(&stored).Error
			Expect(err).To(BeNil())
			Expect(stored).To(Equal("boom"))
		})
	})
})
