package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/cache"
	"github.com/sparkops/job-analytics/internal/config"
	"github.com/sparkops/job-analytics/internal/service"
	st "github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/internal/store/model"
)

func ptrStr(s string) *string { return &s }
func ptrInt(i int64) *int64   { return &i }
func ptrBool(b bool) *bool    { return &b }

func jobStartEvent(jobID int64, timestamp string) api.Event {
	return api.Event{
		Event:     api.EventKindJobStart,
		JobID:     ptrInt(jobID),
		Timestamp: timestamp,
		User:      ptrStr("etl@example.com"),
	}
}

func taskEndEvent(jobID int64, timestamp, taskID string, successful bool) api.Event {
	return api.Event{
		Event:      api.EventKindTaskEnd,
		JobID:      ptrInt(jobID),
		Timestamp:  timestamp,
		TaskID:     ptrStr(taskID),
		DurationMS: ptrInt(1500),
		Successful: ptrBool(successful),
	}
}

func jobEndEvent(jobID int64, timestamp, result string) api.Event {
	return api.Event{
		Event:     api.EventKindJobEnd,
		JobID:     ptrInt(jobID),
		Timestamp: timestamp,
		JobResult: ptrStr(result),
	}
}

var _ = Describe("ingest service", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
		svc    *service.IngestService
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewSqliteDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	BeforeEach(func() {
		svc = service.NewIngestService(s, cache.NewMemoryCache(time.Minute))
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from event_logs;")
		gormdb.Exec("DELETE from job_records;")
	})

	AfterAll(func() {
		s.Close()
	})

	Context("accept", func() {
		It("creates a pending record for an unknown job id", func() {
			outcome, err := svc.Ingest(context.TODO(), taskEndEvent(42, "2026-03-01T12:00:00Z", "t-1", true))
			Expect(err).To(BeNil())
			Expect(outcome.Status).To(Equal(service.IngestStatusAccepted))
			Expect(outcome.JobID).To(Equal(int64(42)))

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Status()).To(Equal(model.JobStatusPending))
			Expect(record.TaskOutcomes()).To(HaveLen(1))
		})

		It("persists the audit log alongside the record", func() {
			_, err := svc.Ingest(context.TODO(), jobStartEvent(42, "2026-03-01T12:00:00Z"))
			Expect(err).To(BeNil())

			logs, err := s.Event().ListByJob(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].EventType).To(Equal(string(model.EventKindJobStart)))
			Expect(logs[0].ProcessingStatus).To(Equal(model.ProcessingStatusPending))
		})

		It("closes a job once both boundaries are known", func() {
			_, err := svc.Ingest(context.TODO(), jobStartEvent(42, "2026-03-01T12:00:00Z"))
			Expect(err).To(BeNil())
			_, err = svc.Ingest(context.TODO(), jobEndEvent(42, "2026-03-01T12:02:00Z", api.JobResultSucceeded))
			Expect(err).To(BeNil())

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Status()).To(Equal(model.JobStatusClosed))
			Expect(record.Result).To(Equal(api.JobResultSucceeded))
		})

		It("buffers an end arriving before the start", func() {
			_, err := svc.Ingest(context.TODO(), jobEndEvent(42, "2026-03-01T12:02:00Z", api.JobResultFailed))
			Expect(err).To(BeNil())

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Status()).To(Equal(model.JobStatusPending))

			_, err = svc.Ingest(context.TODO(), jobStartEvent(42, "2026-03-01T12:00:00Z"))
			Expect(err).To(BeNil())

			record, err = s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Status()).To(Equal(model.JobStatusClosed))
			Expect(record.Result).To(Equal(api.JobResultFailed))
		})
	})

	Context("duplicates", func() {
		It("reports a replayed event as duplicate without side effects", func() {
			ev := jobStartEvent(42, "2026-03-01T12:00:00Z")

			_, err := svc.Ingest(context.TODO(), ev)
			Expect(err).To(BeNil())

			outcome, err := svc.Ingest(context.TODO(), ev)
			Expect(err).To(BeNil())
			Expect(outcome.Status).To(Equal(service.IngestStatusDuplicate))

			// the duplicate leaves no audit row
			logs, err := s.Event().ListByJob(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(logs).To(HaveLen(1))

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Version).To(Equal(int64(1)))
		})

		It("drops a second end with a different timestamp", func() {
			_, err := svc.Ingest(context.TODO(), jobStartEvent(42, "2026-03-01T12:00:00Z"))
			Expect(err).To(BeNil())
			_, err = svc.Ingest(context.TODO(), jobEndEvent(42, "2026-03-01T12:02:00Z", api.JobResultSucceeded))
			Expect(err).To(BeNil())

			outcome, err := svc.Ingest(context.TODO(), jobEndEvent(42, "2026-03-01T12:03:00Z", api.JobResultFailed))
			Expect(err).To(BeNil())
			Expect(outcome.Status).To(Equal(service.IngestStatusAccepted))

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Result).To(Equal(api.JobResultSucceeded))
			Expect(record.EndTime.Unix()).To(Equal(time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC).Unix()))
		})
	})

	Context("reject", func() {
		It("rejects an unknown event kind", func() {
			ev := jobStartEvent(42, "2026-03-01T12:00:00Z")
			ev.Event = "SparkListenerStageCompleted"

			_, err := svc.Ingest(context.TODO(), ev)
			Expect(err).NotTo(BeNil())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrEventMalformed{}))
		})

		It("rejects a start without a user", func() {
			ev := jobStartEvent(42, "2026-03-01T12:00:00Z")
			ev.User = nil

			_, err := svc.Ingest(context.TODO(), ev)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrEventMalformed{}))

			// nothing persisted
			_, err = s.Job().Get(context.TODO(), 42)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("rejects an unparsable timestamp", func() {
			_, err := svc.Ingest(context.TODO(), jobStartEvent(42, "yesterday"))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrEventMalformed{}))
		})
	})

	Context("late tasks", func() {
		It("keeps folding task outcomes after the job closed", func() {
			_, err := svc.Ingest(context.TODO(), jobStartEvent(42, "2026-03-01T12:00:00Z"))
			Expect(err).To(BeNil())
			_, err = svc.Ingest(context.TODO(), jobEndEvent(42, "2026-03-01T12:02:00Z", api.JobResultSucceeded))
			Expect(err).To(BeNil())

			_, err = svc.Ingest(context.TODO(), taskEndEvent(42, "2026-03-01T12:01:30Z", "t-late", false))
			Expect(err).To(BeNil())

			record, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(record.Status()).To(Equal(model.JobStatusClosed))
			Expect(record.TaskOutcomes()).To(HaveLen(1))
		})
	})
})
