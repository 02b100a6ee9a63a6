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

var _ = Describe("job store", Ordered, func() {
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
		gormdb.Exec("DELETE from job_records;")
	})

	closedRecord := func(jobID int64, start, end time.Time) *model.JobRecord {
		record := model.NewJobRecord(jobID)
		_, err := record.Apply(model.NormalizedEvent{
			Kind:      model.EventKindJobStart,
			JobID:     jobID,
			Timestamp: start,
			User:      "etl",
		})
		Expect(err).To(BeNil())
		_, err = record.Apply(model.NormalizedEvent{
			Kind:      model.EventKindJobEnd,
			JobID:     jobID,
			Timestamp: end,
			Result:    model.JobResultSucceeded,
		})
		Expect(err).To(BeNil())
		return record
	}

	Context("get", func() {
		It("returns ErrRecordNotFound for an unknown job", func() {
			_, err := s.Job().Get(context.TODO(), 404)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("upsert", func() {
		It("creates a record on first contact", func() {
			record := model.NewJobRecord(42)
			_, err := record.Apply(model.NormalizedEvent{
				Kind:      model.EventKindJobStart,
				JobID:     42,
				Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				User:      "etl",
			})
			Expect(err).To(BeNil())

			_, err = s.Job().Upsert(context.TODO(), record)
			Expect(err).To(BeNil())

			stored, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(stored.User).To(Equal("etl"))
			Expect(stored.Status()).To(Equal(model.JobStatusOpen))
			Expect(stored.Version).To(Equal(int64(1)))
		})

		It("replaces the aggregate columns on conflict", func() {
			start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			record := model.NewJobRecord(42)
			_, err := record.Apply(model.NormalizedEvent{
				Kind:      model.EventKindJobStart,
				JobID:     42,
				Timestamp: start,
				User:      "etl",
			})
			Expect(err).To(BeNil())
			_, err = s.Job().Upsert(context.TODO(), record)
			Expect(err).To(BeNil())

			_, err = record.Apply(model.NormalizedEvent{
				Kind:      model.EventKindJobEnd,
				JobID:     42,
				Timestamp: start.Add(time.Minute),
				Result:    model.JobResultSucceeded,
			})
			Expect(err).To(BeNil())
			_, err = s.Job().Upsert(context.TODO(), record)
			Expect(err).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) from job_records;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))

			stored, err := s.Job().Get(context.TODO(), 42)
			Expect(err).To(BeNil())
			Expect(stored.Status()).To(Equal(model.JobStatusClosed))
			Expect(stored.Result).To(Equal(model.JobResultSucceeded))
			Expect(stored.Version).To(Equal(int64(2)))
		})

		It("round-trips the dedup ledger and task outcomes", func() {
			record := closedRecord(7, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC))
			_, err := record.Apply(model.NormalizedEvent{
				Kind:      model.EventKindTaskEnd,
				JobID:     7,
				Timestamp: time.Date(2026, 3, 1, 9, 2, 0, 0, time.UTC),
				Task:      &model.TaskOutcome{TaskID: "t-1", DurationMS: 1500, Successful: true},
			})
			Expect(err).To(BeNil())

			_, err = s.Job().Upsert(context.TODO(), record)
			Expect(err).To(BeNil())

			stored, err := s.Job().Get(context.TODO(), 7)
			Expect(err).To(BeNil())
			Expect(stored.TaskOutcomes()).To(HaveLen(1))
			Expect(stored.TaskOutcomes()[0].TaskID).To(Equal("t-1"))
			Expect(stored.AppliedKeys.Data).To(HaveLen(3))
		})
	})

	Context("list closed by end date", func() {
		It("returns only jobs closed on the given UTC day", func() {
			day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

			_, err := s.Job().Upsert(context.TODO(), closedRecord(1, day.Add(9*time.Hour), day.Add(10*time.Hour)))
			Expect(err).To(BeNil())
			_, err = s.Job().Upsert(context.TODO(), closedRecord(2, day.Add(22*time.Hour), day.Add(23*time.Hour+59*time.Minute)))
			Expect(err).To(BeNil())
			// closed the next day
			_, err = s.Job().Upsert(context.TODO(), closedRecord(3, day.Add(23*time.Hour), day.Add(25*time.Hour)))
			Expect(err).To(BeNil())
			// still open
			open := model.NewJobRecord(4)
			_, err = open.Apply(model.NormalizedEvent{
				Kind:      model.EventKindJobStart,
				JobID:     4,
				Timestamp: day.Add(9 * time.Hour),
				User:      "etl",
			})
			Expect(err).To(BeNil())
			_, err = s.Job().Upsert(context.TODO(), open)
			Expect(err).To(BeNil())

			records, err := s.Job().ListClosedByEndDate(context.TODO(), day)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
			Expect(records[0].JobID).To(Equal(int64(1)))
			Expect(records[1].JobID).To(Equal(int64(2)))
		})

		It("returns an empty list for a day without closed jobs", func() {
			records, err := s.Job().ListClosedByEndDate(context.TODO(), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())
			Expect(records).To(BeEmpty())
		})
	})
})
