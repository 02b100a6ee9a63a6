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

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		cfg := config.NewSqliteDefault()
		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store).ToNot(BeNil())
		Expect(store.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		store.Close()
	})

	Context("transaction", func() {
		It("commits an event log", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = store.Event().Create(ctx, model.EventLog{
				EventType: string(model.EventKindJobStart),
				JobID:     1,
				Timestamp: time.Now().UTC(),
				Payload:   []byte(`{}`),
			})
			Expect(err).To(BeNil())

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from event_logs;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rolls back an event log", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = store.Event().Create(ctx, model.EventLog{
				EventType: string(model.EventKindJobStart),
				JobID:     2,
				Timestamp: time.Now().UTC(),
				Payload:   []byte(`{}`),
			})
			Expect(err).To(BeNil())

			// visible inside the transaction
			logs, err := store.Event().ListByJob(ctx, 2)
			Expect(err).To(BeNil())
			Expect(logs).To(HaveLen(1))

			_, rerr := st.Rollback(ctx)
			Expect(rerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from event_logs WHERE job_id = 2;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		AfterEach(func() {
			gormDB.Exec("DELETE from event_logs;")
			gormDB.Exec("DELETE from job_records;")
		})
	})
})
