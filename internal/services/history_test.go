package services_test

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/services"
	"github.com/luminancehdr/hdr-batch/internal/store"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

var _ = Describe("HistoryService", func() {
	var (
		ctx context.Context
		st  *store.Store
		db  *sql.DB
		svc *services.HistoryService
	)

	BeforeEach(func() {
		ctx = context.Background()
		st, db = newStore()
		svc = services.NewHistoryService(st)

		started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		rec := models.BatchRecord{ID: "b1", Kind: models.BatchKindTonemap, Total: 5, StartedAt: started, FinishedAt: started.Add(time.Minute)}
		var items []models.ItemResult
		for i := 0; i < 5; i++ {
			outcome := models.OutcomeSucceeded
			if i%2 == 1 {
				outcome = models.OutcomeFailed
			}
			items = append(items, models.ItemResult{
				BatchID:    "b1",
				Index:      i,
				InputPath:  fmt.Sprintf("/in/img%d.hdr", i),
				Settings:   "soft",
				Outcome:    outcome,
				FinishedAt: started.Add(time.Duration(i) * time.Second),
			})
		}
		Expect(st.SaveBatch(ctx, rec, items)).To(Succeed())
	})

	AfterEach(func() {
		db.Close()
	})

	It("should page through results and report the unpaginated total", func() {
		res, err := svc.List(ctx, services.HistoryListParams{Limit: 2, Offset: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Total).To(Equal(5))
		Expect(res.Items).To(HaveLen(2))
	})

	It("should filter by outcome", func() {
		res, err := svc.List(ctx, services.HistoryListParams{Outcomes: []string{"failed"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Total).To(Equal(2))
		for _, it := range res.Items {
			Expect(it.Outcome).To(Equal(models.OutcomeFailed))
		}
	})

	It("should reject an unknown outcome", func() {
		_, err := svc.List(ctx, services.HistoryListParams{Outcomes: []string{"exploded"}})
		Expect(srvErrors.IsConfigurationError(err)).To(BeTrue())
	})

	It("should return batches and single batch records", func() {
		batches, err := svc.Batches(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(1))

		b, err := svc.Batch(ctx, "b1")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Total).To(Equal(5))

		_, err = svc.Batch(ctx, "b2")
		Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
	})
})
