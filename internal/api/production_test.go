package api

import (
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/storage"
)

var _ = Describe("POST /api/production", func() {
	var (
		h       *harness
		orderID string
	)

	BeforeEach(func() {
		h = newHarness()
		h.createProfile(sessionA)
		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusOK))
		orderID = decodeBody(rec)["order_id"].(string)
	})

	AfterEach(func() {
		h.Close()
	})

	produce := func(sessionID, id string) int {
		return h.post("/api/production", map[string]string{"session_id": sessionID, "order_id": id}).Code
	}

	It("answers 503 when the production webhook is not configured", func() {
		h.Close()
		h = newHarness(func(c *config.Config) { c.Workflow.ProductionURL = "" })
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusServiceUnavailable))
	})

	It("validates the request", func() {
		Expect(h.post("/api/production", `[`).Code).To(Equal(http.StatusBadRequest))
		Expect(produce("nope", orderID)).To(Equal(http.StatusUnauthorized))
		Expect(produce(sessionA, "")).To(Equal(http.StatusBadRequest))
	})

	It("moves a processing order into production", func() {
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusOK))
		Expect(h.order(orderID).Status).To(Equal(storage.StatusInProduction))
		Expect(h.hooks.LastBody("production")["order_id"]).To(Equal(orderID))
	})

	It("refuses orders of another profile", func() {
		h.createProfile(sessionB)
		Expect(produce(sessionB, orderID)).To(Equal(http.StatusForbidden))
		Expect(h.hooks.Calls("production")).To(BeZero())
	})

	It("refuses unknown orders and sessions without a profile", func() {
		Expect(produce(sessionA, "00000000-0000-4000-8000-000000000000")).To(Equal(http.StatusForbidden))
		Expect(produce(sessionB, orderID)).To(Equal(http.StatusForbidden))
	})

	It("refuses orders already in production", func() {
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusOK))
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusBadRequest))
		Expect(h.hooks.Calls("production")).To(Equal(1))
	})

	It("starts production once when requests race", func() {
		const n = 8
		codes := make(chan int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				codes <- produce(sessionA, orderID)
			}()
		}
		wg.Wait()
		close(codes)

		counts := map[int]int{}
		for code := range codes {
			counts[code]++
		}
		Expect(counts).To(Equal(map[int]int{http.StatusOK: 1, http.StatusBadRequest: n - 1}))
		Expect(h.hooks.Calls("production")).To(Equal(1))
		Expect(h.order(orderID).Status).To(Equal(storage.StatusInProduction))
	})

	It("marks the order failed on workflow errors and allows a retry", func() {
		h.hooks.Respond("production", http.StatusServiceUnavailable, "")
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusBadGateway))
		Expect(h.order(orderID).Status).To(Equal(storage.StatusFailed))

		h.hooks.Respond("production", http.StatusOK, "")
		Expect(produce(sessionA, orderID)).To(Equal(http.StatusOK))

		o := h.order(orderID)
		Expect(o.Status).To(Equal(storage.StatusInProduction))
		Expect(o.FailureReason).To(BeEmpty())
	})
})
