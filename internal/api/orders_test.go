package api

import (
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/session"
	"github.com/san-kum/hertz/internal/storage"
)

var _ = Describe("POST /api/orders", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness()
	})

	AfterEach(func() {
		h.Close()
	})

	It("answers 503 when the order webhook is not configured", func() {
		h.Close()
		h = newHarness(func(c *config.Config) { c.Workflow.OrderURL = "" })

		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(h.store.calls.Load()).To(BeZero())
	})

	DescribeTable("rejects malformed JSON without touching the datastore or webhook",
		func(body string) {
			rec := h.post("/api/orders", body)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody(rec)).To(HaveKey("error"))
			Expect(h.store.calls.Load()).To(BeZero())
			Expect(h.hooks.Calls("orders")).To(BeZero())
		},
		Entry("truncated", `{"session_id":`),
		Entry("trailing garbage", `{"session_id":"`+sessionA+`","language":"de","cards":[{"front":"Q1"}]}garbage`),
		Entry("second value", `{"session_id":"`+sessionA+`","language":"de","cards":[{"front":"Q1"}]} {}`),
	)

	It("accepts trailing whitespace after the body", func() {
		h.createProfile(sessionA)
		rec := h.post("/api/orders", `{"session_id":"`+sessionA+`","language":"de","cards":[{"front":"Q1"}]}`+"\n\t ")
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
	})

	DescribeTable("rejects invalid sessions without touching the datastore or webhook",
		func(id string) {
			rec := h.post("/api/orders", orderBody(id, "Q1"))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeBody(rec)["error"]).To(Equal("invalid session"))
			Expect(h.store.calls.Load()).To(BeZero())
			Expect(h.hooks.Total()).To(BeZero())
		},
		Entry("empty", ""),
		Entry("not a uuid", "hello"),
		Entry("uppercase", strings.ToUpper(sessionA)),
		Entry("version 1 uuid", "3f2b8c1e-9a4d-1e6f-8b7a-1c2d3e4f5a6b"),
	)

	It("takes the session from the header when the body has none", func() {
		h.createProfile(sessionA)
		body := orderBody("", "Q1")

		rec := h.post("/api/orders", body, session.Header, sessionA)
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
	})

	DescribeTable("validates the cards",
		func(body map[string]any) {
			h.createProfile(sessionA)
			rec := h.post("/api/orders", body)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(h.hooks.Calls("orders")).To(BeZero())
		},
		Entry("no cards", orderBody(sessionA)),
		Entry("blank front", orderBody(sessionA, "  ")),
		Entry("too many", orderBody(sessionA, "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11")),
		Entry("front too long", orderBody(sessionA, strings.Repeat("ä", 501))),
		Entry("unknown language", map[string]any{
			"session_id": sessionA, "language": "fr", "cards": []map[string]string{{"front": "Q"}},
		}),
	)

	It("answers 403 when the session has no profile", func() {
		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(h.hooks.Calls("orders")).To(BeZero())
	})

	It("submits the order and marks it processing", func() {
		profileID := h.createProfile(sessionA)

		rec := h.post("/api/orders", orderBody(sessionA, "Q1", "Q2"))
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

		body := decodeBody(rec)
		Expect(body["success"]).To(BeTrue())
		orderID := body["order_id"].(string)
		Expect(orderID).NotTo(BeEmpty())

		Expect(h.order(orderID).Status).To(Equal(storage.StatusProcessing))
		Expect(h.hooks.Calls("orders")).To(Equal(1))

		sent := h.hooks.LastBody("orders")
		Expect(sent["order_id"]).To(Equal(orderID))
		Expect(sent["profile_id"]).To(Equal(profileID))
		Expect(sent["cards"]).To(HaveLen(2))
		Expect(h.hooks.Secrets()).To(ContainElement("n8n-secret"))
	})

	It("rate limits the fourth order within the window", func() {
		h.createProfile(sessionA)
		for i := 0; i < 3; i++ {
			Expect(h.post("/api/orders", orderBody(sessionA, "Q")).Code).To(Equal(http.StatusOK))
		}

		rec := h.post("/api/orders", orderBody(sessionA, "Q"))
		Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		Expect(h.hooks.Calls("orders")).To(Equal(3))
	})

	It("limits per profile, not globally", func() {
		h.createProfile(sessionA)
		h.createProfile(sessionB)
		for i := 0; i < 3; i++ {
			Expect(h.post("/api/orders", orderBody(sessionA, "Q")).Code).To(Equal(http.StatusOK))
		}
		Expect(h.post("/api/orders", orderBody(sessionB, "Q")).Code).To(Equal(http.StatusOK))
	})

	It("answers 500 when the order cannot be stored", func() {
		h.createProfile(sessionA)
		h.store.failCreate.Store(true)

		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(h.hooks.Calls("orders")).To(BeZero())
	})

	It("marks the order failed when the workflow answers non-2xx", func() {
		h.createProfile(sessionA)
		h.hooks.Respond("orders", http.StatusInternalServerError, `{"message":"boom"}`)

		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusBadGateway))

		o := h.order(h.store.LastOrderID())
		Expect(o.Status).To(Equal(storage.StatusFailed))
		Expect(o.FailureReason).To(ContainSubstring("500"))
	})

	It("marks the order failed when the workflow is unreachable", func() {
		h.createProfile(sessionA)
		h.hooks.Close()

		rec := h.post("/api/orders", orderBody(sessionA, "Q1"))
		Expect(rec.Code).To(Equal(http.StatusBadGateway))
		Expect(h.order(h.store.LastOrderID()).Status).To(Equal(storage.StatusFailed))
	})

	It("renders oversized bodies as JSON errors", func() {
		h.Close()
		h = newHarness(func(c *config.Config) { c.Server.BodyLimit = "1K" })

		rec := h.post("/api/orders", orderBody(sessionA, strings.Repeat("x", 2048)))
		Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(decodeBody(rec)).To(HaveKey("error"))
	})
})
