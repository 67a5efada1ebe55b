package api

import (
	"context"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/hertz/internal/config"
)

var _ = Describe("profiles, cards and waitlist", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness()
	})

	AfterEach(func() {
		h.Close()
	})

	Describe("POST /api/profiles", func() {
		profile := func(extra map[string]any) map[string]any {
			body := map[string]any{
				"session_id":   sessionA,
				"language":     "en",
				"name":         "Mia",
				"partner_name": "Jonas",
			}
			for k, v := range extra {
				body[k] = v
			}
			return body
		}

		It("upserts by session", func() {
			first := decodeBody(h.post("/api/profiles", profile(nil)))["profile_id"]
			rec := h.post("/api/profiles", profile(map[string]any{"name": "Mia Sophie"}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeBody(rec)["profile_id"]).To(Equal(first))

			p, err := h.store.Store.ProfileBySession(context.Background(), sessionA)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(Equal("Mia Sophie"))
			Expect(p.Language).To(Equal("en"))
		})

		It("stores memories only with opt-in", func() {
			memories := []string{"Paris", "the first snow"}
			id := decodeBody(h.post("/api/profiles", profile(map[string]any{"memories": memories})))["profile_id"].(string)

			got, err := h.store.Store.Memories(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())

			h.post("/api/profiles", profile(map[string]any{"memories": memories, "memories_opt_in": true}))
			got, err = h.store.Store.Memories(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(memories))
		})

		DescribeTable("validation",
			func(extra map[string]any, code int) {
				Expect(h.post("/api/profiles", profile(extra)).Code).To(Equal(code))
			},
			Entry("bad session", map[string]any{"session_id": "x"}, http.StatusUnauthorized),
			Entry("bad language", map[string]any{"language": "it"}, http.StatusBadRequest),
			Entry("missing name", map[string]any{"name": " "}, http.StatusBadRequest),
			Entry("bad email", map[string]any{"email": "not-an-email"}, http.StatusBadRequest),
			Entry("six memories", map[string]any{"memories": []string{"1", "2", "3", "4", "5", "6"}}, http.StatusBadRequest),
			Entry("long memory", map[string]any{"memories": []string{strings.Repeat("m", 1001)}}, http.StatusBadRequest),
		)
	})

	Describe("POST /api/cards/generate", func() {
		const cardsOK = `{"success":true,"data":{"cards":[{"front":"Was liebst du an mir?"},{"front":"Wohin reisen wir?"}]}}`

		request := map[string]any{
			"session_id": sessionA,
			"language":   "de",
			"answers":    map[string]string{"name": "Mia", "partner_name": "Jonas"},
		}

		It("returns generated cards and persists a profile", func() {
			h.hooks.Respond("cards", http.StatusOK, cardsOK)

			rec := h.post("/api/cards/generate", request)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			body := decodeBody(rec)
			Expect(body["cards"]).To(HaveLen(2))
			Expect(body["profile_id"]).NotTo(HavePrefix(placeholderPrefix))

			p, err := h.store.Store.ProfileBySession(context.Background(), sessionA)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.PartnerName).To(Equal("Jonas"))
		})

		It("keeps generating with a placeholder profile when the datastore fails", func() {
			h.hooks.Respond("cards", http.StatusOK, cardsOK)
			h.store.Store.Close()

			rec := h.post("/api/cards/generate", request)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decodeBody(rec)["profile_id"]).To(Equal(placeholderPrefix + sessionA))
		})

		DescribeTable("upstream failures are 502",
			func(code int, body string) {
				h.hooks.Respond("cards", code, body)
				Expect(h.post("/api/cards/generate", request).Code).To(Equal(http.StatusBadGateway))
			},
			Entry("non-2xx", http.StatusInternalServerError, ""),
			Entry("success false", http.StatusOK, `{"success":false,"error":"model overloaded"}`),
			Entry("no cards", http.StatusOK, `{"success":true,"data":{"cards":[]}}`),
			Entry("garbage", http.StatusOK, `<html>`),
		)

		It("answers 503 when the cards webhook is not configured", func() {
			h.Close()
			h = newHarness(func(c *config.Config) { c.Workflow.CardsURL = "" })
			Expect(h.post("/api/cards/generate", request).Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("POST /api/waitlist", func() {
		It("adds an address once and notifies the workflow once", func() {
			for i := 0; i < 2; i++ {
				rec := h.post("/api/waitlist", map[string]string{"email": "Mia@Example.org", "language": "de"})
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(decodeBody(rec)["success"]).To(BeTrue())
			}
			Expect(h.hooks.Calls("waitlist")).To(Equal(1))
			Expect(h.hooks.LastBody("waitlist")["email"]).To(Equal("mia@example.org"))
			Expect(h.hooks.LastBody("waitlist")["position"]).To(BeNumerically("==", 1))

			n, err := h.store.Store.WaitlistSize(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("succeeds even when the notification fails", func() {
			h.hooks.Respond("waitlist", http.StatusInternalServerError, "")
			Expect(h.post("/api/waitlist", map[string]string{"email": "a@b.de"}).Code).To(Equal(http.StatusOK))
		})

		It("rejects bad input", func() {
			Expect(h.post("/api/waitlist", map[string]string{"email": "nope"}).Code).To(Equal(http.StatusBadRequest))
			Expect(h.post("/api/waitlist", map[string]string{"email": "a@b.de", "language": "xx"}).Code).To(Equal(http.StatusBadRequest))
			Expect(h.post("/api/waitlist", map[string]string{"email": "a@b.de", "session_id": "bad"}).Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("GET /api/sample-cards", func() {
		It("serves the deck for the language", func() {
			rec := h.do(http.MethodGet, "/api/sample-cards?lang=en", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decodeBody(rec)
			Expect(body["language"]).To(Equal("en"))
			Expect(body["cards"]).NotTo(BeEmpty())
		})

		It("defaults to German", func() {
			Expect(decodeBody(h.do(http.MethodGet, "/api/sample-cards", nil))["language"]).To(Equal("de"))
		})

		It("rejects unknown languages", func() {
			Expect(h.do(http.MethodGet, "/api/sample-cards?lang=fr", nil).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("server plumbing", func() {
		It("reports health", func() {
			rec := h.do(http.MethodGet, "/healthz", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeBody(rec)["status"]).To(Equal("ok"))
		})

		It("reports an unhealthy datastore", func() {
			h.store.Store.Close()
			Expect(h.do(http.MethodGet, "/healthz", nil).Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("answers CORS preflights", func() {
			rec := h.do(http.MethodOptions, "/api/orders", nil,
				"Origin", "https://hertz.example",
				"Access-Control-Request-Method", http.MethodPost,
				"Access-Control-Request-Headers", "Content-Type, X-Session-ID")
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(rec.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("X-Session-ID"))
		})

		It("renders unknown routes as JSON errors", func() {
			rec := h.do(http.MethodGet, "/nope", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decodeBody(rec)).To(HaveKey("error"))
		})
	})
})
