package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/gomega"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
)

const (
	sessionA = "3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b"
	sessionB = "a1b2c3d4-e5f6-4a7b-9c8d-0e1f2a3b4c5d"
)

// countingStore records every datastore call on top of a real store.
type countingStore struct {
	*storage.Store
	calls      atomic.Int64
	failCreate atomic.Bool
	lastOrder  atomic.Value
}

func (s *countingStore) Ping(ctx context.Context) error {
	s.calls.Add(1)
	return s.Store.Ping(ctx)
}

func (s *countingStore) ProfileBySession(ctx context.Context, id string) (*storage.Profile, error) {
	s.calls.Add(1)
	return s.Store.ProfileBySession(ctx, id)
}

func (s *countingStore) Memories(ctx context.Context, profileID string) ([]string, error) {
	s.calls.Add(1)
	return s.Store.Memories(ctx, profileID)
}

func (s *countingStore) UpsertProfile(ctx context.Context, p storage.Profile, memories []string) (*storage.Profile, error) {
	s.calls.Add(1)
	return s.Store.UpsertProfile(ctx, p, memories)
}

func (s *countingStore) CreateOrder(ctx context.Context, o storage.Order, limit int, window time.Duration) (*storage.Order, error) {
	s.calls.Add(1)
	if s.failCreate.Load() {
		return nil, errors.New("disk full")
	}
	created, err := s.Store.CreateOrder(ctx, o, limit, window)
	if err == nil {
		s.lastOrder.Store(created.ID)
	}
	return created, err
}

func (s *countingStore) Order(ctx context.Context, id string) (*storage.Order, error) {
	s.calls.Add(1)
	return s.Store.Order(ctx, id)
}

func (s *countingStore) UpdateOrderStatus(ctx context.Context, id string, status storage.OrderStatus, reason string) error {
	s.calls.Add(1)
	return s.Store.UpdateOrderStatus(ctx, id, status, reason)
}

func (s *countingStore) TransitionOrder(ctx context.Context, id string, status storage.OrderStatus, from ...storage.OrderStatus) error {
	s.calls.Add(1)
	return s.Store.TransitionOrder(ctx, id, status, from...)
}

func (s *countingStore) WaitlistSize(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return s.Store.WaitlistSize(ctx)
}

func (s *countingStore) AddToWaitlist(ctx context.Context, e storage.WaitlistEntry) (bool, error) {
	s.calls.Add(1)
	return s.Store.AddToWaitlist(ctx, e)
}

func (s *countingStore) LastOrderID() string {
	id, _ := s.lastOrder.Load().(string)
	return id
}

// hookServer stands in for the n8n instance. Each hook is served at
// /<hook>.
type hookServer struct {
	*httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	bodies    map[string][]map[string]any
	secrets   []string
	status    map[string]int
	responses map[string]string
}

func newHookServer() *hookServer {
	h := &hookServer{
		calls:     map[string]int{},
		bodies:    map[string][]map[string]any{},
		status:    map[string]int{},
		responses: map[string]string{},
	}
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))
	return h
}

func (h *hookServer) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	h.mu.Lock()
	h.calls[name]++
	h.bodies[name] = append(h.bodies[name], body)
	h.secrets = append(h.secrets, r.Header.Get(workflow.SecretHeader))
	code, ok := h.status[name]
	resp := h.responses[name]
	h.mu.Unlock()

	if !ok {
		code = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	io.WriteString(w, resp)
}

func (h *hookServer) Calls(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[name]
}

func (h *hookServer) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		n += c
	}
	return n
}

func (h *hookServer) Secrets() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.secrets...)
}

func (h *hookServer) LastBody(name string) map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.bodies[name]
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

func (h *hookServer) Respond(name string, code int, body string) {
	h.mu.Lock()
	h.status[name] = code
	h.responses[name] = body
	h.mu.Unlock()
}

type harness struct {
	cfg    *config.Config
	store  *countingStore
	hooks  *hookServer
	server *Server
}

func newHarness(configure ...func(*config.Config)) *harness {
	hooks := newHookServer()

	cfg := config.DefaultConfig()
	cfg.Workflow = config.WorkflowConfig{
		OrderURL:      hooks.URL + "/orders",
		ProductionURL: hooks.URL + "/production",
		CardsURL:      hooks.URL + "/cards",
		WaitlistURL:   hooks.URL + "/waitlist",
		Secret:        "n8n-secret",
		Timeout:       2 * time.Second,
	}
	for _, fn := range configure {
		fn(cfg)
	}

	st, err := storage.Open(":memory:")
	Expect(err).NotTo(HaveOccurred())
	Expect(st.Init(context.Background())).To(Succeed())
	store := &countingStore{Store: st}

	flow := workflow.New(workflow.Config{
		URLs: map[workflow.Hook]string{
			workflow.HookOrders:     cfg.Workflow.OrderURL,
			workflow.HookProduction: cfg.Workflow.ProductionURL,
			workflow.HookCards:      cfg.Workflow.CardsURL,
			workflow.HookWaitlist:   cfg.Workflow.WaitlistURL,
		},
		Secret:  cfg.Workflow.Secret,
		Timeout: cfg.Workflow.Timeout,
	}, nil)

	return &harness{
		cfg:    cfg,
		store:  store,
		hooks:  hooks,
		server: New(Options{Config: cfg, Store: store, Workflow: flow}),
	}
}

func (h *harness) Close() {
	h.hooks.Close()
	h.store.Close()
}

// do sends body (a string is sent verbatim, anything else as JSON).
func (h *harness) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		Expect(err).NotTo(HaveOccurred())
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) post(path string, body any, headers ...string) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, path, body, headers...)
}

func (h *harness) createProfile(sessionID string) string {
	rec := h.post("/api/profiles", map[string]any{
		"session_id":   sessionID,
		"language":     "de",
		"name":         "Mia",
		"partner_name": "Jonas",
	})
	Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
	return decodeBody(rec)["profile_id"].(string)
}

func (h *harness) order(id string) *storage.Order {
	o, err := h.store.Store.Order(context.Background(), id)
	Expect(err).NotTo(HaveOccurred())
	return o
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed(), rec.Body.String())
	return body
}

func orderBody(sessionID string, fronts ...string) map[string]any {
	cards := make([]map[string]string, len(fronts))
	for i, f := range fronts {
		cards[i] = map[string]string{"front": f}
	}
	return map[string]any{"session_id": sessionID, "language": "de", "cards": cards}
}
