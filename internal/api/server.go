// Package api is the HTTP backend: order and production proxies to the n8n
// workflows, lead capture, and a websocket stream of the coupled clock.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/san-kum/hertz/internal/animator"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/session"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"go.uber.org/zap"
)

// Store is the part of the datastore the handlers use.
type Store interface {
	Ping(ctx context.Context) error
	ProfileBySession(ctx context.Context, sessionID string) (*storage.Profile, error)
	Memories(ctx context.Context, profileID string) ([]string, error)
	UpsertProfile(ctx context.Context, p storage.Profile, memories []string) (*storage.Profile, error)
	CreateOrder(ctx context.Context, o storage.Order, limit int, window time.Duration) (*storage.Order, error)
	Order(ctx context.Context, id string) (*storage.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status storage.OrderStatus, reason string) error
	TransitionOrder(ctx context.Context, id string, status storage.OrderStatus, from ...storage.OrderStatus) error
	AddToWaitlist(ctx context.Context, e storage.WaitlistEntry) (bool, error)
	WaitlistSize(ctx context.Context) (int, error)
}

// Workflow triggers the automation webhooks.
type Workflow interface {
	Configured(hook workflow.Hook) bool
	Trigger(ctx context.Context, hook workflow.Hook, payload, out any) error
}

type Options struct {
	Config   *config.Config
	Store    Store
	Workflow Workflow
	Logger   *zap.Logger
	// FrameSource builds the frame source for each clock stream. Nil uses a
	// ticker at the configured fps.
	FrameSource func(fps int) animator.FrameSource
}

type Server struct {
	e      *echo.Echo
	cfg    *config.Config
	store  Store
	flow   Workflow
	logger *zap.Logger
	frames func(fps int) animator.FrameSource

	// base is canceled by Shutdown. Hijacked websocket connections are
	// invisible to the http server, so streams watch it themselves.
	base      context.Context
	stopBase  context.CancelFunc
	streamsMu sync.Mutex
	closed    bool
	streams   sync.WaitGroup
}

func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	frames := opts.FrameSource
	if frames == nil {
		frames = animator.NewTickerSource
	}

	s := &Server{
		e:      echo.New(),
		cfg:    cfg,
		store:  opts.Store,
		flow:   opts.Workflow,
		logger: logger,
		frames: frames,
	}
	s.base, s.stopBase = context.WithCancel(context.Background())
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = s.handleError

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.logger.Info("request", fields...)
			return nil
		},
	}))
	s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, session.Header},
	}))
	s.e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/healthz", s.health)

	api := s.e.Group("/api")
	api.POST("/orders", s.createOrder)
	api.POST("/production", s.triggerProduction)
	api.POST("/profiles", s.saveProfile)
	api.POST("/cards/generate", s.generateCards)
	api.POST("/waitlist", s.joinWaitlist)
	api.GET("/sample-cards", s.sampleCards)

	s.e.GET("/ws/clock", s.clockStream)
}

// Handler exposes the router, mostly for httptest.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes open clock streams and waits
// for them and in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.streamsMu.Lock()
	s.closed = true
	s.streamsMu.Unlock()
	s.stopBase()

	err := s.e.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// trackStream registers a clock stream. It reports false once Shutdown has
// begun.
func (s *Server) trackStream() bool {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	if s.closed {
		return false
	}
	s.streams.Add(1)
	return true
}

func (s *Server) health(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		return fail(c, http.StatusServiceUnavailable, "datastore unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
