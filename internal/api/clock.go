package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/animator"
	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/signal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait    = 5 * time.Second
	maxClientMsg = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clockInput is a client message. Either Progress or Scroll is set.
type clockInput struct {
	Progress *float64 `json:"progress"`
	Scroll   *float64 `json:"scroll"`
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
}

// clockFrame is pushed to the client once per frame.
type clockFrame struct {
	T        float64 `json:"t"`
	Left     float64 `json:"left"`
	Right    float64 `json:"right"`
	Sync     float64 `json:"sync"`
	Revealed bool    `json:"revealed"`
	Cuckoo   float64 `json:"cuckoo"`
}

// clockStream runs one animator loop per connection. The loop, its observer
// and all goroutines are gone once the socket closes or the server shuts
// down.
func (s *Server) clockStream(c echo.Context) error {
	if !s.trackStream() {
		return fail(c, http.StatusServiceUnavailable, "shutting down")
	}
	defer s.streams.Done()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already answered the client.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxClientMsg)

	cc := s.cfg.Clock
	progress := signal.NewProgress(0)
	loop := animator.New(cc.NewClock(), progress, animator.Options{
		FPS:             cc.FPS,
		RevealThreshold: cc.RevealThreshold,
		Source:          s.frames(cc.FPS),
	})
	defer loop.Stop()

	// Slow clients skip frames rather than stall the loop.
	frames := make(chan dynamo.Frame, 1)
	cancel := loop.Observe(dynamo.ObserverFunc(func(f dynamo.Frame) {
		select {
		case frames <- f:
		default:
		}
	}))
	defer cancel()

	log := s.logger.With(zap.String("remote", c.RealIP()))
	log.Debug("clock stream opened")

	ctx, cancelStream := context.WithCancel(c.Request().Context())
	defer cancelStream()
	defer context.AfterFunc(s.base, cancelStream)()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return readInputs(conn, progress) })
	g.Go(func() error { return writeFrames(ctx, conn, frames, loop) })
	g.Go(func() error {
		<-ctx.Done()
		conn.Close()
		return nil
	})

	err = g.Wait()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Debug("clock stream closed", zap.Error(err))
	} else {
		log.Debug("clock stream closed")
	}
	return nil
}

// readInputs applies client messages to progress until the connection
// fails. It always returns an error.
func readInputs(conn *websocket.Conn, progress *signal.Progress) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var in clockInput
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		switch {
		case in.Progress != nil:
			progress.Set(*in.Progress)
		case in.Scroll != nil:
			progress.Set(signal.FromScroll(*in.Scroll, in.Start, in.End))
		}
	}
}

func writeFrames(ctx context.Context, conn *websocket.Conn, frames <-chan dynamo.Frame, loop *animator.Loop) error {
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case f := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(clockFrame{
				T:        f.Time,
				Left:     f.State[dynamo.LeftAngle],
				Right:    f.State[dynamo.RightAngle],
				Sync:     f.Sync,
				Revealed: f.Revealed,
				Cuckoo:   loop.Cuckoo(),
			})
			if err != nil {
				return err
			}
		}
	}
}
