package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"go.uber.org/zap"
)

type orderRequest struct {
	SessionID string         `json:"session_id"`
	Language  string         `json:"language"`
	Cards     []storage.Card `json:"cards"`
	Note      string         `json:"note"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

// orderPayload is what the order workflow receives.
type orderPayload struct {
	OrderID   string           `json:"order_id"`
	ProfileID string           `json:"profile_id"`
	SessionID string           `json:"session_id"`
	Language  string           `json:"language"`
	Cards     []storage.Card   `json:"cards"`
	Note      string           `json:"note,omitempty"`
	Profile   *storage.Profile `json:"profile"`
	Memories  []string         `json:"memories,omitempty"`
}

func (s *Server) createOrder(c echo.Context) error {
	if !s.flow.Configured(workflow.HookOrders) {
		return fail(c, http.StatusServiceUnavailable, "order service not configured")
	}

	var req orderRequest
	if err := decode(c, &req); err != nil {
		return badBody(c, err)
	}
	sess, err := resolveSession(c, req.SessionID, req.Language)
	if err != nil {
		return sessionFailure(c, err)
	}
	if err := validateCards(req.Cards); err != nil {
		return fail(c, http.StatusBadRequest, message(err))
	}
	if tooLong(req.Note, maxNote) {
		return fail(c, http.StatusBadRequest, "note is too long")
	}

	ctx := c.Request().Context()
	log := s.logger.With(zap.String("session", sess.ID))

	profile, err := s.store.ProfileBySession(ctx, sess.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(c, http.StatusForbidden, "no profile for session")
	}
	if err != nil {
		log.Error("profile lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "profile lookup failed")
	}

	order, err := s.store.CreateOrder(ctx, storage.Order{
		ProfileID: profile.ID,
		Language:  string(sess.Language),
		Cards:     req.Cards,
		Note:      req.Note,
	}, s.cfg.RateLimit.MaxOrders, s.cfg.RateLimit.Window)
	if errors.Is(err, storage.ErrRateLimited) {
		return fail(c, http.StatusTooManyRequests, "too many orders, try again later")
	}
	if err != nil {
		log.Error("create order failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not create order")
	}
	log = log.With(zap.String("order", order.ID))

	payload := orderPayload{
		OrderID:   order.ID,
		ProfileID: profile.ID,
		SessionID: sess.ID,
		Language:  order.Language,
		Cards:     order.Cards,
		Note:      order.Note,
		Profile:   profile,
	}
	if profile.MemoriesOptIn {
		if payload.Memories, err = s.store.Memories(ctx, profile.ID); err != nil {
			log.Warn("memories lookup failed", zap.Error(err))
		}
	}

	if err := s.flow.Trigger(ctx, workflow.HookOrders, payload, nil); err != nil {
		log.Error("order workflow failed", zap.Error(err))
		s.markFailed(c, order.ID, err)
		return fail(c, http.StatusBadGateway, "order workflow failed")
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, storage.StatusProcessing, ""); err != nil {
		log.Error("mark order processing failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not update order")
	}

	log.Info("order submitted", zap.Int("cards", len(order.Cards)))
	return c.JSON(http.StatusOK, orderResponse{Success: true, OrderID: order.ID})
}

// markFailed records a workflow failure on the order. The request context
// may already be canceled, so a failure to record is only logged.
func (s *Server) markFailed(c echo.Context, orderID string, cause error) {
	ctx := context.WithoutCancel(c.Request().Context())
	if err := s.store.UpdateOrderStatus(ctx, orderID, storage.StatusFailed, cause.Error()); err != nil {
		s.logger.Error("mark order failed", zap.String("order", orderID), zap.Error(err))
	}
}
