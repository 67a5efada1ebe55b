package api

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"go.uber.org/zap"
)

type productionRequest struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

type productionPayload struct {
	OrderID   string         `json:"order_id"`
	ProfileID string         `json:"profile_id"`
	SessionID string         `json:"session_id"`
	Language  string         `json:"language"`
	Cards     []storage.Card `json:"cards"`
	Note      string         `json:"note,omitempty"`
}

// retryable lists the statuses production may be (re)started from.
var retryable = []storage.OrderStatus{storage.StatusProcessing, storage.StatusFailed}

func canProduce(s storage.OrderStatus) bool {
	return slices.Contains(retryable, s)
}

func (s *Server) triggerProduction(c echo.Context) error {
	if !s.flow.Configured(workflow.HookProduction) {
		return fail(c, http.StatusServiceUnavailable, "production service not configured")
	}

	var req productionRequest
	if err := decode(c, &req); err != nil {
		return badBody(c, err)
	}
	sess, err := resolveSession(c, req.SessionID, "")
	if err != nil {
		return sessionFailure(c, err)
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		return fail(c, http.StatusBadRequest, "order_id is required")
	}

	ctx := c.Request().Context()
	log := s.logger.With(zap.String("session", sess.ID), zap.String("order", req.OrderID))

	profile, err := s.store.ProfileBySession(ctx, sess.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(c, http.StatusForbidden, "no profile for session")
	}
	if err != nil {
		log.Error("profile lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "profile lookup failed")
	}

	order, err := s.store.Order(ctx, req.OrderID)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(c, http.StatusForbidden, "order not found for session")
	}
	if err != nil {
		log.Error("order lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "order lookup failed")
	}
	// unknown and foreign orders look the same to the caller
	if order.ProfileID != profile.ID {
		return fail(c, http.StatusForbidden, "order not found for session")
	}
	if !canProduce(order.Status) {
		return fail(c, http.StatusBadRequest, "order cannot be sent to production in status "+string(order.Status))
	}

	// Claim the order before calling out so concurrent requests trigger
	// production once.
	err = s.store.TransitionOrder(ctx, order.ID, storage.StatusInProduction, retryable...)
	if errors.Is(err, storage.ErrStatusConflict) {
		return fail(c, http.StatusBadRequest, "order is already being sent to production")
	}
	if err != nil {
		log.Error("claim order failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not update order")
	}

	payload := productionPayload{
		OrderID:   order.ID,
		ProfileID: profile.ID,
		SessionID: sess.ID,
		Language:  order.Language,
		Cards:     order.Cards,
		Note:      order.Note,
	}
	if err := s.flow.Trigger(ctx, workflow.HookProduction, payload, nil); err != nil {
		log.Error("production workflow failed", zap.Error(err))
		s.markFailed(c, order.ID, err)
		return fail(c, http.StatusBadGateway, "production workflow failed")
	}

	log.Info("order in production")
	return c.JSON(http.StatusOK, orderResponse{Success: true, OrderID: order.ID})
}
