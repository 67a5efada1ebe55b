package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/session"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"go.uber.org/zap"
)

type waitlistRequest struct {
	Email     string `json:"email"`
	Language  string `json:"language"`
	SessionID string `json:"session_id"`
}

// waitlistPayload is sent to the waitlist webhook. Position is the list
// size after the insert, zero when unknown.
type waitlistPayload struct {
	storage.WaitlistEntry
	Position int `json:"position,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) joinWaitlist(c echo.Context) error {
	var req waitlistRequest
	if err := decode(c, &req); err != nil {
		return badBody(c, err)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return fail(c, http.StatusBadRequest, message(err))
	}
	lang, err := session.ParseLanguage(req.Language)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unsupported language")
	}
	if req.SessionID != "" && !session.ValidID(req.SessionID) {
		return fail(c, http.StatusUnauthorized, "invalid session")
	}

	ctx := c.Request().Context()
	entry := storage.WaitlistEntry{Email: email, Language: string(lang), SessionID: req.SessionID}
	added, err := s.store.AddToWaitlist(ctx, entry)
	if err != nil {
		s.logger.Error("waitlist insert failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not join waitlist")
	}

	if added && s.flow.Configured(workflow.HookWaitlist) {
		payload := waitlistPayload{WaitlistEntry: entry}
		if n, err := s.store.WaitlistSize(ctx); err != nil {
			s.logger.Warn("waitlist size unavailable", zap.Error(err))
		} else {
			payload.Position = n
		}
		if err := s.flow.Trigger(ctx, workflow.HookWaitlist, payload, nil); err != nil {
			s.logger.Warn("waitlist notification failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
