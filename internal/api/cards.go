package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/content"
	"github.com/san-kum/hertz/internal/session"
	"github.com/san-kum/hertz/internal/storage"
	"github.com/san-kum/hertz/internal/workflow"
	"go.uber.org/zap"
)

type cardsRequest struct {
	SessionID string            `json:"session_id"`
	Language  string            `json:"language"`
	Answers   map[string]string `json:"answers"`
}

type cardsPayload struct {
	SessionID string            `json:"session_id"`
	ProfileID string            `json:"profile_id"`
	Language  string            `json:"language"`
	Answers   map[string]string `json:"answers"`
	Profile   *storage.Profile  `json:"profile,omitempty"`
}

type cardsResponse struct {
	Success   bool                     `json:"success"`
	ProfileID string                   `json:"profile_id"`
	Cards     []workflow.GeneratedCard `json:"cards"`
}

// placeholderPrefix marks a profile id that was never persisted.
const placeholderPrefix = "local-"

func (s *Server) generateCards(c echo.Context) error {
	if !s.flow.Configured(workflow.HookCards) {
		return fail(c, http.StatusServiceUnavailable, "card service not configured")
	}

	var req cardsRequest
	if err := decode(c, &req); err != nil {
		return badBody(c, err)
	}
	sess, err := resolveSession(c, req.SessionID, req.Language)
	if err != nil {
		return sessionFailure(c, err)
	}
	if len(req.Answers) > maxAnswers {
		return fail(c, http.StatusBadRequest, "too many answers")
	}
	for k, v := range req.Answers {
		if tooLong(v, maxAnswerLength) {
			return fail(c, http.StatusBadRequest, "answer "+k+" is too long")
		}
	}

	ctx := c.Request().Context()
	profile := s.profileForCards(ctx, sess, req.Answers)

	var resp workflow.CardsResponse
	err = s.flow.Trigger(ctx, workflow.HookCards, cardsPayload{
		SessionID: sess.ID,
		ProfileID: profile.ID,
		Language:  string(sess.Language),
		Answers:   req.Answers,
		Profile:   profile,
	}, &resp)
	if err != nil {
		s.logger.Error("card workflow failed", zap.String("session", sess.ID), zap.Error(err))
		return fail(c, http.StatusBadGateway, "card generation failed")
	}
	if !resp.Success || len(resp.Data.Cards) == 0 {
		s.logger.Warn("card workflow returned no cards",
			zap.String("session", sess.ID), zap.String("upstream_error", resp.Error))
		return fail(c, http.StatusBadGateway, "card generation failed")
	}

	return c.JSON(http.StatusOK, cardsResponse{
		Success:   true,
		ProfileID: profile.ID,
		Cards:     resp.Data.Cards,
	})
}

// profileForCards returns the stored profile for the session, creating one
// from the answers when none exists. Persistence is best effort: on any
// datastore error generation continues with an unsaved placeholder.
func (s *Server) profileForCards(ctx context.Context, sess session.Context, answers map[string]string) *storage.Profile {
	p, err := s.store.ProfileBySession(ctx, sess.ID)
	if err == nil {
		return p
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("profile lookup failed, using placeholder", zap.String("session", sess.ID), zap.Error(err))
		return placeholder(sess, answers)
	}

	p, err = s.store.UpsertProfile(ctx, *placeholder(sess, answers), nil)
	if err != nil {
		s.logger.Warn("profile save failed, using placeholder", zap.String("session", sess.ID), zap.Error(err))
		return placeholder(sess, answers)
	}
	return p
}

func placeholder(sess session.Context, answers map[string]string) *storage.Profile {
	return &storage.Profile{
		ID:                placeholderPrefix + sess.ID,
		SessionID:         sess.ID,
		Language:          string(sess.Language),
		Name:              answers["name"],
		PartnerName:       answers["partner_name"],
		RelationshipStage: answers["relationship_stage"],
	}
}

type sampleResponse struct {
	Language string         `json:"language"`
	Cards    []content.Card `json:"cards"`
}

func (s *Server) sampleCards(c echo.Context) error {
	lang, err := session.ParseLanguage(c.QueryParam("lang"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "unsupported language")
	}
	cards, err := content.SampleCards(lang)
	if err != nil {
		s.logger.Error("sample deck unavailable", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "sample cards unavailable")
	}
	return c.JSON(http.StatusOK, sampleResponse{Language: string(lang), Cards: cards})
}
