package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/san-kum/hertz/internal/storage"
	"go.uber.org/zap"
)

type profileRequest struct {
	SessionID         string   `json:"session_id"`
	Language          string   `json:"language"`
	Name              string   `json:"name"`
	PartnerName       string   `json:"partner_name"`
	RelationshipStage string   `json:"relationship_stage"`
	Email             string   `json:"email"`
	MemoriesOptIn     bool     `json:"memories_opt_in"`
	Memories          []string `json:"memories"`
}

type profileResponse struct {
	Success   bool   `json:"success"`
	ProfileID string `json:"profile_id"`
}

func (r *profileRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.PartnerName = strings.TrimSpace(r.PartnerName)
	r.RelationshipStage = strings.TrimSpace(r.RelationshipStage)

	switch {
	case r.Name == "":
		return invalid("name is required")
	case r.PartnerName == "":
		return invalid("partner_name is required")
	case tooLong(r.Name, maxName), tooLong(r.PartnerName, maxName):
		return invalid("names are limited to %d characters", maxName)
	case tooLong(r.RelationshipStage, maxCategory):
		return invalid("relationship_stage is too long")
	}
	if r.Email != "" {
		email, err := normalizeEmail(r.Email)
		if err != nil {
			return err
		}
		r.Email = email
	}
	return validateMemories(r.Memories)
}

func (s *Server) saveProfile(c echo.Context) error {
	var req profileRequest
	if err := decode(c, &req); err != nil {
		return badBody(c, err)
	}
	sess, err := resolveSession(c, req.SessionID, req.Language)
	if err != nil {
		return sessionFailure(c, err)
	}
	if err := req.validate(); err != nil {
		return fail(c, http.StatusBadRequest, message(err))
	}

	profile, err := s.store.UpsertProfile(c.Request().Context(), storage.Profile{
		SessionID:         sess.ID,
		Language:          string(sess.Language),
		Name:              req.Name,
		PartnerName:       req.PartnerName,
		RelationshipStage: req.RelationshipStage,
		Email:             req.Email,
		MemoriesOptIn:     req.MemoriesOptIn,
	}, req.Memories)
	if err != nil {
		s.logger.Error("save profile failed", zap.String("session", sess.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not save profile")
	}

	return c.JSON(http.StatusOK, profileResponse{Success: true, ProfileID: profile.ID})
}
