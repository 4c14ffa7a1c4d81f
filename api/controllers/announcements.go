package controllers

import (
	"net/http"

	"github.com/zaliant/storefront-backend/api/middleware"
	"github.com/zaliant/storefront-backend/api/responses"
	"github.com/zaliant/storefront-backend/api/validators"
	announcementsvc "github.com/zaliant/storefront-backend/internal/announcements"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
)

// ActiveAnnouncement returns the live storefront banner, or null when none
// is set.
func ActiveAnnouncement(svc announcementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "announcements service unavailable"))
			return
		}

		row, err := svc.Active(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

type setAnnouncementRequest struct {
	Message string `json:"message" validate:"required"`
	Active  bool   `json:"active"`
}

// AdminSetAnnouncement replaces the storefront banner. Activating a new
// banner deactivates the previous one.
func AdminSetAnnouncement(svc announcementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "announcements service unavailable"))
			return
		}

		var payload setAnnouncementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := announcementsvc.SetInput{Message: validators.SanitizeString(payload.Message, 500), Active: payload.Active}
		if email := middleware.EmailFromContext(r.Context()); email != "" {
			input.CreatedBy = &email
		}

		row, err := svc.Set(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
