package controllers

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellojohn-jwks/internal/http/dto"
	httperrors "github.com/dropDatabas3/hellojohn-jwks/internal/http/errors"
	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
	jwtx "github.com/dropDatabas3/hellojohn-jwks/internal/jwt"
	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// AdminController maneja /admin/keys/*
type AdminController struct {
	service svc.Service
}

func NewAdminController(service svc.Service) *AdminController {
	return &AdminController{service: service}
}

// RetireOldest maneja POST /admin/keys/retire-oldest
func (c *AdminController) RetireOldest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.RetireOldest"))

	rec, err := c.service.RetireOldest(ctx)
	switch {
	case errors.Is(err, jwtx.ErrNoKeys):
		httperrors.WriteError(w, httperrors.ErrNoActiveKeys)
		return
	case err != nil:
		log.Error("retire failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	st := c.service.Status(ctx)
	writeJSON(w, http.StatusOK, dto.RetireResponse{
		KID:       rec.ID,
		ExpiresAt: rec.ExpiresAt,
		Keys:      dto.KeyCounts{Active: st.Active, Retired: st.Retired},
	})
}
