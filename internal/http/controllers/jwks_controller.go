package controllers

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-jwks/internal/http/errors"
	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// JWKSController maneja GET /jwks y /.well-known/jwks.json
type JWKSController struct {
	service svc.Service
}

func NewJWKSController(service svc.Service) *JWKSController {
	return &JWKSController{service: service}
}

// Get devuelve las claves activas no vencidas.
func (c *JWKSController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := c.service.GetJWKS(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to render JWKS",
			logger.Layer("controller"), logger.Op("JWKSController.Get"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}
