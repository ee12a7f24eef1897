package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/hellojohn-jwks/internal/http/dto"
	httperrors "github.com/dropDatabas3/hellojohn-jwks/internal/http/errors"
	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
	"github.com/dropDatabas3/hellojohn-jwks/internal/observability/logger"
)

// AuthController maneja POST /auth
type AuthController struct {
	service svc.Service
}

func NewAuthController(service svc.Service) *AuthController {
	return &AuthController{service: service}
}

// Issue emite un token firmado. ?expired=true (o ?expired a secas) pide uno vencido.
func (c *AuthController) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Issue"))

	expired, err := parseExpired(r)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("expired must be a boolean"))
		return
	}

	out, err := c.service.IssueToken(ctx, expired)
	if err != nil {
		log.Error("token issuance failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	log.Debug("token issued", logger.KID(out.KID), logger.Expired(out.Expired))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: out.Token})
}

// parseExpired lee el flag expired. Ausente = false, presente sin valor = true.
func parseExpired(r *http.Request) (bool, error) {
	vals, ok := r.URL.Query()["expired"]
	if !ok || len(vals) == 0 {
		return false, nil
	}
	v := strings.TrimSpace(vals[0])
	if v == "" {
		return true, nil
	}
	return strconv.ParseBool(v)
}
