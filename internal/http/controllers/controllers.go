// Package controllers contiene los handlers HTTP del servicio.
package controllers

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
)

// Controllers agrupa todos los controllers.
type Controllers struct {
	Auth   *AuthController
	JWKS   *JWKSController
	Index  *IndexController
	Health *HealthController
	Admin  *AdminController
}

// NewControllers crea el agregador de controllers.
func NewControllers(s svc.Service, version string) *Controllers {
	return &Controllers{
		Auth:   NewAuthController(s),
		JWKS:   NewJWKSController(s),
		Index:  &IndexController{},
		Health: NewHealthController(s, version),
		Admin:  NewAdminController(s),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
