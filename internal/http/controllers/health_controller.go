package controllers

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/hellojohn-jwks/internal/http/dto"
	svc "github.com/dropDatabas3/hellojohn-jwks/internal/http/services/keys"
)

// HealthController maneja GET /readyz
type HealthController struct {
	service svc.Service
	version string
}

func NewHealthController(service svc.Service, version string) *HealthController {
	return &HealthController{service: service, version: version}
}

// Ready siempre responde 200: el store vive en memoria y genera claves a demanda.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	st := c.service.Status(r.Context())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dto.HealthResponse{
		Status:    "ready",
		Version:   c.version,
		Keys:      dto.KeyCounts{Active: st.Active, Retired: st.Retired},
		Timestamp: time.Now().UTC(),
	})
}
