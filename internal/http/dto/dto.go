// Package dto contiene los cuerpos de respuesta de la API.
package dto

import "time"

// TokenResponse es la respuesta de POST /auth.
type TokenResponse struct {
	Token string `json:"token"`
}

// WelcomeResponse es la respuesta de GET /.
type WelcomeResponse struct {
	Message string `json:"message"`
}

// KeyCounts cuenta las claves de cada pool.
type KeyCounts struct {
	Active  int `json:"active"`
	Retired int `json:"retired"`
}

// HealthResponse es la respuesta de GET /readyz.
type HealthResponse struct {
	Status    string    `json:"status"` // "ready" | "degraded"
	Version   string    `json:"version,omitempty"`
	Keys      KeyCounts `json:"keys"`
	Timestamp time.Time `json:"timestamp"`
}

// RetireResponse es la respuesta de POST /admin/keys/retire-oldest.
type RetireResponse struct {
	KID       string    `json:"kid"`
	ExpiresAt time.Time `json:"expires_at"`
	Keys      KeyCounts `json:"keys"`
}
