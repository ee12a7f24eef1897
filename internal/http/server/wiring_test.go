package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-jwks/internal/config"
	"github.com/dropDatabas3/hellojohn-jwks/internal/http/dto"
)

func TestBuild_ServesAuthAndJWKS(t *testing.T) {
	cfg := config.Default()
	cfg.Rate.Enabled = true
	cfg.Admin.APIKey = "k"
	reg := prometheus.NewRegistry()

	h, deps, cleanup, err := Build(context.Background(), cfg, BuildOptions{Registry: reg, Gatherer: reg})
	require.NoError(t, err)
	defer func() { require.NoError(t, cleanup()) }()
	require.NotNil(t, deps.Limiter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tok dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, 1, deps.Store.Stats().Active)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jwks_tokens_issued_total")
}

func TestBuild_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false

	h, deps, _, err := Build(context.Background(), cfg, BuildOptions{})
	require.NoError(t, err)
	assert.Nil(t, deps.Limiter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
