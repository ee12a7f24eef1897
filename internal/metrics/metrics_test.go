package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyObserver(t *testing.T) {
	var o KeyObserver

	before := testutil.ToFloat64(KeysGenerated)
	o.KeyGenerated()
	assert.Equal(t, before+1, testutil.ToFloat64(KeysGenerated))

	before = testutil.ToFloat64(KeysEvicted)
	o.KeysEvicted(3)
	assert.Equal(t, before+3, testutil.ToFloat64(KeysEvicted))

	o.PoolSizes(4, 1)
	assert.Equal(t, 4.0, testutil.ToFloat64(PoolSize.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PoolSize.WithLabelValues("retired")))

	before = testutil.ToFloat64(TokensIssued.WithLabelValues("expired"))
	o.TokenIssued(true)
	assert.Equal(t, before+1, testutil.ToFloat64(TokensIssued.WithLabelValues("expired")))
}

func TestHandlerExposesKeyMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Handler(reg, reg)
	require.NoError(t, err)

	// Registrar dos veces no falla.
	_, err = Handler(reg, reg)
	require.NoError(t, err)

	KeyObserver{}.KeyGenerated()
	KeyObserver{}.PoolSizes(1, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "jwks_keys_generated_total"))
	assert.True(t, strings.Contains(body, `jwks_keys_pool_size{pool="active"} 1`))
}
