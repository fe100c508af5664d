package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/v1/tools", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/tools", 200, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/api/v1/tools", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestRejectAndLogin(t *testing.T) {
	m := New()
	m.Reject(GateAuthentication, "missing_token")
	m.Reject(GateAuthorization, "not_owner")
	m.Login("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateRejections.WithLabelValues(GateAuthentication, "missing_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("success")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.Login("invalid_password")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `toolshelf_auth_logins_total{outcome="invalid_password"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Login("success")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Logins.WithLabelValues("success")))
}
