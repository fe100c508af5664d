package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/logging"
	"github.com/dmitrijs2005/toolshelf/internal/server/auth"
	"github.com/dmitrijs2005/toolshelf/internal/server/metrics"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ---- test doubles ----

type recLogger struct {
	logging.Nop
	mu     sync.Mutex
	errors []string
}

func (l *recLogger) Error(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recLogger) With(...any) logging.Logger { return l }

type verifierFunc func(ctx context.Context, token string) (*auth.Claims, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	return f(ctx, token)
}

type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s stubUsers) Get(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// ---- helpers ----

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTokens(t *testing.T, now func() time.Time) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager([]byte("gate-secret"), "HS256", time.Hour, auth.WithClock(now))
	require.NoError(t, err)
	return tm
}

type result struct {
	code    int
	body    map[string]any
	reached bool
	userID  string
	ctxID   string
}

func run(t *testing.T, chain []gin.HandlerFunc, header string) result {
	t.Helper()

	var res result
	r := gin.New()
	handlers := append(chain, func(c *gin.Context) {
		res.reached = true
		res.userID = c.GetString(common.UserIDKey)
		res.ctxID, _ = UserIDFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	r.GET("/protected", handlers...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	res.code = rec.Code
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body))
	return res
}

// ---- authentication gate ----

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	tm := newTokens(t, time.Now)
	m := metrics.New()
	g := NewGates(tm, stubUsers{}, logging.Nop{}, m)

	for _, h := range []string{"", "Basic abc", "bearer abc", "Bearer", "Bearer ", "Bearer    "} {
		res := run(t, []gin.HandlerFunc{g.Authenticate()}, h)
		assert.Equal(t, http.StatusUnauthorized, res.code, "header %q", h)
		assert.Equal(t, "Token not provided", res.body["message"], "header %q", h)
		assert.Equal(t, false, res.body["success"])
		assert.Equal(t, float64(401), res.body["statusCode"])
		assert.False(t, res.reached)
	}
	assert.Equal(t, 6.0, testutil.ToFloat64(m.GateRejections.WithLabelValues(metrics.GateAuthentication, "missing_token")))
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tm := newTokens(t, time.Now)
	g := NewGates(tm, stubUsers{}, logging.Nop{}, nil)

	tok, err := tm.IssueAccessToken("user-1")
	require.NoError(t, err)

	res := run(t, []gin.HandlerFunc{g.Authenticate()}, "Bearer "+tok)
	require.Equal(t, http.StatusOK, res.code)
	assert.True(t, res.reached)
	assert.Equal(t, "user-1", res.userID)
	assert.Equal(t, "user-1", res.ctxID)
}

func TestAuthenticate_InvalidTokens(t *testing.T) {
	now := t0
	tm := newTokens(t, func() time.Time { return now })
	g := NewGates(tm, stubUsers{}, logging.Nop{}, nil)

	expired, err := tm.Issue("user-1", time.Minute)
	require.NoError(t, err)

	other, err := auth.NewTokenManager([]byte("other-secret"), "HS256", time.Hour, auth.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	foreign, err := other.IssueAccessToken("user-1")
	require.NoError(t, err)

	now = t0.Add(2 * time.Minute)

	for name, tok := range map[string]string{
		"garbage":      "garbage",
		"expired":      expired,
		"wrong secret": foreign,
	} {
		res := run(t, []gin.HandlerFunc{g.Authenticate()}, "Bearer "+tok)
		assert.Equal(t, http.StatusUnauthorized, res.code, name)
		assert.Equal(t, "Invalid token", res.body["error"], name)
		assert.False(t, res.reached, name)
	}
}

func TestAuthenticate_VerificationFailureIs403(t *testing.T) {
	log := &recLogger{}
	v := verifierFunc(func(context.Context, string) (*auth.Claims, error) {
		return nil, errors.New("revocation lookup: connection refused")
	})
	g := NewGates(v, stubUsers{}, log, nil)

	res := run(t, []gin.HandlerFunc{g.Authenticate()}, "Bearer whatever")
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "Invalid or expired token", res.body["message"])
	assert.Equal(t, "revocation lookup: connection refused", res.body["error"])
	assert.False(t, res.reached)
	assert.Equal(t, []string{"token verification failed"}, log.errors)
}

// ---- authorization gate ----

func TestRequireOwner(t *testing.T) {
	tm := newTokens(t, time.Now)
	users := stubUsers{users: map[string]*models.User{
		"owner-1":  {ID: "owner-1", Role: models.RoleOwner},
		"viewer-1": {ID: "viewer-1", Role: models.RoleViewer},
		"mgr-1":    {ID: "mgr-1", Role: models.RoleManager},
	}}
	m := metrics.New()
	g := NewGates(tm, users, logging.Nop{}, m)
	chain := []gin.HandlerFunc{g.Authenticate(), g.RequireOwner()}

	bearer := func(id string) string {
		tok, err := tm.IssueAccessToken(id)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	res := run(t, chain, bearer("owner-1"))
	assert.Equal(t, http.StatusOK, res.code)
	assert.True(t, res.reached)

	for _, id := range []string{"viewer-1", "mgr-1"} {
		res = run(t, chain, bearer(id))
		assert.Equal(t, http.StatusForbidden, res.code, id)
		assert.Equal(t, "Access denied, administrators only", res.body["message"], id)
		assert.False(t, res.reached, id)
	}

	res = run(t, chain, bearer("ghost"))
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "User not found", res.body["message"])
	assert.False(t, res.reached)

	// authentication still runs first
	res = run(t, chain, "")
	assert.Equal(t, http.StatusUnauthorized, res.code)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GateRejections.WithLabelValues(metrics.GateAuthorization, "not_owner")))
}

func TestRequireOwner_WithoutAuthenticationIsUnknownPrincipal(t *testing.T) {
	g := NewGates(newTokens(t, time.Now), stubUsers{}, logging.Nop{}, nil)

	res := run(t, []gin.HandlerFunc{g.RequireOwner()}, "")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "User not found", res.body["message"])
}

func TestRequireOwner_LookupError(t *testing.T) {
	tm := newTokens(t, time.Now)
	log := &recLogger{}
	g := NewGates(tm, stubUsers{err: errors.New("db down")}, log, nil)

	tok, err := tm.IssueAccessToken("owner-1")
	require.NoError(t, err)

	res := run(t, []gin.HandlerFunc{g.Authenticate(), g.RequireOwner()}, "Bearer "+tok)
	assert.Equal(t, http.StatusInternalServerError, res.code)
	assert.False(t, res.reached)
	assert.Equal(t, []string{"principal lookup failed"}, log.errors)
}

func TestRequireOwner_StoresPrincipal(t *testing.T) {
	tm := newTokens(t, time.Now)
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	g := NewGates(tm, stubUsers{users: map[string]*models.User{"owner-1": owner}}, logging.Nop{}, nil)

	tok, err := tm.IssueAccessToken("owner-1")
	require.NoError(t, err)

	r := gin.New()
	var got *models.User
	var claims *auth.Claims
	r.GET("/x", g.Authenticate(), g.RequireOwner(), func(c *gin.Context) {
		got, _ = PrincipalFrom(c)
		claims, _ = ClaimsFrom(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Same(t, owner, got)
	require.NotNil(t, claims)
	assert.Equal(t, "owner-1", claims.Subject)
}
