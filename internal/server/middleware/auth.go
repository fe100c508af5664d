// Package middleware holds the gin middlewares guarding the API: the
// authentication gate, the owner-only authorization gate and request
// logging.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/logging"
	"github.com/dmitrijs2005/toolshelf/internal/server/auth"
	"github.com/dmitrijs2005/toolshelf/internal/server/metrics"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/respond"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

type ctxKey string

const userIDKey ctxKey = "userID"

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// UserLookup loads a principal by id.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type Gates struct {
	verifier TokenVerifier
	users    UserLookup
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewGates builds both gates. m may be nil.
func NewGates(v TokenVerifier, users UserLookup, logger logging.Logger, m *metrics.Metrics) *Gates {
	return &Gates{verifier: v, users: users, logger: logger, metrics: m}
}

// Authenticate requires a valid bearer token and records its subject under
// common.UserIDKey and in the request context.
func (g *Gates) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			g.reject(metrics.GateAuthentication, "missing_token")
			respond.Error(c, http.StatusUnauthorized, "Token not provided", "")
			return
		}

		token := strings.TrimSpace(header[len(common.BearerPrefix):])
		if token == "" {
			g.reject(metrics.GateAuthentication, "missing_token")
			respond.Error(c, http.StatusUnauthorized, "Token not provided", "")
			return
		}

		ctx := c.Request.Context()
		claims, err := g.verifier.Verify(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) {
				g.logger.Debug(ctx, "token rejected", "error", err)
				g.reject(metrics.GateAuthentication, "invalid_token")
				respond.Error(c, http.StatusUnauthorized, "Invalid token", "Invalid token")
				return
			}
			g.logger.Error(ctx, "token verification failed", "error", err)
			g.reject(metrics.GateAuthentication, "verification_error")
			respond.Error(c, http.StatusForbidden, "Invalid or expired token", err.Error())
			return
		}

		c.Set(common.UserIDKey, claims.Subject)
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(WithUserID(ctx, claims.Subject))
		c.Next()
	}
}

// RequireOwner admits only principals whose role is owner. It must run
// after Authenticate.
func (g *Gates) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id := c.GetString(common.UserIDKey)
		if id == "" {
			g.reject(metrics.GateAuthorization, "unknown_principal")
			respond.Error(c, http.StatusNotFound, "User not found", "")
			return
		}

		user, err := g.users.Get(ctx, id)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			g.reject(metrics.GateAuthorization, "unknown_principal")
			respond.Error(c, http.StatusNotFound, "User not found", "")
			return
		case err != nil:
			g.logger.Error(ctx, "principal lookup failed", "userId", id, "error", err)
			g.reject(metrics.GateAuthorization, "lookup_error")
			respond.Error(c, http.StatusInternalServerError, "Internal server error", "")
			return
		}

		if !user.Role.IsOwner() {
			g.reject(metrics.GateAuthorization, "not_owner")
			respond.Error(c, http.StatusForbidden, "Access denied, administrators only", "")
			return
		}

		c.Set(common.PrincipalKey, user)
		c.Next()
	}
}

func (g *Gates) reject(gate, reason string) {
	if g.metrics != nil {
		g.metrics.Reject(gate, reason)
	}
}

// WithUserID stores the authenticated subject id in ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the subject id stored by Authenticate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ClaimsFrom returns the verified claims of the current request.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// PrincipalFrom returns the user loaded by RequireOwner.
func PrincipalFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(common.PrincipalKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}
