// Package httpapi exposes the REST API over gin: public auth routes, the
// authenticated /api/v1 group and operational endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/logging"
	"github.com/dmitrijs2005/toolshelf/internal/server/auth"
	"github.com/dmitrijs2005/toolshelf/internal/server/metrics"
	"github.com/dmitrijs2005/toolshelf/internal/server/middleware"
	"github.com/dmitrijs2005/toolshelf/internal/server/respond"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users   *services.UserService
	Tools   *services.ToolService
	Tokens  *auth.TokenManager
	DB      Pinger
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

type handler struct {
	users   *services.UserService
	tools   *services.ToolService
	tokens  *auth.TokenManager
	db      Pinger
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewRouter builds the gin engine with every route wired.
func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()

	h := &handler{
		users:   d.Users,
		tools:   d.Tools,
		tokens:  d.Tokens,
		db:      d.DB,
		logger:  d.Logger,
		metrics: d.Metrics,
	}
	gates := middleware.NewGates(d.Tokens, d.Users, d.Logger, d.Metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "Route not found", "")
	})

	r.GET("/", h.root)
	r.GET("/healthz", h.health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
	}

	api := r.Group("/api/v1", gates.Authenticate())
	{
		api.POST("/auth/logout", h.logout)

		users := api.Group("/users")
		users.GET("", h.listUsers)
		users.POST("", gates.RequireOwner(), h.createUser)
		users.GET("/me", h.me)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.PUT("/:id/role", gates.RequireOwner(), h.setRole)
		users.DELETE("/:id", h.deleteUser)

		tools := api.Group("/tools")
		tools.GET("", h.listTools)
		tools.POST("", h.createTool)
		tools.GET("/:id", h.getTool)
		tools.PUT("/:id", h.updateTool)
		tools.DELETE("/:id", h.deleteTool)
	}

	return r
}

func (h *handler) root(c *gin.Context) {
	respond.OK(c, http.StatusOK, "Go API REST", nil)
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// internal logs err and answers with a sanitized 500.
func (h *handler) internal(c *gin.Context, msg string, err error, detail string) {
	h.logger.Error(c.Request.Context(), msg, "error", err)
	respond.Error(c, http.StatusInternalServerError, "", detail)
}
