package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/server/middleware"
	"github.com/dmitrijs2005/toolshelf/internal/server/respond"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required,min=2"`
	LastName  string `json:"lastName" binding:"required,min=2"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

func (r signupRequest) input() services.UserInput {
	return services.UserInput{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email, Password: r.Password}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.Signup(ctx, req.input())
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		h.logger.Warn(ctx, "attempt to register with an existing email address", "email", req.Email)
		respond.Error(c, http.StatusConflict, "", "Email already registered")
		return
	case err != nil:
		h.internal(c, "signup failed", err, "Failed to register user")
		return
	}

	respond.OK(c, http.StatusCreated, "New User Created", gin.H{"user": user})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	token, err := h.users.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		h.logger.Warn(ctx, "user not found with that email", "email", req.Email)
		h.loginOutcome("unknown_email")
		respond.Error(c, http.StatusNotFound, "", "Email not registered")
		return
	case errors.Is(err, common.ErrInvalidPassword):
		h.logger.Warn(ctx, "invalid password", "email", req.Email)
		h.loginOutcome("invalid_password")
		respond.Error(c, http.StatusBadRequest, "", "Invalid password")
		return
	case err != nil:
		h.loginOutcome("error")
		h.internal(c, "login failed", err, "User login attempt failed")
		return
	}

	h.loginOutcome("success")
	respond.OK(c, http.StatusOK, "Login Success", gin.H{"accessToken": token})
}

// logout puts the presented token on the deny-list.
func (h *handler) logout(c *gin.Context) {
	if !h.tokens.RevocationEnabled() {
		respond.Error(c, http.StatusNotImplemented, "Token revocation is not enabled", "")
		return
	}

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "Token not provided", "")
		return
	}

	err := h.tokens.Revoke(c.Request.Context(), claims)
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		respond.Error(c, http.StatusUnauthorized, "Invalid token", "Invalid token")
		return
	case err != nil:
		h.internal(c, "token revocation failed", err, "Logout failed")
		return
	}

	respond.OK(c, http.StatusOK, "Logout Success", nil)
}

func (h *handler) loginOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.Login(outcome)
	}
}
