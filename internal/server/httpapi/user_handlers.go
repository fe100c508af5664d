package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/server/models"
	"github.com/dmitrijs2005/toolshelf/internal/server/respond"
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	signupRequest
	Role string `json:"role" binding:"omitempty,oneof=owner manager viewer"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=owner manager viewer"`
}

func (h *handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.internal(c, "list users failed", err, "Failed to list users")
		return
	}
	respond.OK(c, http.StatusOK, "Get list all users", gin.H{"users": users, "counter": len(users)})
}

func (h *handler) createUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	role := models.RoleViewer
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "Invalid role", err.Error())
			return
		}
		role = r
	}

	user, err := h.users.Create(c.Request.Context(), req.input(), role)
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, "There is already a registered user with that email", "Email already registered")
		return
	case err != nil:
		h.internal(c, "create user failed", err, "Failed to create user")
		return
	}

	respond.OK(c, http.StatusCreated, "New User Created", gin.H{"user": user})
}

func (h *handler) me(c *gin.Context) {
	h.writeUser(c, c.GetString(common.UserIDKey), "Get current user")
}

func (h *handler) getUser(c *gin.Context) {
	h.writeUser(c, c.Param("id"), "Get user by ID")
}

func (h *handler) writeUser(c *gin.Context, id, message string) {
	user, err := h.users.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "User not found", "Unregistered user")
		return
	case err != nil:
		h.internal(c, "get user failed", err, "Failed to load user")
		return
	}
	respond.OK(c, http.StatusOK, message, gin.H{"user": user})
}

func (h *handler) updateUser(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), req.input())
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "User not found", "Unregistered user")
		return
	case errors.Is(err, common.ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, "There is already a registered user with that email", "Email already registered")
		return
	case err != nil:
		h.internal(c, "update user failed", err, "Failed to update user")
		return
	}

	respond.OK(c, http.StatusOK, "User Updated", gin.H{"user": user})
}

func (h *handler) setRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "Invalid role", err.Error())
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), c.Param("id"), role)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "User not found", "Unregistered user")
		return
	case err != nil:
		h.internal(c, "set role failed", err, "Failed to update role")
		return
	}

	respond.OK(c, http.StatusOK, "User role updated", gin.H{"user": user})
}

func (h *handler) deleteUser(c *gin.Context) {
	id := c.Param("id")

	err := h.users.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "User not found", "Not Found")
		return
	case err != nil:
		h.internal(c, "delete user failed", err, "Failed to delete user")
		return
	}

	respond.OK(c, http.StatusOK, fmt.Sprintf("User with ID %s deleted with success", id), nil)
}
