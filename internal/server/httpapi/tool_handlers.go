package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/dmitrijs2005/toolshelf/internal/server/respond"
	"github.com/dmitrijs2005/toolshelf/internal/server/services"
	"github.com/gin-gonic/gin"
)

type toolRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	Description string `json:"description" binding:"required,min=2"`
	Website     string `json:"website" binding:"required,url"`
}

func (r toolRequest) input() services.ToolInput {
	return services.ToolInput{Name: r.Name, Description: r.Description, Website: r.Website}
}

const (
	toolConflictMessage = "There is already a registered tool with that name"
	toolConflictError   = "Tool already registered"
)

func (h *handler) listTools(c *gin.Context) {
	tools, err := h.tools.List(c.Request.Context())
	if err != nil {
		h.internal(c, "list tools failed", err, "Failed to list tools")
		return
	}
	respond.OK(c, http.StatusOK, "Get list all tools", gin.H{"tools": tools, "counter": len(tools)})
}

func (h *handler) createTool(c *gin.Context) {
	var req toolRequest
	if !bindJSON(c, &req) {
		return
	}

	tool, err := h.tools.Create(c.Request.Context(), req.input())
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, toolConflictMessage, toolConflictError)
		return
	case err != nil:
		h.internal(c, "create tool failed", err, "Failed to create tool")
		return
	}

	respond.OK(c, http.StatusCreated, "New Tool Created", gin.H{"tool": tool})
}

func (h *handler) getTool(c *gin.Context) {
	tool, err := h.tools.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "Tool not found", "Unregistered tool")
		return
	case err != nil:
		h.internal(c, "get tool failed", err, "Failed to load tool")
		return
	}
	respond.OK(c, http.StatusOK, "Get tool by ID", gin.H{"tool": tool})
}

func (h *handler) updateTool(c *gin.Context) {
	var req toolRequest
	if !bindJSON(c, &req) {
		return
	}

	tool, err := h.tools.Update(c.Request.Context(), c.Param("id"), req.input())
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "Tool not found", "Unregistered tool")
		return
	case errors.Is(err, common.ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, toolConflictMessage, toolConflictError)
		return
	case err != nil:
		h.internal(c, "update tool failed", err, "Failed to update tool")
		return
	}

	respond.OK(c, http.StatusOK, "Tool Updated", gin.H{"tool": tool})
}

func (h *handler) deleteTool(c *gin.Context) {
	id := c.Param("id")

	err := h.tools.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respond.Error(c, http.StatusNotFound, "Tool not found", "Not Found")
		return
	case err != nil:
		h.internal(c, "delete tool failed", err, "Failed to delete tool")
		return
	}

	respond.OK(c, http.StatusOK, fmt.Sprintf("Tool with ID %s deleted with success", id), nil)
}
