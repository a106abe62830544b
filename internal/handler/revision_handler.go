package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/redline/internal/pkg/response"
	"github.com/xxxsen/redline/internal/service"
)

type RevisionHandler struct {
	documents *service.DocumentService
}

func NewRevisionHandler(documents *service.DocumentService) *RevisionHandler {
	return &RevisionHandler{documents: documents}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *RevisionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.documents.GetRevision(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *RevisionHandler) ListChanges(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, err := h.documents.ListChanges(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, changes)
}

func (h *RevisionHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	detail, err := h.documents.ResolveRevision(c.Request.Context(), id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *RevisionHandler) UpdateChangeStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	change, err := h.documents.UpdateChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, change)
}
