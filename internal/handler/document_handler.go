package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/redline/internal/model"
	"github.com/xxxsen/redline/internal/pkg/response"
	"github.com/xxxsen/redline/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type revisionRequest struct {
	Content *string `json:"content"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req model.DocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.DocumentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	doc, err := h.documents.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// SaveRevision stores content as a new revision of the document.
func (h *DocumentHandler) SaveRevision(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req revisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		badRequest(c, "content required")
		return
	}
	detail, err := h.documents.SaveRevision(c.Request.Context(), id, *req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *DocumentHandler) ListRevisions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	revisions, err := h.documents.ListRevisions(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, revisions)
}
