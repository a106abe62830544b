package handler

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/pkg/response"
	"github.com/xxxsen/redline/internal/service"
)

type AIHandler struct {
	ai *service.AIService
}

func NewAIHandler(ai *service.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

type aiEditRequest struct {
	ai.Params
	EditType     string `json:"editType"`
	Provider     string `json:"provider"`
	KeepOriginal bool   `json:"keepOriginal"`
}

type aiAnalyzeRequest struct {
	ai.Params
	Content    string `json:"content"`
	DocumentID int64  `json:"documentId"`
	Provider   string `json:"provider"`
}

type aiVerifyRequest struct {
	Task                 string          `json:"task"`
	Content              string          `json:"content"`
	DocumentID           int64           `json:"documentId"`
	Result               json.RawMessage `json:"result"`
	PrimaryProvider      string          `json:"primaryProvider"`
	VerificationProvider string          `json:"verificationProvider"`
}

type aiConsensusRequest struct {
	ai.Params
	Task       string   `json:"task"`
	Content    string   `json:"content"`
	DocumentID int64    `json:"documentId"`
	Providers  []string `json:"providers"`
}

func (h *AIHandler) Edit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req aiEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	result, err := h.ai.AIEdit(c.Request.Context(), id, req.EditType, req.Params, req.Provider, req.KeepOriginal)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Analyze(c *gin.Context) {
	var req aiAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	ctx := c.Request.Context()
	content, err := h.ai.ResolveContent(ctx, req.Content, req.DocumentID)
	if err != nil {
		handleError(c, err)
		return
	}
	result, err := h.ai.Analyze(ctx, c.Param("task"), content, req.Params, req.Provider)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Verify(c *gin.Context) {
	var req aiVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		badRequest(c, "task required")
		return
	}
	ctx := c.Request.Context()
	content, err := h.ai.ResolveContent(ctx, req.Content, req.DocumentID)
	if err != nil {
		handleError(c, err)
		return
	}
	result, err := h.ai.Verify(ctx, req.Task, content, req.Result, req.PrimaryProvider, req.VerificationProvider)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Consensus(c *gin.Context) {
	var req aiConsensusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		badRequest(c, "task required")
		return
	}
	ctx := c.Request.Context()
	content, err := h.ai.ResolveContent(ctx, req.Content, req.DocumentID)
	if err != nil {
		handleError(c, err)
		return
	}
	result, err := h.ai.Consensus(ctx, req.Task, content, req.Params, req.Providers)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Providers(c *gin.Context) {
	response.Success(c, h.ai.Providers())
}

func (h *AIHandler) OptimalProvider(c *gin.Context) {
	task := c.Query("task")
	response.Success(c, gin.H{"task": task, "provider": h.ai.OptimalProvider(task)})
}
