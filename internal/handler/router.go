package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/redline/internal/middleware"
)

type RouterDeps struct {
	Documents   *DocumentHandler
	Revisions   *RevisionHandler
	AI          *AIHandler
	AIRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents", deps.Documents.Create)
	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.PUT("/documents/:id", deps.Documents.Update)
	api.DELETE("/documents/:id", deps.Documents.Delete)
	api.POST("/documents/:id/revisions", deps.Documents.SaveRevision)
	api.GET("/documents/:id/revisions", deps.Documents.ListRevisions)

	api.GET("/revisions/:id", deps.Revisions.Get)
	api.GET("/revisions/:id/changes", deps.Revisions.ListChanges)
	api.PATCH("/revisions/:id/status", deps.Revisions.UpdateStatus)
	api.PATCH("/changes/:id/status", deps.Revisions.UpdateChangeStatus)

	api.GET("/ai/providers", deps.AI.Providers)
	api.GET("/ai/providers/optimal", deps.AI.OptimalProvider)

	aiGroup := api.Group("")
	aiGroup.Use(middleware.RateLimit(deps.AIRateLimit))
	aiGroup.POST("/documents/:id/ai-edit", deps.AI.Edit)
	aiGroup.POST("/ai/analyze/:task", deps.AI.Analyze)
	aiGroup.POST("/ai/verify", deps.AI.Verify)
	aiGroup.POST("/ai/consensus", deps.AI.Consensus)
}
