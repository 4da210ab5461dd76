package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint onto router.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	projectGroup := router.Group("/project")
	{
		projectGroup.POST("/generate", h.GenerateSite) // plan, generate, repair, score (SSE)
		projectGroup.POST("/repair", h.RepairProject)
		projectGroup.GET("/:id", h.GetProject)
		projectGroup.GET("/:id/files", h.GetProjectFiles)
		projectGroup.GET("/:id/report", h.GetProjectReport)
		projectGroup.POST("/:id/handoff", h.HandoffProject)
	}

	router.POST("/api/complete", h.Complete)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
