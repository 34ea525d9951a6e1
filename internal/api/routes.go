package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {

	// --- LLM round trips ---
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/generate", h.Generate)            // Prompt -> tool configuration
		apiGroup.POST("/generate-ui", h.GenerateUI)       // Prompt -> custom theme (mock fallback)
		apiGroup.POST("/generate-logic", h.GenerateLogic) // Tool configuration -> processing logic + intent
		apiGroup.POST("/analyze", h.Analyze)              // Raw analysis call
		apiGroup.POST("/scrape", h.Scrape)                // Website -> seed prompt
	}

	// --- Build ---
	buildGroup := apiGroup.Group("/build")
	{
		buildGroup.POST("", h.Build)
		buildGroup.GET("/ws", h.BuildSocket) // Streams build events
	}

	// --- Generated tools ---
	toolGroup := apiGroup.Group("/tools/:id")
	{
		toolGroup.GET("", h.GetTool)
		toolGroup.PATCH("/theme", h.UpdateTheme)
		toolGroup.POST("/analyze", h.AnalyzeTool)
	}

	historyGroup := apiGroup.Group("/history")
	{
		historyGroup.GET("", h.History)
		historyGroup.DELETE("", h.ClearHistory)
		historyGroup.GET("/latest", h.LatestTool)
	}

	apiGroup.POST("/deploy", h.Deploy) // Static export of a tool page

	// --- Server-rendered tool pages ---
	router.GET("/tools/:id", h.ToolPage)
	router.POST("/tools/:id", h.SubmitToolPage)

	// --- Simple Health Check ---
	router.GET("/health", func(c *gin.Context) {
		if err := h.tools.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "ok", "ai": h.aiGenerator.Configured()})
	})

}
