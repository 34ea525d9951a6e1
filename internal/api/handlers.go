package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"toolsmith_server/internal/ai"
	"toolsmith_server/internal/build"
	"toolsmith_server/internal/deploy"
	"toolsmith_server/internal/render"
	"toolsmith_server/internal/scrape"
	"toolsmith_server/internal/store"
	"toolsmith_server/internal/types"
	"toolsmith_server/internal/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	aiGenerator *ai.Generator
	tools       *store.ToolStore
	builder     *build.Builder
	renderer    *render.Renderer
	deployer    *deploy.Deployer
	scraper     *scrape.Scraper
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(
	aiGen *ai.Generator,
	tools *store.ToolStore,
	builder *build.Builder,
	renderer *render.Renderer,
	deployer *deploy.Deployer,
	scraper *scrape.Scraper,
) *APIHandler {
	return &APIHandler{
		aiGenerator: aiGen,
		tools:       tools,
		builder:     builder,
		renderer:    renderer,
		deployer:    deployer,
		scraper:     scraper,
	}
}

// --- Structs for API Requests/Responses ---

type AnalyzeRequest struct {
	ToolType   types.ToolType    `json:"toolType"`
	Input      any               `json:"input" binding:"required"`
	ToolConfig *types.ToolConfig `json:"toolConfig"`
}

type AnalyzeResponse struct {
	Data  types.AnalysisResult `json:"data"`
	Debug ai.Debug             `json:"debug"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type GenerateResponse struct {
	ToolConfig types.ToolConfig `json:"toolConfig"`
	Debug      ai.Debug         `json:"debug"`
}

type GenerateUIRequest struct {
	Prompt   string         `json:"prompt" binding:"required"`
	ToolType types.ToolType `json:"toolType"`
}

type GenerateLogicRequest struct {
	ToolConfig types.ToolConfig `json:"toolConfig"`
}

// --- API Handlers ---

// POST /api/analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if emptyInput(req.Input) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is required"})
		return
	}

	toolType := req.ToolType
	if !toolType.Valid() && req.ToolConfig != nil {
		toolType = req.ToolConfig.ToolType
	}

	result, debug, err := h.aiGenerator.Analyze(c.Request.Context(), toolType, req.Input, req.ToolConfig)
	if err != nil {
		h.respondAIError(c, "Failed to analyze input", err, debug)
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{Data: result, Debug: debug})
}

// POST /api/generate
func (h *APIHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || utils.IsBlank(req.Prompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	cfg, debug, err := h.aiGenerator.GenerateToolConfig(c.Request.Context(), req.Prompt)
	if err != nil {
		h.respondAIError(c, "Failed to generate tool configuration", err, debug)
		return
	}

	log.Printf("Generated %s tool %q", cfg.ToolType, cfg.Title)
	c.JSON(http.StatusOK, GenerateResponse{ToolConfig: cfg, Debug: debug})
}

// POST /api/generate-ui
// Never fails upstream: the generator falls back to the mock theme.
func (h *APIHandler) GenerateUI(c *gin.Context) {
	var req GenerateUIRequest
	if err := c.ShouldBindJSON(&req); err != nil || utils.IsBlank(req.Prompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}
	c.JSON(http.StatusOK, h.aiGenerator.GenerateUI(c.Request.Context(), req.Prompt, req.ToolType))
}

// POST /api/generate-logic
func (h *APIHandler) GenerateLogic(c *gin.Context) {
	var req GenerateLogicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if utils.IsBlank(req.ToolConfig.Title) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "toolConfig with a title is required"})
		return
	}

	result, err := h.aiGenerator.GenerateLogic(c.Request.Context(), req.ToolConfig)
	if err != nil {
		log.Printf("Error generating logic for %q: %v", req.ToolConfig.Title, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tool logic"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondAIError maps generator failures to 500 responses, keeping parse
// failures distinct from provider failures.
func (h *APIHandler) respondAIError(c *gin.Context, action string, err error, debug ai.Debug) {
	status, body := aiErrorBody(action, err)
	body["debug"] = debug
	log.Printf("ERROR: %s: %v", action, err)
	c.JSON(status, body)
}

func aiErrorBody(action string, err error) (int, gin.H) {
	var parseErr *ai.ParseError
	switch {
	case errors.As(err, &parseErr):
		return http.StatusInternalServerError, gin.H{
			"error": "Failed to parse " + parseErr.Stage,
			"raw":   parseErr.Raw,
		}
	case errors.Is(err, ai.ErrMissingCredential):
		return http.StatusInternalServerError, gin.H{"error": action + ": the AI provider is not configured"}
	case errors.Is(err, ai.ErrEmptyResponse):
		return http.StatusInternalServerError, gin.H{"error": action + ": the AI provider returned an empty response"}
	case errors.Is(err, context.Canceled):
		return http.StatusInternalServerError, gin.H{"error": action + ": request cancelled"}
	default:
		return http.StatusInternalServerError, gin.H{"error": action + ": " + utils.DescribeUpstream(err)}
	}
}

// emptyInput reports whether an analyze input carries nothing to analyze.
func emptyInput(v any) bool {
	switch in := v.(type) {
	case nil:
		return true
	case string:
		return utils.IsBlank(in)
	case map[string]any:
		for _, value := range in {
			if s, ok := value.(string); !ok || !utils.IsBlank(s) {
				return false
			}
		}
		return true
	case []any:
		return len(in) == 0
	}
	return false
}
