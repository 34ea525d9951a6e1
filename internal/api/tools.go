package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"toolsmith_server/internal/ai"
	"toolsmith_server/internal/render"
	"toolsmith_server/internal/store"
	"toolsmith_server/internal/types"
	"toolsmith_server/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxThemePatchBytes = 64 << 10

type ToolResponse struct {
	ID             string                   `json:"id"`
	Prompt         string                   `json:"prompt"`
	ToolConfig     types.ToolConfig         `json:"toolConfig"`
	Customizations types.ThemeCustomization `json:"customizations"`
	Form           render.Form              `json:"form"`
}

type ToolAnalyzeRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// ToolAnalyzeResponse always reports state "complete"; a failed analysis
// carries an error-shaped Result and a non-empty Error.
type ToolAnalyzeResponse struct {
	State  string          `json:"state"`
	Result json.RawMessage `json:"result"`
	View   render.View     `json:"view"`
	Error  string          `json:"error,omitempty"`
	Debug  ai.Debug        `json:"debug"`
}

// GET /api/tools/:id
func (h *APIHandler) GetTool(c *gin.Context) {
	entry, ok := h.loadTool(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToolResponse{
		ID:             entry.ID,
		Prompt:         entry.Prompt,
		ToolConfig:     entry.ToolConfig,
		Customizations: entry.Customizations,
		Form:           render.BuildForm(entry.ToolConfig),
	})
}

// PATCH /api/tools/:id/theme
func (h *APIHandler) UpdateTheme(c *gin.Context) {
	patch, err := io.ReadAll(io.LimitReader(c.Request.Body, maxThemePatchBytes))
	if err != nil || len(bytes.TrimSpace(patch)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Theme patch is required"})
		return
	}

	updated, err := h.tools.UpdateTheme(c.Request.Context(), c.Param("id"), patch)
	switch {
	case errors.Is(err, store.ErrToolNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool configuration not found"})
	case errors.Is(err, store.ErrInvalidTheme):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		log.Printf("Error updating theme for tool %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update theme"})
	default:
		c.JSON(http.StatusOK, gin.H{"customizations": updated})
	}
}

// POST /api/tools/:id/analyze
func (h *APIHandler) AnalyzeTool(c *gin.Context) {
	var req ToolAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	entry, ok := h.loadTool(c)
	if !ok {
		return
	}

	form := render.BuildForm(entry.ToolConfig)
	if !render.CanSubmit(form.Pick(req.Values), false) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in at least one field"})
		return
	}

	c.JSON(http.StatusOK, h.analyzeTool(c.Request.Context(), entry, form, req.Values))
}

// analyzeTool runs one analysis for a stored tool. Failures are folded into
// an error-shaped result so the caller always has something to render.
func (h *APIHandler) analyzeTool(ctx context.Context, entry types.HistoryEntry, form render.Form, values map[string]string) ToolAnalyzeResponse {
	cfg := entry.ToolConfig
	result, debug, err := h.aiGenerator.Analyze(ctx, cfg.ToolType, form.Input(values), &cfg)

	resp := ToolAnalyzeResponse{State: "complete", Result: json.RawMessage(result), Debug: debug}
	if err != nil {
		_, body := aiErrorBody("Failed to analyze input", err)
		msg, _ := body["error"].(string)
		log.Printf("ERROR: analysis for tool %s failed: %v", entry.ID, err)

		details := err.Error()
		var parseErr *ai.ParseError
		if errors.As(err, &parseErr) && parseErr.Raw != "" {
			details = parseErr.Raw
		}
		synthetic, _ := json.Marshal(render.ErrorResult(msg, utils.Truncate(details, 500)))
		resp.Result = synthetic
		resp.Error = msg
	}

	resp.View = render.Analyze(resp.Result)
	return resp
}

// loadTool writes the 404/500 response itself and reports false on failure.
func (h *APIHandler) loadTool(c *gin.Context) (types.HistoryEntry, bool) {
	id := c.Param("id")
	entry, err := h.tools.Load(c.Request.Context(), id)
	if errors.Is(err, store.ErrToolNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool configuration not found"})
		return types.HistoryEntry{}, false
	}
	if err != nil {
		log.Printf("Error loading tool %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tool"})
		return types.HistoryEntry{}, false
	}
	return entry, true
}

// --- Server-rendered tool page ---

// GET /tools/:id
func (h *APIHandler) ToolPage(c *gin.Context) {
	entry, err := h.tools.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderMissingTool(c, err)
		return
	}
	h.renderPage(c, http.StatusOK, render.NewPage(entry))
}

// POST /tools/:id
func (h *APIHandler) SubmitToolPage(c *gin.Context) {
	entry, err := h.tools.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderMissingTool(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	values := make(map[string]string, len(c.Request.PostForm))
	for name := range c.Request.PostForm {
		values[name] = c.Request.PostForm.Get(name)
	}

	page := render.NewPage(entry)
	page.Form = page.Form.WithValues(values)
	if !render.CanSubmit(page.Form.Pick(values), false) {
		page.Error = "Please fill in at least one field."
		h.renderPage(c, http.StatusBadRequest, page)
		return
	}

	resp := h.analyzeTool(c.Request.Context(), entry, page.Form, values)
	page.View = &resp.View
	page.Error = resp.Error
	h.renderPage(c, http.StatusOK, page)
}

func (h *APIHandler) renderMissingTool(c *gin.Context, err error) {
	if !errors.Is(err, store.ErrToolNotFound) {
		log.Printf("Error loading tool page %s: %v", c.Param("id"), err)
		c.String(http.StatusInternalServerError, "Failed to load tool")
		return
	}
	page := render.NewPage(types.HistoryEntry{ID: c.Param("id"), ToolConfig: types.ToolConfig{Title: "Tool not found"}})
	page.Error = "Tool configuration not found"
	h.renderPage(c, http.StatusNotFound, page)
}

func (h *APIHandler) renderPage(c *gin.Context, status int, page render.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page); err != nil {
		log.Printf("ERROR: %v", err)
		c.String(http.StatusInternalServerError, "Failed to render tool page")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
