package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"toolsmith_server/internal/deploy"
	"toolsmith_server/internal/render"
	"toolsmith_server/internal/scrape"
	"toolsmith_server/internal/store"
	"toolsmith_server/internal/utils"

	"github.com/gin-gonic/gin"
)

type DeployRequest struct {
	ID string `json:"id"` // defaults to the most recently built tool
}

type ScrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

// GET /api/history
func (h *APIHandler) History(c *gin.Context) {
	history, err := h.tools.History(c.Request.Context())
	if err != nil {
		log.Printf("Error reading history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// DELETE /api/history
func (h *APIHandler) ClearHistory(c *gin.Context) {
	if err := h.tools.Clear(c.Request.Context()); err != nil {
		log.Printf("Error clearing history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/history/latest
func (h *APIHandler) LatestTool(c *gin.Context) {
	id, ok, err := h.tools.LatestID(c.Request.Context())
	if err != nil {
		log.Printf("Error reading latest tool id: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read latest tool"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No tool has been built yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// POST /api/deploy
func (h *APIHandler) Deploy(c *gin.Context) {
	var req DeployRequest
	// The body is optional.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	if utils.IsBlank(req.ID) {
		id, ok, err := h.tools.LatestID(ctx)
		if err != nil || !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "No tool to deploy"})
			return
		}
		req.ID = id
	}

	entry, err := h.tools.Load(ctx, req.ID)
	if errors.Is(err, store.ErrToolNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool configuration not found"})
		return
	}
	if err != nil {
		log.Printf("Error loading tool %s for deployment: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tool"})
		return
	}

	page := render.NewPage(entry)
	page.Action = "#"
	var html bytes.Buffer
	if err := h.renderer.Render(&html, page); err != nil {
		log.Printf("ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render tool page"})
		return
	}
	manifest, _ := json.MarshalIndent(entry, "", "  ")

	dep, err := h.deployer.Deploy(ctx, entry.ID, map[string]string{
		"index.html": html.String(),
		"tool.json":  string(manifest),
	})
	if errors.Is(err, deploy.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error deploying tool %s: %v", entry.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deploy tool"})
		return
	}

	log.Printf("Deployed tool %s to %s", dep.ID, dep.Path)
	c.JSON(http.StatusOK, dep)
}

// POST /api/scrape
func (h *APIHandler) Scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	page, err := h.scraper.Fetch(c.Request.Context(), req.URL)
	if errors.Is(err, scrape.ErrInvalidURL) || errors.Is(err, scrape.ErrBlockedAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error scraping %s: %v", req.URL, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch website content"})
		return
	}
	c.JSON(http.StatusOK, page)
}
