package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/services"
)

// SyncController forces the next page and feed requests to read fresh Notion content.
type SyncController struct {
	renderer *services.Renderer
}

func NewSyncController(renderer *services.Renderer) *SyncController {
	return &SyncController{renderer: renderer}
}

// Revalidate drops every cached page and feed.
func (sc *SyncController) Revalidate(c *gin.Context) {
	purged, err := sc.renderer.Purge(c.Request.Context())
	if err != nil {
		config.Logger.Errorw("purge cache failed", "error", err, "purged", purged)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
		return
	}

	config.Logger.Infow("cache purged", "entries", purged)
	c.JSON(http.StatusOK, gin.H{
		"purged":      purged,
		"revalidated": time.Now().UTC().Format(time.RFC3339),
	})
}
