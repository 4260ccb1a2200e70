package routes

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sfkaos/zeke-site/controllers"
	"github.com/sfkaos/zeke-site/middleware"
	"github.com/sfkaos/zeke-site/services"
	"github.com/sfkaos/zeke-site/views"
)

// RegisterRoutes wires the site pages, feeds and internal endpoints onto r.
func RegisterRoutes(r *gin.Engine, content *services.ContentService, renderer *services.Renderer, templates *template.Template, siteURL, internalToken string) {
	siteController := controllers.NewSiteController(content, renderer, templates)
	feedController := controllers.NewFeedController(content, renderer, siteURL)
	syncController := controllers.NewSyncController(renderer)

	r.SetHTMLTemplate(templates)
	r.StaticFS("/static", http.FS(views.Static()))

	// Pages
	r.GET("/", siteController.Home)
	r.GET("/journal", siteController.JournalIndex)
	r.GET("/journal/:id", siteController.JournalEntry)
	r.GET("/journal/:id/markdown", siteController.JournalMarkdown)

	// Feeds
	r.GET("/rss.xml", feedController.ActivityFeed)
	r.GET("/journal/rss.xml", feedController.JournalFeed)

	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(internalToken))
	{
		internal.POST("/revalidate", syncController.Revalidate)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.NoRoute(siteController.NotFound)
}
