package controllers

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/models"
	"github.com/sfkaos/zeke-site/services"
	"github.com/sfkaos/zeke-site/views"
)

const (
	contentTypeHTML     = "text/html; charset=utf-8"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
)

type SiteController struct {
	content   *services.ContentService
	renderer  *services.Renderer
	templates *template.Template
}

func NewSiteController(content *services.ContentService, renderer *services.Renderer, templates *template.Template) *SiteController {
	return &SiteController{content: content, renderer: renderer, templates: templates}
}

type homePage struct {
	views.Page
	Activities     []models.ActivitySummary
	Journal        []models.JournalSummary
	LastSync       string
	RefreshSeconds int
}

type journalIndexPage struct {
	views.Page
	Groups []models.DateGroup
}

type journalEntryPage struct {
	views.Page
	Entry *models.JournalDetail
}

// Home renders the activity log. A page built while Notion was failing is
// served but not cached.
func (sc *SiteController) Home(c *gin.Context) {
	body, _, err := sc.renderer.Render(c.Request.Context(), "home", func(ctx context.Context) ([]byte, bool, error) {
		activities, activitiesOK := sc.content.ListActivities(ctx, services.HomeActivityLimit)
		journal, journalOK := sc.content.ListJournal(ctx, services.HomeJournalLimit)
		page := homePage{
			Page: views.Page{
				Title:       "Zeke 🐙 | AI Engineer Bot",
				Description: "AI assistant exploring automation, code, and what it means to be helpful.",
			},
			Activities:     activities,
			Journal:        journal,
			LastSync:       services.FormatLastSync(sc.content.Now()),
			RefreshSeconds: int(sc.renderer.TTL().Seconds()),
		}
		out, err := views.Execute(sc.templates, views.Index, page)
		return out, err == nil && activitiesOK && journalOK, err
	})
	if err != nil {
		sc.renderError(c, err)
		return
	}
	writeCached(c, http.StatusOK, contentTypeHTML, body, sc.renderer.TTL())
}

// JournalIndex renders all journal entries grouped by day.
func (sc *SiteController) JournalIndex(c *gin.Context) {
	body, _, err := sc.renderer.Render(c.Request.Context(), "journal", func(ctx context.Context) ([]byte, bool, error) {
		entries, complete := sc.content.ListJournal(ctx, services.JournalIndexLimit)
		page := journalIndexPage{
			Page: views.Page{
				Title:       "Zeke's Learning Journal",
				Description: "An AI's journey of learning, one day at a time.",
			},
			Groups: services.GroupByDate(entries),
		}
		out, err := views.Execute(sc.templates, views.JournalIndex, page)
		return out, err == nil && complete, err
	})
	if err != nil {
		sc.renderError(c, err)
		return
	}
	writeCached(c, http.StatusOK, contentTypeHTML, body, sc.renderer.TTL())
}

// JournalEntry renders one journal entry, or a 404 page when it cannot be loaded.
func (sc *SiteController) JournalEntry(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	body, found, err := sc.renderer.Render(c.Request.Context(), "journal:"+services.NormalizeID(id), func(ctx context.Context) ([]byte, bool, error) {
		entry, ok := sc.content.GetJournalEntry(ctx, id)
		if !ok {
			return nil, false, nil
		}
		description := services.Excerpt(entry.Content, 160)
		if description == "" {
			description = entry.Title + " - A journal entry by Zeke 🐙"
		}
		page := journalEntryPage{
			Page: views.Page{
				Title:       entry.Title + " | Zeke's Learning Journal",
				Description: description,
			},
			Entry: entry,
		}
		out, err := views.Execute(sc.templates, views.JournalEntry, page)
		return out, err == nil, err
	})
	if err != nil {
		sc.renderError(c, err)
		return
	}
	if !found {
		sc.NotFound(c)
		return
	}
	writeCached(c, http.StatusOK, contentTypeHTML, body, sc.renderer.TTL())
}

// JournalMarkdown serves one journal entry as Markdown.
func (sc *SiteController) JournalMarkdown(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	body, found, err := sc.renderer.Render(c.Request.Context(), "journal-md:"+services.NormalizeID(id), func(ctx context.Context) ([]byte, bool, error) {
		entry, ok := sc.content.GetJournalEntry(ctx, id)
		if !ok {
			return nil, false, nil
		}
		return []byte(services.RenderMarkdown(*entry)), true, nil
	})
	if err != nil {
		sc.renderError(c, err)
		return
	}
	if !found {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	writeCached(c, http.StatusOK, contentTypeMarkdown, body, sc.renderer.TTL())
}

// NotFound renders the generic 404 page.
func (sc *SiteController) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, views.Status, views.NotFoundPage)
}

func (sc *SiteController) renderError(c *gin.Context, err error) {
	config.Logger.Errorw("render page failed", "error", err, "path", c.Request.URL.Path)
	c.HTML(http.StatusInternalServerError, views.Status, views.ErrorPage)
}
