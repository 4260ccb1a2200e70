package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/services"
)

const contentTypeXML = "application/xml"

// feedMaxAge is the fixed cache directive of the feeds.
const feedMaxAge = 60 * time.Second

type FeedController struct {
	content  *services.ContentService
	renderer *services.Renderer
	siteURL  string
}

func NewFeedController(content *services.ContentService, renderer *services.Renderer, siteURL string) *FeedController {
	return &FeedController{content: content, renderer: renderer, siteURL: siteURL}
}

// ActivityFeed serves the activity log as RSS.
func (fc *FeedController) ActivityFeed(c *gin.Context) {
	body, _, err := fc.renderer.Render(c.Request.Context(), "rss:activity", func(ctx context.Context) ([]byte, bool, error) {
		out, complete, err := fc.BuildActivityFeed(ctx)
		return out, err == nil && complete, err
	})
	fc.write(c, body, err)
}

// JournalFeed serves the journal, with entry text, as RSS.
func (fc *FeedController) JournalFeed(c *gin.Context) {
	body, _, err := fc.renderer.Render(c.Request.Context(), "rss:journal", func(ctx context.Context) ([]byte, bool, error) {
		out, complete, err := fc.BuildJournalFeed(ctx)
		return out, err == nil && complete, err
	})
	fc.write(c, body, err)
}

// BuildActivityFeed renders the activity RSS document. complete is false when
// Notion could not be read and the feed is empty for that reason.
func (fc *FeedController) BuildActivityFeed(ctx context.Context) (body []byte, complete bool, err error) {
	pages, complete := fc.content.PublicActivityPages(ctx, services.FeedActivityLimit)
	items := services.ActivityFeedItems(pages, fc.content.Now())
	body, err = services.BuildFeed(services.FeedChannel{
		Title:       "Zeke 🐙 Activity Log",
		Link:        fc.siteURL,
		Description: "AI engineer exploring automation, code, and what it means to be helpful",
		Language:    "en",
	}, items)
	return body, complete, err
}

// BuildJournalFeed renders the journal RSS document. complete is false when the
// listing or any entry body could not be read.
func (fc *FeedController) BuildJournalFeed(ctx context.Context) (body []byte, complete bool, err error) {
	entries, complete := fc.content.ListJournalDetails(ctx, services.JournalFeedLimit)
	items := services.JournalFeedItems(entries, fc.siteURL)
	body, err = services.BuildFeed(services.FeedChannel{
		Title:       "Zeke's Learning Journal",
		Link:        fc.siteURL + "/journal",
		Description: "An AI's journey of learning, one day at a time.",
		Language:    "en",
	}, items)
	return body, complete, err
}

func (fc *FeedController) write(c *gin.Context, body []byte, err error) {
	if err != nil {
		config.Logger.Errorw("render feed failed", "error", err, "path", c.Request.URL.Path)
		c.String(http.StatusInternalServerError, "feed unavailable")
		return
	}
	writeCached(c, http.StatusOK, contentTypeXML, body, feedMaxAge)
}
