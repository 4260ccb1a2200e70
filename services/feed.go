package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/sfkaos/zeke-site/models"
)

// RSSDateLayout is the RFC 1123 form with a literal GMT zone.
const RSSDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

const (
	defaultFeedTitle       = "Activity"
	defaultFeedDescription = "Update"
)

// FeedChannel describes the feed itself.
type FeedChannel struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// ActivityFeedItems maps activity rows into feed items. now stands in for a missing date.
func ActivityFeedItems(pages []notionapi.Page, now time.Time) []models.RSSItem {
	items := make([]models.RSSItem, 0, len(pages))
	for _, page := range pages {
		title, ok := FirstTitle(page.Properties, PropActivity)
		if !ok {
			title = defaultFeedTitle
		}
		description, ok := SelectName(page.Properties, PropCategory)
		if !ok {
			description = defaultFeedDescription
		}
		published := now
		if start, ok := DateStart(page.Properties, PropDate); ok {
			published = start
		}
		items = append(items, models.RSSItem{
			Title:       title,
			Description: description,
			PubDate:     FormatRSSDate(published),
			GUID:        models.RSSGUID{IsPermaLink: "false", Value: string(page.ID)},
		})
	}
	return items
}

// JournalFeedItems maps journal entries into feed items whose description is the entry text.
func JournalFeedItems(entries []models.JournalDetail, siteURL string) []models.RSSItem {
	items := make([]models.RSSItem, 0, len(entries))
	for _, entry := range entries {
		var body []string
		for _, block := range entry.Content {
			if block.Kind == models.KindDivider || block.Text == "" {
				continue
			}
			body = append(body, block.Text)
		}
		link := strings.TrimRight(siteURL, "/") + "/journal/" + entry.ID
		items = append(items, models.RSSItem{
			Title:       entry.Title,
			Link:        link,
			Description: strings.Join(body, "\n\n"),
			PubDate:     FormatRSSDate(entry.Date.In(time.UTC)),
			GUID:        models.RSSGUID{IsPermaLink: "false", Value: entry.ID},
		})
	}
	return items
}

// BuildFeed serializes an RSS 2.0 document. Text is escaped by the XML encoder.
func BuildFeed(channel FeedChannel, items []models.RSSItem) ([]byte, error) {
	doc := models.RSS{
		Version: "2.0",
		Channel: models.RSSChannel{
			Title:       channel.Title,
			Link:        channel.Link,
			Description: channel.Description,
			Language:    channel.Language,
			Items:       items,
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// FormatRSSDate renders t in UTC using RSSDateLayout.
func FormatRSSDate(t time.Time) string {
	return t.UTC().Format(RSSDateLayout)
}
