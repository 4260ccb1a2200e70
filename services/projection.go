package services

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/sfkaos/zeke-site/models"
)

// Property names in the Notion databases.
const (
	PropActivity = "Activity"
	PropCategory = "Category"
	PropStatus   = "Status"
	PropDate     = "Date"
	PropPublic   = "Public"
	PropName     = "Name"
)

// ProjectActivity maps an activity row. today fills a missing Date.
func ProjectActivity(page notionapi.Page, today civil.Date) models.ActivitySummary {
	out := models.ActivitySummary{
		ID:       string(page.ID),
		Activity: models.DefaultActivityTitle,
		Category: models.DefaultActivityCategory,
		Status:   models.DefaultActivityStatus,
		Date:     today,
	}
	if title, ok := FirstTitle(page.Properties, PropActivity); ok {
		out.Activity = title
	}
	if category, ok := SelectName(page.Properties, PropCategory); ok {
		out.Category = category
	}
	if status, ok := SelectName(page.Properties, PropStatus); ok {
		out.Status = status
	}
	if start, ok := DateStart(page.Properties, PropDate); ok {
		out.Date = civil.DateOf(start)
	}
	return out
}

// ProjectJournalSummary maps a journal row. The Date property wins; otherwise the
// calendar date of created_time is used as written.
func ProjectJournalSummary(page notionapi.Page) models.JournalSummary {
	out := models.JournalSummary{
		ID:    string(page.ID),
		Title: models.DefaultJournalTitle,
	}
	if title, ok := FirstTitle(page.Properties, PropName); ok {
		out.Title = title
	}
	out.Date = resolveJournalDate(page)
	return out
}

// ProjectJournalDetail maps a journal row and its body blocks.
func ProjectJournalDetail(page notionapi.Page, blocks []notionapi.Block) models.JournalDetail {
	return models.JournalDetail{
		JournalSummary: ProjectJournalSummary(page),
		Content:        MapBlocks(blocks),
	}
}

// civil.DateOf reads the date in the value's own zone, so offsets are kept as written.
func resolveJournalDate(page notionapi.Page) civil.Date {
	if start, ok := DateStart(page.Properties, PropDate); ok {
		return civil.DateOf(start)
	}
	if !page.CreatedTime.IsZero() {
		return civil.DateOf(page.CreatedTime)
	}
	return civil.Date{}
}

// FirstTitle returns the plain text of the first span of a title property.
func FirstTitle(props notionapi.Properties, name string) (string, bool) {
	prop, ok := props[name].(*notionapi.TitleProperty)
	if !ok || prop == nil || len(prop.Title) == 0 || prop.Title[0].PlainText == "" {
		return "", false
	}
	return prop.Title[0].PlainText, true
}

// SelectName returns the selected option name of a select property.
func SelectName(props notionapi.Properties, name string) (string, bool) {
	prop, ok := props[name].(*notionapi.SelectProperty)
	if !ok || prop == nil || prop.Select.Name == "" {
		return "", false
	}
	return prop.Select.Name, true
}

// DateStart returns the start of a date property with the offset it was written in.
func DateStart(props notionapi.Properties, name string) (time.Time, bool) {
	prop, ok := props[name].(*notionapi.DateProperty)
	if !ok || prop == nil || prop.Date == nil || prop.Date.Start == nil {
		return time.Time{}, false
	}
	start := time.Time(*prop.Date.Start)
	if start.IsZero() {
		return time.Time{}, false
	}
	return start, true
}

// NormalizeID folds the dashed and undashed forms of a Notion id together.
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), "-", "")
}

// Today returns the current calendar date in UTC.
func Today(now time.Time) civil.Date {
	return civil.DateOf(now.UTC())
}
