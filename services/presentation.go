package services

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/sfkaos/zeke-site/models"
)

const (
	longDateLayout  = "Monday, January 2, 2006"
	shortDateLayout = "Mon, Jan 2, 2006"
	lastSyncLayout  = "Jan 2, 2006, 3:04 PM"
)

// GroupByDate partitions entries by exact calendar date. Groups are newest first;
// entries inside a group keep their input order.
func GroupByDate(entries []models.JournalSummary) []models.DateGroup {
	index := make(map[civil.Date]int)
	groups := make([]models.DateGroup, 0)
	for _, entry := range entries {
		i, ok := index[entry.Date]
		if !ok {
			i = len(groups)
			index[entry.Date] = i
			groups = append(groups, models.DateGroup{Date: entry.Date})
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

// FormatLongDate renders d as "Monday, January 1, 2024".
func FormatLongDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.In(time.UTC).Format(longDateLayout)
}

// FormatShortDate renders d as "Mon, Jan 1, 2024".
func FormatShortDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.In(time.UTC).Format(shortDateLayout)
}

// FormatLastSync renders the footer timestamp.
func FormatLastSync(t time.Time) string {
	return t.UTC().Format(lastSyncLayout)
}

// CategoryIcon returns the part of a category label before the first space.
func CategoryIcon(category string) string {
	if i := strings.IndexByte(category, ' '); i >= 0 {
		return category[:i]
	}
	return category
}

// StatusClass picks the CSS class for an activity status label.
func StatusClass(status string) string {
	switch {
	case strings.Contains(status, "Done"):
		return "status-done"
	case strings.Contains(status, "Progress"):
		return "status-progress"
	default:
		return ""
	}
}
