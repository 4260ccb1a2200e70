package models

import "cloud.google.com/go/civil"

// Activity defaults applied when the source row leaves a field empty.
const (
	DefaultActivityTitle    = "Untitled"
	DefaultActivityCategory = "🤖"
	DefaultActivityStatus   = "✓ Done"
)

// ActivitySummary is one entry of the activity log.
type ActivitySummary struct {
	ID       string     `json:"id"`
	Activity string     `json:"activity"`
	Category string     `json:"category"`
	Status   string     `json:"status"`
	Date     civil.Date `json:"date"`
}
