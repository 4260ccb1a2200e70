package models

import (
	"strings"

	"cloud.google.com/go/civil"
)

const DefaultJournalTitle = "Untitled"

// JournalSummary is a journal entry without its body.
type JournalSummary struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Date  civil.Date `json:"date"`
}

// JournalDetail is a journal entry with its flattened body.
type JournalDetail struct {
	JournalSummary
	Content []ContentBlock `json:"content"`
}

// BlockKind is the closed set of renderable block kinds.
type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindHeading2  BlockKind = "heading2"
	KindHeading3  BlockKind = "heading3"
	KindBullet    BlockKind = "bullet"
	KindNumbered  BlockKind = "numbered"
	KindQuote     BlockKind = "quote"
	KindCallout   BlockKind = "callout"
	KindDivider   BlockKind = "divider"
	KindCode      BlockKind = "code"
)

// ContentBlock is one flattened block of a journal body.
// Text is empty for dividers; Language is set only for code.
type ContentBlock struct {
	Kind     BlockKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
}

// Markdown renders the block as a Markdown fragment.
func (b ContentBlock) Markdown() string {
	switch b.Kind {
	case KindHeading2:
		return "## " + b.Text
	case KindHeading3:
		return "### " + b.Text
	case KindBullet:
		return "- " + b.Text
	case KindNumbered:
		return "1. " + b.Text
	case KindQuote:
		return "> " + strings.ReplaceAll(b.Text, "\n", "\n> ")
	case KindCallout:
		return "> 💡 " + strings.ReplaceAll(b.Text, "\n", "\n> ")
	case KindDivider:
		return "---"
	case KindCode:
		return "```" + b.Language + "\n" + b.Text + "\n```"
	default:
		return b.Text
	}
}

// DateGroup collects the entries sharing one calendar date.
type DateGroup struct {
	Date    civil.Date       `json:"date"`
	Entries []JournalSummary `json:"entries"`
}
