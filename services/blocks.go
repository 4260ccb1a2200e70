package services

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/sfkaos/zeke-site/models"
)

// PlainText joins the plain text of spans in order with no separator.
func PlainText(spans []notionapi.RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.PlainText)
	}
	return b.String()
}

// MapBlocks flattens remote blocks into content blocks, preserving order.
// Blocks of any other type are dropped.
func MapBlocks(blocks []notionapi.Block) []models.ContentBlock {
	out := make([]models.ContentBlock, 0, len(blocks))
	for _, block := range blocks {
		if cb, ok := mapBlock(block); ok {
			out = append(out, cb)
		}
	}
	return out
}

func mapBlock(block notionapi.Block) (models.ContentBlock, bool) {
	text := func(kind models.BlockKind, spans []notionapi.RichText) (models.ContentBlock, bool) {
		return models.ContentBlock{Kind: kind, Text: PlainText(spans)}, true
	}
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return text(models.KindParagraph, b.Paragraph.RichText)
	case *notionapi.Heading2Block:
		return text(models.KindHeading2, b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return text(models.KindHeading3, b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return text(models.KindBullet, b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return text(models.KindNumbered, b.NumberedListItem.RichText)
	case *notionapi.QuoteBlock:
		return text(models.KindQuote, b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return text(models.KindCallout, b.Callout.RichText)
	case *notionapi.DividerBlock:
		return models.ContentBlock{Kind: models.KindDivider}, true
	case *notionapi.CodeBlock:
		return models.ContentBlock{
			Kind:     models.KindCode,
			Text:     PlainText(b.Code.RichText),
			Language: b.Code.Language,
		}, true
	}
	return models.ContentBlock{}, false
}

// RenderMarkdown renders a journal entry as a Markdown document.
func RenderMarkdown(entry models.JournalDetail) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(entry.Title)
	b.WriteString("\n\n")
	b.WriteString("_")
	b.WriteString(FormatLongDate(entry.Date))
	b.WriteString("_\n")
	for _, block := range entry.Content {
		b.WriteString("\n")
		b.WriteString(block.Markdown())
		b.WriteString("\n")
	}
	return b.String()
}

// Excerpt returns the text of the first non-empty paragraph, cut to max runes.
func Excerpt(content []models.ContentBlock, max int) string {
	for _, block := range content {
		if block.Kind != models.KindParagraph || strings.TrimSpace(block.Text) == "" {
			continue
		}
		r := []rune(strings.TrimSpace(block.Text))
		if max > 0 && len(r) > max {
			return strings.TrimSpace(string(r[:max])) + "…"
		}
		return string(r)
	}
	return ""
}
