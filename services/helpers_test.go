package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func spans(texts ...string) []notionapi.RichText {
	out := make([]notionapi.RichText, 0, len(texts))
	for _, t := range texts {
		out = append(out, notionapi.RichText{PlainText: t})
	}
	return out
}

func paragraph(texts ...string) notionapi.Block {
	return &notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: spans(texts...)}}
}

func heading2(texts ...string) notionapi.Block {
	return &notionapi.Heading2Block{Heading2: notionapi.Heading{RichText: spans(texts...)}}
}

func heading3(texts ...string) notionapi.Block {
	return &notionapi.Heading3Block{Heading3: notionapi.Heading{RichText: spans(texts...)}}
}

func bullet(texts ...string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: spans(texts...)}}
}

func numbered(texts ...string) notionapi.Block {
	return &notionapi.NumberedListItemBlock{NumberedListItem: notionapi.ListItem{RichText: spans(texts...)}}
}

func quote(texts ...string) notionapi.Block {
	return &notionapi.QuoteBlock{Quote: notionapi.Quote{RichText: spans(texts...)}}
}

func callout(texts ...string) notionapi.Block {
	return &notionapi.CalloutBlock{Callout: notionapi.Callout{RichText: spans(texts...)}}
}

func codeBlock(language string, texts ...string) notionapi.Block {
	return &notionapi.CodeBlock{Code: notionapi.Code{RichText: spans(texts...), Language: language}}
}

func dividerBlock() notionapi.Block {
	return &notionapi.DividerBlock{}
}

func imageBlock() notionapi.Block {
	return &notionapi.ImageBlock{}
}

func todoBlock(texts ...string) notionapi.Block {
	return &notionapi.ToDoBlock{ToDo: notionapi.ToDo{RichText: spans(texts...)}}
}

func heading1(texts ...string) notionapi.Block {
	return &notionapi.Heading1Block{Heading1: notionapi.Heading{RichText: spans(texts...)}}
}

func titleProp(text string) notionapi.Property {
	return &notionapi.TitleProperty{Title: spans(text)}
}

func selectProp(name string) notionapi.Property {
	return &notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

// parseStamp reads a bare date as midnight UTC and a timestamp with its offset.
func parseStamp(s string) time.Time {
	layout := time.RFC3339
	if !strings.Contains(s, "T") {
		layout = time.DateOnly
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dateProp(start string) notionapi.Property {
	d := notionapi.Date(parseStamp(start))
	return &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func journalPage(id, title, date, created string) notionapi.Page {
	props := notionapi.Properties{}
	if title != "" {
		props[PropName] = titleProp(title)
	}
	if date != "" {
		props[PropDate] = dateProp(date)
	}
	page := notionapi.Page{
		ID:         notionapi.ObjectID(id),
		Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(journalDB)},
		Properties: props,
	}
	if created != "" {
		page.CreatedTime = parseStamp(created)
	}
	return page
}

// fakeClient serves canned responses and records calls.
type fakeClient struct {
	mu sync.Mutex

	pages     map[string]notionapi.Page
	blocks    map[string][]notionapi.Block
	databases map[string][]notionapi.Page
	failQuery bool
	failBlock map[string]bool

	queries     []notionapi.DatabaseQueryRequest
	blockCalls  int
	onListBlock func(id string)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:     map[string]notionapi.Page{},
		blocks:    map[string][]notionapi.Block{},
		databases: map[string][]notionapi.Page{},
		failBlock: map[string]bool{},
	}
}

func (f *fakeClient) RetrievePage(_ context.Context, pageID string) (*notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[pageID]
	if !ok {
		return nil, &FetchError{Op: "retrieve_page", Status: 404, Code: "object_not_found", Err: fmt.Errorf("not found")}
	}
	return &p, nil
}

func (f *fakeClient) QueryDatabase(_ context.Context, databaseID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, *query)
	if f.failQuery {
		return nil, &FetchError{Op: "query_database", Status: 401, Code: "unauthorized", Err: fmt.Errorf("bad token")}
	}
	results := f.databases[databaseID]
	if query.PageSize > 0 && len(results) > query.PageSize {
		results = results[:query.PageSize]
	}
	return results, nil
}

func (f *fakeClient) ListBlockChildren(_ context.Context, blockID string) ([]notionapi.Block, error) {
	f.mu.Lock()
	f.blockCalls++
	hook := f.onListBlock
	fail := f.failBlock[blockID]
	blocks, ok := f.blocks[blockID]
	f.mu.Unlock()

	if hook != nil {
		hook(blockID)
	}
	if fail {
		return nil, &FetchError{Op: "list_block_children", Status: 500, Err: fmt.Errorf("boom")}
	}
	if !ok {
		return nil, &FetchError{Op: "list_block_children", Status: 404, Err: fmt.Errorf("not found")}
	}
	return blocks, nil
}
