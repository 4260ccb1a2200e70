package services

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/sync/errgroup"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/models"
)

// Listing sizes.
const (
	HomeActivityLimit = 12
	FeedActivityLimit = 20
	JournalIndexLimit = 100
	HomeJournalLimit  = 5
	JournalFeedLimit  = 20
)

type ContentConfig struct {
	ActivityDatabaseID string
	JournalDatabaseID  string
	FetchConcurrency   int
}

// ContentService fetches and projects site content. Every fetch failure is logged
// and degraded to an empty listing or a not-found result. Listings also return
// complete=false when they were degraded so callers can skip caching them.
type ContentService struct {
	client NotionClient
	cfg    ContentConfig
	now    func() time.Time
}

func NewContentService(client NotionClient, cfg ContentConfig) *ContentService {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	if cfg.ActivityDatabaseID == "" {
		config.Logger.Warnw("activity database not configured, activity listings will be empty")
	}
	return &ContentService{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Now returns the service clock reading.
func (s *ContentService) Now() time.Time {
	return s.now()
}

// PublicActivityPages returns the newest public activity rows, Date descending.
// An unconfigured activity database is complete and empty.
func (s *ContentService) PublicActivityPages(ctx context.Context, limit int) (pages []notionapi.Page, complete bool) {
	if s.cfg.ActivityDatabaseID == "" {
		return nil, true
	}
	pages, err := s.client.QueryDatabase(ctx, s.cfg.ActivityDatabaseID, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropPublic,
			Checkbox: &notionapi.CheckboxFilterCondition{Equals: true},
		},
		Sorts: []notionapi.SortObject{
			{Property: PropDate, Direction: notionapi.SortOrderDESC},
		},
		PageSize: limit,
	})
	if err != nil {
		config.Logger.Errorw("fetch activities failed", "error", err, "limit", limit)
		return nil, false
	}
	return pages, true
}

// ListActivities returns projected public activities.
func (s *ContentService) ListActivities(ctx context.Context, limit int) ([]models.ActivitySummary, bool) {
	pages, complete := s.PublicActivityPages(ctx, limit)
	today := Today(s.now())
	out := make([]models.ActivitySummary, 0, len(pages))
	for _, page := range pages {
		out = append(out, ProjectActivity(page, today))
	}
	return out, complete
}

func (s *ContentService) journalPages(ctx context.Context, limit int) ([]notionapi.Page, bool) {
	if s.cfg.JournalDatabaseID == "" {
		return nil, true
	}
	pages, err := s.client.QueryDatabase(ctx, s.cfg.JournalDatabaseID, &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Property: PropDate, Direction: notionapi.SortOrderDESC},
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderDESC},
		},
		PageSize: limit,
	})
	if err != nil {
		config.Logger.Errorw("fetch journal failed", "error", err, "limit", limit)
		return nil, false
	}
	return pages, true
}

// ListJournal returns journal summaries, newest first.
func (s *ContentService) ListJournal(ctx context.Context, limit int) ([]models.JournalSummary, bool) {
	pages, complete := s.journalPages(ctx, limit)
	out := make([]models.JournalSummary, 0, len(pages))
	for _, page := range pages {
		out = append(out, ProjectJournalSummary(page))
	}
	return out, complete
}

// GetJournalEntry loads one entry with its body. ok is false when the entry
// cannot be fetched for any reason or is not a row of the journal database.
func (s *ContentService) GetJournalEntry(ctx context.Context, id string) (entry *models.JournalDetail, ok bool) {
	var (
		page   *notionapi.Page
		blocks []notionapi.Block
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.client.RetrievePage(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		blocks, err = s.client.ListBlockChildren(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		config.Logger.Errorw("fetch journal entry failed", "error", err, "id", id, "notFound", IsNotFound(err))
		return nil, false
	}
	if !s.inJournal(*page) {
		config.Logger.Warnw("page is not a journal entry", "id", id, "parent", string(page.Parent.DatabaseID))
		return nil, false
	}
	detail := ProjectJournalDetail(*page, blocks)
	return &detail, true
}

func (s *ContentService) inJournal(page notionapi.Page) bool {
	want := NormalizeID(s.cfg.JournalDatabaseID)
	return want != "" && NormalizeID(string(page.Parent.DatabaseID)) == want
}

// ListJournalDetails returns the newest entries with bodies. Bodies are fetched
// concurrently; results keep the listing order. A failed body fetch leaves that
// entry without content and marks the result incomplete.
func (s *ContentService) ListJournalDetails(ctx context.Context, limit int) ([]models.JournalDetail, bool) {
	pages, complete := s.journalPages(ctx, limit)
	out := make([]models.JournalDetail, len(pages))
	failed := make([]bool, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, page := range pages {
		g.Go(func() error {
			blocks, err := s.client.ListBlockChildren(gctx, string(page.ID))
			if err != nil {
				config.Logger.Errorw("fetch journal body failed", "error", err, "id", string(page.ID))
				blocks = nil
				failed[i] = true
			}
			out[i] = ProjectJournalDetail(page, blocks)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failed {
		if f {
			complete = false
		}
	}
	return out, complete
}
