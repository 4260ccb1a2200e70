package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfkaos/zeke-site/models"
)

// redirectTransport sends every SDK request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestNotion(t *testing.T, handler http.HandlerFunc, cfg NotionConfig) NotionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	if cfg.APIKey == "" {
		cfg.APIKey = "secret_test"
	}
	cfg.RetryWait = time.Millisecond
	cfg.HTTPClient = &http.Client{Transport: redirectTransport{target: target}, Timeout: 5 * time.Second}

	client, err := NewNotionClient(cfg)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func apiError(status int, code, message string) map[string]any {
	return map[string]any{"object": "error", "status": status, "code": code, "message": message}
}

func TestNewNotionClient_RequiresKey(t *testing.T) {
	_, err := NewNotionClient(NotionConfig{APIKey: "  "})
	assert.Error(t, err)
}

func TestRetrievePage(t *testing.T) {
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/pages/page-1", r.URL.Path)
		assert.Equal(t, "Bearer secret_test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Notion-Version"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"object":       "page",
			"id":           "page-1",
			"created_time": "2024-02-03T08:00:00.000Z",
			"parent":       map[string]any{"type": "database_id", "database_id": "journal-db"},
			"properties": map[string]any{
				"Name": map[string]any{"id": "title", "type": "title", "title": []any{map[string]any{"type": "text", "plain_text": "Hello"}}},
				"Date": map[string]any{"id": "d", "type": "date", "date": map[string]any{"start": "2024-02-01"}},
			},
		})
	}, NotionConfig{})

	page, err := client.RetrievePage(context.Background(), "page-1")
	require.NoError(t, err)

	assert.Equal(t, "page-1", string(page.ID))
	assert.Equal(t, "journal-db", string(page.Parent.DatabaseID))
	summary := ProjectJournalSummary(*page)
	assert.Equal(t, "Hello", summary.Title)
	assert.Equal(t, mustDate(t, "2024-02-01"), summary.Date)
}

func TestRetrievePage_NotFound(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusNotFound, apiError(404, "object_not_found", "Could not find page"))
	}, NotionConfig{MaxRetries: 3})

	_, err := client.RetrievePage(context.Background(), "nope")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, IsNotFound(err))
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "object_not_found", fe.Code)
	assert.Contains(t, fe.Error(), "Could not find page")
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestRetrievePage_EmptyID(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, NotionConfig{})

	_, err := client.RetrievePage(context.Background(), " ")
	assert.True(t, IsNotFound(err))
	assert.Zero(t, calls.Load())
}

func TestQueryDatabase_SendsFilterAndSorts(t *testing.T) {
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)

		var body struct {
			Filter struct {
				Property string `json:"property"`
				Checkbox struct {
					Equals bool `json:"equals"`
				} `json:"checkbox"`
			} `json:"filter"`
			Sorts []struct {
				Property  string `json:"property"`
				Timestamp string `json:"timestamp"`
				Direction string `json:"direction"`
			} `json:"sorts"`
			PageSize int `json:"page_size"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Public", body.Filter.Property)
		assert.True(t, body.Filter.Checkbox.Equals)
		require.Len(t, body.Sorts, 2)
		assert.Equal(t, "Date", body.Sorts[0].Property)
		assert.Equal(t, "descending", body.Sorts[0].Direction)
		assert.Equal(t, "created_time", body.Sorts[1].Timestamp)
		assert.Equal(t, 12, body.PageSize)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"object":   "list",
			"results":  []any{map[string]any{"object": "page", "id": "r1", "properties": map[string]any{}}},
			"has_more": false,
		})
	}, NotionConfig{})

	pages, err := client.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropPublic,
			Checkbox: &notionapi.CheckboxFilterCondition{Equals: true},
		},
		Sorts: []notionapi.SortObject{
			{Property: PropDate, Direction: notionapi.SortOrderDESC},
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderDESC},
		},
		PageSize: 12,
	})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "r1", string(pages[0].ID))
}

func TestQueryDatabase_ClampsPageSize(t *testing.T) {
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PageSize int `json:"page_size"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, MaxPageSize, body.PageSize)
		writeJSON(t, w, http.StatusOK, map[string]any{"object": "list", "results": []any{}})
	}, NotionConfig{})

	query := &notionapi.DatabaseQueryRequest{PageSize: 500}
	_, err := client.QueryDatabase(context.Background(), "db-1", query)
	require.NoError(t, err)
	assert.Equal(t, 500, query.PageSize, "the caller's request is left untouched")
}

func TestQueryDatabase_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, apiError(401, "unauthorized", "API token is invalid."))
	}, NotionConfig{MaxRetries: 3})

	_, err := client.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestQueryDatabase_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(t, w, http.StatusServiceUnavailable, apiError(503, "service_unavailable", "busy"))
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"object":  "list",
			"results": []any{map[string]any{"object": "page", "id": "r1", "properties": map[string]any{}}},
		})
	}, NotionConfig{MaxRetries: 2})

	pages, err := client.QueryDatabase(context.Background(), "db-1", nil)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueryDatabase_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusBadGateway, apiError(502, "bad_gateway", "upstream"))
	}, NotionConfig{MaxRetries: 2})

	_, err := client.QueryDatabase(context.Background(), "db-1", nil)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueryDatabase_MalformedBody(t *testing.T) {
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	}, NotionConfig{})

	_, err := client.QueryDatabase(context.Background(), "db-1", nil)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestListBlockChildren_Paginates(t *testing.T) {
	var cursors []string
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/blocks/page-1/children", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		cursor := r.URL.Query().Get("start_cursor")
		cursors = append(cursors, cursor)

		if cursor == "" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"object": "list",
				"results": []any{map[string]any{
					"object": "block", "id": "b1", "type": "paragraph",
					"paragraph": map[string]any{"rich_text": []any{map[string]any{"type": "text", "plain_text": "one"}}},
				}},
				"has_more":    true,
				"next_cursor": "c2",
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"object": "list",
			"results": []any{map[string]any{
				"object": "block", "id": "b2", "type": "code",
				"code": map[string]any{"language": "go", "rich_text": []any{map[string]any{"type": "text", "plain_text": "x := 1"}}},
			}},
			"has_more":    false,
			"next_cursor": nil,
		})
	}, NotionConfig{})

	blocks, err := client.ListBlockChildren(context.Background(), "page-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c2"}, cursors)
	require.Len(t, blocks, 2)
	assert.Equal(t, []models.ContentBlock{
		{Kind: models.KindParagraph, Text: "one"},
		{Kind: models.KindCode, Text: "x := 1", Language: "go"},
	}, MapBlocks(blocks))
}

func TestListBlockChildren_StopsAtPageLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"object":      "list",
			"results":     []any{map[string]any{"object": "block", "id": "d", "type": "divider", "divider": map[string]any{}}},
			"has_more":    true,
			"next_cursor": "again",
		})
	}, NotionConfig{MaxBlockPages: 3})

	blocks, err := client.ListBlockChildren(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotion_CanceledContext(t *testing.T) {
	client := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}, NotionConfig{MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.RetrievePage(ctx, "page-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&FetchError{Status: 500}))
	assert.True(t, retryable(&FetchError{Err: &url.Error{Op: "Get", URL: "x", Err: errors.New("connection reset")}}))
	assert.False(t, retryable(&FetchError{Status: 429}))
	assert.False(t, retryable(&FetchError{Err: &url.Error{Op: "Get", URL: "x", Err: context.Canceled}}))
	assert.False(t, retryable(&FetchError{Err: errors.New("invalid character")}))
}
