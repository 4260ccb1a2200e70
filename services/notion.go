package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jomei/notionapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sfkaos/zeke-site/config"
)

// MaxPageSize is the largest page_size the API accepts.
const MaxPageSize = 100

// NotionClient is the read-only subset of the Notion API the site uses.
type NotionClient interface {
	RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error)
	ListBlockChildren(ctx context.Context, blockID string) ([]notionapi.Block, error)
}

type NotionConfig struct {
	APIKey string
	// Timeout bounds one HTTP round trip.
	Timeout time.Duration
	// MaxRetries applies to 5xx and transport failures here and to 429s inside the SDK.
	MaxRetries    int
	RetryWait     time.Duration
	MaxBlockPages int
	HTTPClient    *http.Client
}

// ErrFetch marks every failure at the Notion boundary.
var ErrFetch = errors.New("notion fetch failed")

// FetchError collapses transport, status and decode failures into one type.
type FetchError struct {
	Op     string
	Status int
	Code   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notion %s: http %d %s: %v", e.Op, e.Status, e.Code, e.Err)
	}
	return fmt.Sprintf("notion %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// IsNotFound reports whether err is a 404 from the API. Useful for logging only.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Status == http.StatusNotFound
}

type notionClient struct {
	cfg    NotionConfig
	api    *notionapi.Client
	tracer trace.Tracer
}

// NewNotionClient wraps the Notion SDK with retries, tracing and error mapping.
func NewNotionClient(cfg NotionConfig) (NotionClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Notion API key")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 250 * time.Millisecond
	}
	if cfg.MaxBlockPages <= 0 {
		cfg.MaxBlockPages = 10
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	api := notionapi.NewClient(
		notionapi.Token(strings.TrimSpace(cfg.APIKey)),
		notionapi.WithHTTPClient(httpClient),
		notionapi.WithRetry(cfg.MaxRetries),
	)
	return &notionClient{
		cfg:    cfg,
		api:    api,
		tracer: otel.Tracer("github.com/sfkaos/zeke-site/services/notion"),
	}, nil
}

func (c *notionClient) RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, &FetchError{Op: "retrieve_page", Status: http.StatusNotFound, Err: fmt.Errorf("page id required")}
	}
	return call(ctx, c, "retrieve_page", pageID, func(ctx context.Context) (*notionapi.Page, error) {
		return c.api.Page.Get(ctx, notionapi.PageID(pageID))
	})
}

func (c *notionClient) QueryDatabase(ctx context.Context, databaseID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, &FetchError{Op: "query_database", Err: fmt.Errorf("database id required")}
	}
	req := notionapi.DatabaseQueryRequest{}
	if query != nil {
		req = *query
	}
	if req.PageSize <= 0 || req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}
	return call(ctx, c, "query_database", databaseID, func(ctx context.Context) ([]notionapi.Page, error) {
		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &req)
		if err != nil {
			return nil, err
		}
		return resp.Results, nil
	})
}

func (c *notionClient) ListBlockChildren(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	blockID = strings.TrimSpace(blockID)
	if blockID == "" {
		return nil, &FetchError{Op: "list_block_children", Status: http.StatusNotFound, Err: fmt.Errorf("block id required")}
	}

	var blocks []notionapi.Block
	cursor := notionapi.Cursor("")
	for page := 0; page < c.cfg.MaxBlockPages; page++ {
		resp, err := call(ctx, c, "list_block_children", blockID, func(ctx context.Context) (*notionapi.GetChildrenResponse, error) {
			return c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
				StartCursor: cursor,
				PageSize:    MaxPageSize,
			})
		})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	config.Logger.Warnw("block listing truncated", "blockID", blockID, "pages", c.cfg.MaxBlockPages, "blocks", len(blocks))
	return blocks, nil
}

// call runs one SDK request with retries inside a single span.
func call[T any](ctx context.Context, c *notionClient, op, objectID string, fn func(context.Context) (T, error)) (out T, err error) {
	ctx, span := c.tracer.Start(ctx, "notion."+op, trace.WithAttributes(
		attribute.String("notion.object_id", objectID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryWait
	policy.MaxInterval = 16 * c.cfg.RetryWait

	out, err = backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		fe := toFetchError(op, err)
		if fe.Status != 0 {
			span.SetAttributes(attribute.Int("http.status_code", fe.Status))
		}
		if !retryable(fe) {
			return v, backoff.Permanent(fe)
		}
		return v, fe
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			config.Logger.Warnw("notion request retry",
				"op", op,
				"objectID", objectID,
				"wait", wait.String(),
				"error", err,
			)
		}),
	)
	if err != nil && !errors.Is(err, ErrFetch) {
		// cancellation between attempts surfaces the bare context error
		err = &FetchError{Op: op, Err: err}
	}
	return out, err
}

func toFetchError(op string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return &FetchError{Op: op, Status: apiErr.Status, Code: string(apiErr.Code), Err: err}
	}
	return &FetchError{Op: op, Err: err}
}

// retryable is true for 5xx responses and transport failures that are not cancellations.
func retryable(fe *FetchError) bool {
	if fe.Status >= http.StatusInternalServerError {
		return true
	}
	if fe.Status != 0 {
		return false
	}
	if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.As(fe.Err, &urlErr)
}
