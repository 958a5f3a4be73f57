// Package archive implements the rate-limited client for the public-domain
// source archive. It fetches record pages from the search API, normalizes
// multi-valued fields into ingest.BookMetadata, and resolves per-item
// download URLs.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/metrics"
)

const unknownTitle = "Unknown Title"

// Config holds the archive client settings.
type Config struct {
	Name        string
	BaseURL     string
	Query       string
	MinInterval time.Duration // minimum spacing between requests, failed ones included
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // attempts per request
	RetryDelay  time.Duration // base backoff delay for non-429 failures
	HTTPClient  *http.Client  // optional (tests)
}

// Client implements ingest.Source against the archive's search API.
//
// The limiter state is per-instance; two clients pointed at the same archive
// share no pacing and can jointly exceed its quota. Run one client per
// source per process.
type Client struct {
	name        string
	baseURL     string
	query       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  uint
	retryDelay  time.Duration
	minInterval time.Duration
	timeout     time.Duration
	logger      *zap.Logger
}

// New constructs a Client. BaseURL is required.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("archive base URL is required")
	}
	if cfg.Name == "" {
		cfg.Name = "archive"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		name:        cfg.Name,
		baseURL:     cfg.BaseURL,
		query:       cfg.Query,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(limit, 1),
		maxRetries:  uint(cfg.MaxRetries),
		retryDelay:  cfg.RetryDelay,
		minInterval: cfg.MinInterval,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// Name returns the source name used for catalog records and storage paths.
func (c *Client) Name() string {
	return c.name
}

// DownloadURL resolves the PDF download location for an identifier.
func (c *Client) DownloadURL(identifier string) string {
	return fmt.Sprintf("%s/download/%s/%s.pdf", c.baseURL, identifier, identifier)
}

// FetchBatch retrieves one page of records from the search API.
func (c *Client) FetchBatch(ctx context.Context, page ingest.PageOptions) ([]ingest.BookMetadata, error) {
	body, err := c.Get(ctx, c.searchURL(page))
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	books := make([]ingest.BookMetadata, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		book, ok := doc.normalize()
		if !ok {
			c.logger.Warn("dropping record without identifier", zap.String("source", c.name))
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

func (c *Client) searchURL(page ingest.PageOptions) string {
	q := url.Values{}
	q.Set("q", c.query)
	for _, field := range []string{"identifier", "title", "creator", "date", "language", "description"} {
		q.Add("fl[]", field)
	}
	q.Set("rows", strconv.Itoa(page.PageSize))
	q.Set("page", strconv.Itoa(page.Page))
	q.Set("output", "json")
	return c.baseURL + "/advancedsearch.php?" + q.Encode()
}

// Get performs a paced, retried GET and returns the response body. Every
// attempt, failed ones included, consumes a rate-limiter token so attempts
// stay at least MinInterval apart.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.getOnce(ctx, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.LastErrorOnly(true),
		retry.DelayType(c.backoff),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(c.name, waited)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveArchiveRequest(c.name, "error")
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read side only

	metrics.ObserveArchiveRequest(c.name, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{
			code:       resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// backoff picks the delay before the next attempt: the server-provided
// Retry-After (or twice the minimum interval) on 429, exponential backoff
// from the base delay otherwise.
func (c *Client) backoff(n uint, err error, _ *retry.Config) time.Duration {
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusTooManyRequests {
		if se.retryAfter > 0 {
			return se.retryAfter
		}
		return 2 * c.minInterval
	}
	return c.retryDelay << n
}

// statusError carries a non-2xx response status through the retry loop.
type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
