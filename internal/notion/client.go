package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the base URL for the Notion API
	BaseURL = "https://api.notion.com/v1"
	// NotionVersion is the Notion API version
	NotionVersion = "2022-06-28"
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// retryPolicy selects which failures a request may be resent after
type retryPolicy int

const (
	// retryTransient resends after transport errors, 429 and 5xx. Only for
	// requests that are safe to repeat.
	retryTransient retryPolicy = iota
	// retryRateLimited resends after 429 only. A rate-limited request was
	// not applied; after a transport error or 5xx it may have been.
	retryRateLimited
)

// Client is a Notion API client
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	apiVersion string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewClient creates a new Notion API client
func NewClient(token string, opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = BaseURL
	}
	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = NotionVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		token:      token,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// RetrievePage retrieves a page by ID
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+normalizeID(pageID), nil, &page, retryTransient); err != nil {
		return nil, err
	}
	return &page, nil
}

// QueryDatabase runs one query against a database and returns one page of results
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, query *DatabaseQuery) (*PageList, error) {
	if query == nil {
		query = &DatabaseQuery{}
	}
	var list PageList
	if err := c.do(ctx, http.MethodPost, "/databases/"+normalizeID(databaseID)+"/query", query, &list, retryTransient); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreatePage creates a page. It is resent only after a 429, so a create
// that reached Notion is never written twice.
func (c *Client) CreatePage(ctx context.Context, req *CreatePageRequest) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page, retryRateLimited); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage updates the properties of a page. Setting the same
// properties twice is harmless, so transient failures are retried.
func (c *Client) UpdatePage(ctx context.Context, pageID string, req *UpdatePageRequest) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+normalizeID(pageID), req, &page, retryTransient); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListBlockChildren returns one page of the direct children of a block or page
func (c *Client) ListBlockChildren(ctx context.Context, blockID, startCursor string) (*BlockList, error) {
	path := "/blocks/" + normalizeID(blockID) + "/children"
	params := url.Values{}
	params.Set("page_size", "100")
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	var list BlockList
	if err := c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, &list, retryTransient); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListAllBlockChildren follows cursors until every direct child of the block is listed
func (c *Client) ListAllBlockChildren(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		list, err := c.ListBlockChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, list.Results...)
		if !list.HasMore || list.NextCursor == nil || *list.NextCursor == "" {
			return blocks, nil
		}
		cursor = *list.NextCursor
	}
}

// do sends one API request, retrying the failures policy allows, and
// decodes the response body into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any, policy retryPolicy) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if policy == retryTransient && ctx.Err() == nil && attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("failed to send request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
			return nil
		}

		if retryable(policy, resp.StatusCode) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		return &apiErr
	}
}

func retryable(policy retryPolicy, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return policy == retryTransient && status >= 500
}

// setHeaders sets common headers for Notion API requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.apiVersion)
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// normalizeID normalizes a page ID by removing hyphens
func normalizeID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// ExtractID extracts a page or database ID from an ID or a Notion URL
func ExtractID(idOrURL string) string {
	s := strings.TrimSpace(idOrURL)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = normalizeID(s)
	if len(s) > 32 {
		s = s[len(s)-32:]
	}
	return s
}
