package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// APIVersion is the dated API version used when none is configured
	APIVersion = "2021-10-21"
)

// Options configures a Client
type Options struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	// UseCDN sends queries to the cached API CDN. Mutations always use the live API.
	UseCDN bool
	// BaseURL replaces both API hosts
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a Sanity HTTP API client
type Client struct {
	opts       Options
	httpClient *http.Client
}

// NewClient creates a new Sanity client
func NewClient(opts Options) *Client {
	if opts.APIVersion == "" {
		opts.APIVersion = APIVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{opts: opts, httpClient: httpClient}
}

// APIError represents an error from the Sanity API
type APIError struct {
	StatusCode  int
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("sanity: %s (status %d)", e.Description, e.StatusCode)
	}
	return fmt.Sprintf("sanity: status %d", e.StatusCode)
}

func (c *Client) baseURL(cdn bool) string {
	if c.opts.BaseURL != "" {
		return strings.TrimRight(c.opts.BaseURL, "/")
	}
	host := "api.sanity.io"
	if cdn {
		host = "apicdn.sanity.io"
	}
	return fmt.Sprintf("https://%s.%s", c.opts.ProjectID, host)
}

func (c *Client) endpoint(cdn bool, kind string) string {
	return fmt.Sprintf("%s/v%s/data/%s/%s", c.baseURL(cdn), c.opts.APIVersion, kind, c.opts.Dataset)
}

// Query runs a GROQ query and decodes its result into out. Params are
// bound as $name and JSON encoded.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode parameter %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	// Authenticated requests bypass the CDN cache.
	cdn := c.opts.UseCDN && c.opts.Token == ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(cdn, "query")+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result: %w", err)
	}
	return nil
}

// Create creates a document and returns its id
func (c *Client) Create(ctx context.Context, doc map[string]any) (string, error) {
	body, err := json.Marshal(map[string]any{
		"mutations": []map[string]any{{"create": doc}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal mutation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(false, "mutate")+"?returnIds=true", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		TransactionID string `json:"transactionId"`
		Results       []struct {
			ID        string `json:"id"`
			Operation string `json:"operation"`
		} `json:"results"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("mutation %s returned no document id", resp.TransactionID)
	}
	return resp.Results[0].ID, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &envelope) == nil {
			envelope.Error.StatusCode = resp.StatusCode
			apiErr = &envelope.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
