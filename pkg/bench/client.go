package bench

import (
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

// Client talks to the REST gateway of a quire server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid target URL scheme: %s (must be http or https)", u.Scheme)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// OffsetPage mirrors the offset-addressed list envelope.
type OffsetPage struct {
	Items       []map[string]interface{} `json:"items"`
	Page        int                      `json:"page"`
	PageSize    int                      `json:"pageSize"`
	TotalPages  int                      `json:"totalPages"`
	TotalCount  *int                     `json:"totalCount"`
	HasNext     bool                     `json:"hasNext"`
	HasPrevious bool                     `json:"hasPrevious"`
}

// Connection mirrors the cursor-addressed list envelope.
type Connection struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"pageInfo"`
}

// Edge is one record with its resume token.
type Edge struct {
	Cursor string                 `json:"cursor"`
	Node   map[string]interface{} `json:"node"`
}

// PageInfo carries the window boundary state.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// RankedList mirrors the search response.
type RankedList struct {
	Hits []RankedHit `json:"hits"`
}

// RankedHit is one scored search result.
type RankedHit struct {
	Score int                    `json:"score"`
	Node  map[string]interface{} `json:"node"`
}

// ListOffset fetches one offset-addressed page.
func (c *Client) ListOffset(ctx context.Context, collection string, page int, params url.Values) (*OffsetPage, error) {
	q := cloneValues(params)
	q.Set("page", strconv.Itoa(page))

	var out OffsetPage
	if err := c.get(ctx, c.collectionPath(collection)+"/records", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListForward fetches one cursor-addressed window. An empty after token
// means the first window.
func (c *Client) ListForward(ctx context.Context, collection, after string, params url.Values) (*Connection, error) {
	q := cloneValues(params)
	if after != "" {
		q.Set("after", after)
	}

	var out Connection
	if err := c.get(ctx, c.collectionPath(collection)+"/records", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs one ranked lookup.
func (c *Client) Search(ctx context.Context, collection, query string, limit int) (*RankedList, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out RankedList
	if err := c.get(ctx, c.collectionPath(collection)+"/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) collectionPath(collection string) string {
	return fmt.Sprintf("%s/api/v1/collections/%s", c.baseURL, url.PathEscape(collection))
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values, result interface{}) error {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func cloneValues(params url.Values) url.Values {
	q := make(url.Values, len(params)+1)
	for key, vals := range params {
		q[key] = append([]string(nil), vals...)
	}
	return q
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}
