package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	// maxPages caps the pagination loop; the feed contract has no iteration
	// bound of its own.
	maxPages = 400
)

// HTTPClient talks to the order feed over HTTP with cursor pagination.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	pageHook   func(resource string)
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithPageHook registers a callback invoked once per fetched page, used to
// feed the page counter metric.
func WithPageHook(hook func(resource string)) Option {
	return func(h *HTTPClient) { h.pageHook = hook }
}

// NewHTTPClient constructs a feed client for the given base URL.
func NewHTTPClient(baseURL, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ordersPage struct {
	Orders     []OrderRecord `json:"orders"`
	NextCursor string        `json:"nextCursor"`
	HasMore    bool          `json:"hasMore"`
}

type refundsPage struct {
	Refunds    []RefundRecord `json:"refunds"`
	NextCursor string         `json:"nextCursor"`
	HasMore    bool           `json:"hasMore"`
}

// FetchOrders paginates the order collection for [from, to] inclusive and
// concatenates all pages in arrival order.
func (c *HTTPClient) FetchOrders(ctx context.Context, from, to time.Time, opts FetchOptions) ([]OrderRecord, error) {
	params := url.Values{}
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", ExclusiveEnd(to).Format(time.RFC3339))
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}

	var orders []OrderRecord
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, ErrPageLimit
		}
		var body ordersPage
		if err := c.fetchPage(ctx, "/api/orders", params, cursor, &body); err != nil {
			return nil, err
		}
		if c.pageHook != nil {
			c.pageHook("orders")
		}
		for _, o := range body.Orders {
			if opts.Filter != nil && !opts.Filter(o) {
				continue
			}
			orders = append(orders, o)
		}
		if !body.HasMore {
			return orders, nil
		}
		cursor = body.NextCursor
	}
}

// FetchRefunds paginates refunds whose own timestamp falls inside the window.
// The server filters by refund status; the window check on processedAt is
// applied here because a refund can be dated outside its order's window.
func (c *HTTPClient) FetchRefunds(ctx context.Context, from, to time.Time) ([]RefundRecord, error) {
	until := ExclusiveEnd(to)
	params := url.Values{}
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", until.Format(time.RFC3339))
	params.Set("status", "refunded,partially_refunded")

	var refunds []RefundRecord
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, ErrPageLimit
		}
		var body refundsPage
		if err := c.fetchPage(ctx, "/api/refunds", params, cursor, &body); err != nil {
			return nil, err
		}
		if c.pageHook != nil {
			c.pageHook("refunds")
		}
		for _, r := range body.Refunds {
			if r.ProcessedAt.Before(from.UTC()) || !r.ProcessedAt.Before(until) {
				continue
			}
			refunds = append(refunds, r)
		}
		if !body.HasMore {
			return refunds, nil
		}
		cursor = body.NextCursor
	}
}

func (c *HTTPClient) fetchPage(ctx context.Context, path string, base url.Values, cursor string, dest any) error {
	params := url.Values{}
	for k, vs := range base {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("limit", fmt.Sprint(PageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed: fetch %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("feed: fetch %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("feed: decode %s page: %w", path, err)
	}
	return nil
}
