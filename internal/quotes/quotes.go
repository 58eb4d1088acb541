// Package quotes fetches motivational quotes from a zenquotes-compatible API.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appLog "dayboard/internal/log"
)

const (
	DefaultURL = "https://zenquotes.io/api/quotes"
	DefaultTTL = time.Hour
)

// Quote is the dashboard-facing shape of one quote.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// upstreamQuote is what zenquotes returns.
type upstreamQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Client fetches quotes from one endpoint. Fresh results live in a
// TTL-bounded cache; the last good list outlives it as a fallback.
type Client struct {
	url    string
	client *http.Client
	ttl    time.Duration
	fresh  *expirable.LRU[string, []Quote]

	fetchM    sync.Mutex
	stale     []Quote
	fetchedAt time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.client = c } }
func WithTTL(d time.Duration) Option { return func(cl *Client) { cl.ttl = d } }

func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		return nil, fmt.Errorf("quotes: ttl must be positive, got %s", c.ttl)
	}
	c.fresh = expirable.NewLRU[string, []Quote](1, nil, c.ttl)
	return c, nil
}

// Quotes returns cached quotes while fresh. On upstream failure the last
// good list is served instead of an error.
func (c *Client) Quotes(ctx context.Context) ([]Quote, error) {
	if hit, ok := c.fresh.Get(c.url); ok {
		return hit, nil
	}

	// One upstream request at a time; zenquotes rate-limits aggressively.
	c.fetchM.Lock()
	defer c.fetchM.Unlock()
	if hit, ok := c.fresh.Get(c.url); ok {
		return hit, nil
	}

	quotes, err := c.fetch(ctx)
	if err != nil {
		if c.stale != nil {
			appLog.Error("quotes fetch failed, serving stale", err, "age", time.Since(c.fetchedAt).String())
			return c.stale, nil
		}
		return nil, err
	}
	c.stale, c.fetchedAt = quotes, time.Now()
	c.fresh.Add(c.url, quotes)
	return quotes, nil
}

func (c *Client) fetch(ctx context.Context) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("quotes: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quotes: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quotes: unexpected status %s", resp.Status)
	}

	var raw []upstreamQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("quotes: decode: %w", err)
	}

	out := make([]Quote, 0, len(raw))
	for _, q := range raw {
		if q.Q == "" {
			continue
		}
		out = append(out, Quote{Text: q.Q, Author: q.A})
	}
	appLog.Debug("quotes fetched", "count", len(out))
	return out, nil
}
