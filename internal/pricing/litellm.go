package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// DefaultLiteLLMURL is the upstream model-pricing feed.
const DefaultLiteLLMURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// DefaultFeedRefresh is how long a fetched feed snapshot stays fresh.
const DefaultFeedRefresh = 1 * time.Hour

// TokenCost is per-token pricing from a dynamic source. A zero field means the
// source had no value for it; callers apply their own fallbacks.
type TokenCost struct {
	InputPerTok         float64
	OutputPerTok        float64
	CacheCreatePerTok   float64
	CacheCreate1hPerTok float64
	CacheReadPerTok     float64
}

// Source provides per-token pricing from an external, potentially
// time-varying feed. Implementations must treat "model not found" as a normal
// outcome, not an error.
type Source interface {
	TokenCost(ctx context.Context, model string) (TokenCost, bool)
}

// LiteLLMClient fetches the LiteLLM pricing feed and resolves per-token costs
// from it. The feed is cached in memory and refreshed lazily; a fetch failure
// falls back to the last good snapshot, or reports the model as unavailable
// so the caller can use static pricing.
type LiteLLMClient struct {
	url        string
	httpClient *http.Client
	offline    bool
	refresh    time.Duration

	mu      sync.RWMutex
	feed    []byte
	fetched time.Time
}

// LiteLLMOption configures the LiteLLMClient.
type LiteLLMOption func(*LiteLLMClient)

// WithFeedURL overrides the feed URL (used by tests).
func WithFeedURL(url string) LiteLLMOption {
	return func(c *LiteLLMClient) {
		c.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) LiteLLMOption {
	return func(c *LiteLLMClient) {
		c.httpClient = hc
	}
}

// WithOffline disables network fetches entirely. Every lookup reports
// unavailable and the resolver uses static pricing.
func WithOffline(offline bool) LiteLLMOption {
	return func(c *LiteLLMClient) {
		c.offline = offline
	}
}

// WithFeedRefresh sets how long a fetched snapshot stays fresh.
func WithFeedRefresh(d time.Duration) LiteLLMOption {
	return func(c *LiteLLMClient) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// NewLiteLLMClient creates a feed-backed price source.
func NewLiteLLMClient(opts ...LiteLLMOption) *LiteLLMClient {
	c := &LiteLLMClient{
		url:        DefaultLiteLLMURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		refresh:    DefaultFeedRefresh,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenCost resolves per-token pricing for a model from the feed.
// Returns false when the feed is unavailable or has no entry for the model.
func (c *LiteLLMClient) TokenCost(ctx context.Context, model string) (TokenCost, bool) {
	if c.offline {
		return TokenCost{}, false
	}

	feed, err := c.snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Str("url", c.url).Msg("pricing: feed fetch failed, using static pricing")
		return TokenCost{}, false
	}

	entry := gjson.GetBytes(feed, escapeGJSONPath(model))
	if !entry.Exists() {
		return TokenCost{}, false
	}

	tc := TokenCost{
		InputPerTok:         entry.Get("input_cost_per_token").Float(),
		OutputPerTok:        entry.Get("output_cost_per_token").Float(),
		CacheCreatePerTok:   entry.Get("cache_creation_input_token_cost").Float(),
		CacheCreate1hPerTok: entry.Get("cache_creation_input_token_cost_above_1hr").Float(),
		CacheReadPerTok:     entry.Get("cache_read_input_token_cost").Float(),
	}
	if tc.InputPerTok == 0 && tc.OutputPerTok == 0 {
		// Entry exists but carries no usable costs (context-window-only rows).
		return TokenCost{}, false
	}
	return tc, true
}

// snapshot returns a fresh-enough copy of the feed, fetching if needed.
func (c *LiteLLMClient) snapshot(ctx context.Context) ([]byte, error) {
	c.mu.RLock()
	feed, fetched := c.feed, c.fetched
	c.mu.RUnlock()

	if feed != nil && time.Since(fetched) < c.refresh {
		return feed, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		if feed != nil {
			// Stale beats nothing.
			return feed, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.feed = fresh
	c.fetched = time.Now()
	c.mu.Unlock()

	return fresh, nil
}

func (c *LiteLLMClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("pricing feed: invalid JSON")
	}
	return body, nil
}

// escapeGJSONPath escapes path metacharacters so a model ID with dots or
// wildcards is treated as a literal top-level key.
func escapeGJSONPath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
