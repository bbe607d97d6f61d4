// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package graph provides a client for a Teams channel via the Microsoft
// Graph API: paginated channel message listing plus a per-thread reply
// sub-fetch, with retry and rate-limit handling.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/distill/retry"
)

// DefaultBaseURL is the root of the Graph API. The beta endpoint is required
// because channel message listing is not available on v1.0 with the filters
// this client needs.
const DefaultBaseURL = "https://graph.microsoft.com/beta"

var (
	// ErrAuthentication indicates an expired or invalid access token.
	// It is always fatal and aborts the run.
	ErrAuthentication = errors.New("graph authentication failed")

	// ErrAccessTokenRequired is returned when no access token is configured.
	ErrAccessTokenRequired = errors.New("access token required")

	// ErrChannelRequired is returned when the group or channel ID is missing.
	ErrChannelRequired = errors.New("group id and channel id required")
)

// Config holds the settings for a channel client.
type Config struct {
	// BaseURL is the Graph API root. Defaults to DefaultBaseURL.
	BaseURL string

	// AccessToken is the bearer token for all requests.
	AccessToken string

	// GroupID identifies the team that owns the channel.
	GroupID string

	// ChannelID identifies the channel to read.
	ChannelID string

	// PageSize is the requested page size for message listing.
	// Defaults to 50.
	PageSize int

	// ReplyWorkers bounds the number of in-flight reply sub-requests.
	// Defaults to 4. Output ordering is preserved regardless.
	ReplyWorkers int

	// Retry is the policy applied to every page and reply request.
	Retry retry.Policy
}

// Normalize fills in defaults for unset optional fields.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.ReplyWorkers <= 0 {
		c.ReplyWorkers = 4
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = retry.DefaultPolicy()
	}
}

// Validate checks that the configuration is complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.AccessToken == "" {
		return ErrAccessTokenRequired
	}
	if c.GroupID == "" || c.ChannelID == "" {
		return ErrChannelRequired
	}
	return nil
}

// Client reads channel messages and their reply threads.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// NewClient creates a channel client. A nil httpClient gets a default with
// a request-level timeout.
func NewClient(httpClient *http.Client, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     slog.Default().With("component", "graph-client"),
	}, nil
}

// Threads fetches every channel message created on or after since, following
// pagination until the API reports no further pages, then fetches each
// message's replies. The returned threads preserve the API's message order;
// replies within a thread are sorted chronologically.
//
// A zero since disables date filtering. Callers that want calendar-day
// semantics should pass midnight UTC of the bound date.
//
// Reply fetch failures skip the affected thread (recorded in Stats);
// authentication failures abort immediately.
func (c *Client) Threads(ctx context.Context, since time.Time) ([]Thread, *Stats, error) {
	stats := &Stats{}

	roots, err := c.listMessages(ctx, since, stats)
	if err != nil {
		return nil, stats, err
	}

	c.logger.Info("channel messages listed",
		"pages", stats.Pages,
		"messages", stats.Messages,
		"filtered", stats.Filtered,
		"threads", len(roots))

	threads, err := c.fetchThreadReplies(ctx, roots, stats)
	if err != nil {
		return nil, stats, err
	}

	return threads, stats, nil
}

// listMessages pages through the channel messages endpoint.
func (c *Client) listMessages(ctx context.Context, since time.Time, stats *Stats) ([]Message, error) {
	var roots []Message

	first := fmt.Sprintf("%s/teams/%s/channels/%s/messages", c.cfg.BaseURL, c.cfg.GroupID, c.cfg.ChannelID)
	for nextURL := first; nextURL != ""; {
		var page *messagesPage
		err := retry.Do(ctx, c.cfg.Retry, func() error {
			var opErr error
			page, opErr = c.fetchPage(ctx, nextURL)
			return opErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch channel page %d: %w", stats.Pages+1, err)
		}

		stats.Pages++
		for i := range page.Value {
			stats.Messages++
			msg := &page.Value[i]

			// The messages endpoint does not support a createdDateTime
			// filter, so the date bound is applied client-side.
			if !since.IsZero() && msg.CreatedDateTime.Before(since) {
				stats.Filtered++
				continue
			}
			roots = append(roots, msg.toMessage())
		}

		nextURL = page.NextLink
	}

	return roots, nil
}

// fetchThreadReplies fetches each root's reply collection with a bounded
// worker pool. Results are reassembled in original request order, not
// completion order.
func (c *Client) fetchThreadReplies(ctx context.Context, roots []Message, stats *Stats) ([]Thread, error) {
	if len(roots) == 0 {
		return []Thread{}, nil
	}

	pool, err := ants.NewPool(c.cfg.ReplyWorkers)
	if err != nil {
		return nil, fmt.Errorf("create reply worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]Message, len(roots))
	failures := make([]error, len(roots))

	var wg sync.WaitGroup
	for i := range roots {
		idx := i
		messageID := roots[i].ID

		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			results[idx], failures[idx] = c.replies(ctx, messageID)
		}); submitErr != nil {
			wg.Done()
			failures[idx] = submitErr
		}
	}
	wg.Wait()

	threads := make([]Thread, 0, len(roots))
	for i := range roots {
		if failures[i] != nil {
			// Bad credentials surface on any request; no point continuing
			if errors.Is(failures[i], ErrAuthentication) {
				return nil, failures[i]
			}

			stats.SkippedThreads++
			c.logger.Warn("skipping thread: reply fetch failed",
				"message_id", roots[i].ID,
				"err", failures[i])
			continue
		}

		threads = append(threads, Thread{Message: roots[i], Replies: results[i]})
	}

	return threads, nil
}

// replies fetches all pages of one message's reply collection.
func (c *Client) replies(ctx context.Context, messageID string) ([]Message, error) {
	out := []Message{}

	first := fmt.Sprintf("%s/teams/%s/channels/%s/messages/%s/replies",
		c.cfg.BaseURL, c.cfg.GroupID, c.cfg.ChannelID, messageID)
	for nextURL := first; nextURL != ""; {
		var page *messagesPage
		err := retry.Do(ctx, c.cfg.Retry, func() error {
			var opErr error
			page, opErr = c.fetchPage(ctx, nextURL)
			return opErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch replies for message %s: %w", messageID, err)
		}

		for i := range page.Value {
			out = append(out, page.Value[i].toMessage())
		}
		nextURL = page.NextLink
	}

	// The replies endpoint does not guarantee ordering
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// fetchPage issues one GET against a messages or replies URL and classifies
// the response per the fatal/transient taxonomy.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*messagesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Fatal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", fmt.Sprintf("odata.maxpagesize=%d", c.cfg.PageSize))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(resp.Body)
		return nil, retry.Fatal(fmt.Errorf("%w: HTTP %d: %s", ErrAuthentication, resp.StatusCode, string(body)))

	case resp.StatusCode == http.StatusTooManyRequests:
		throttled := fmt.Errorf("graph API throttled (HTTP 429)")
		if hint := retryAfterHint(resp); hint > 0 {
			return nil, retry.After(throttled, hint)
		}
		return nil, throttled

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("graph API returned HTTP %d", resp.StatusCode)

	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, retry.Fatal(fmt.Errorf("graph API returned HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var page messagesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode messages page: %w", err)
	}

	return &page, nil
}

// retryAfterHint extracts a wait duration from a Retry-After header.
// Returns 0 when the header is absent or unparsable.
func retryAfterHint(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}

	// HTTP-date form
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
