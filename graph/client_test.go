package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/distill/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGroup   = "group-1"
	testChannel = "channel-1"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		AccessToken:  "test-token",
		GroupID:      testGroup,
		ChannelID:    testChannel,
		ReplyWorkers: 4,
		Retry:        retry.Policy{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond},
	}
}

func wireMessage(id string, createdAt time.Time, body string) map[string]any {
	return map[string]any{
		"id":              id,
		"createdDateTime": createdAt.Format(time.RFC3339),
		"from": map[string]any{
			"user": map[string]any{"id": "u-" + id, "displayName": "user " + id},
		},
		"body": map[string]any{"contentType": "html", "content": body},
	}
}

func writePage(w http.ResponseWriter, next string, msgs ...map[string]any) {
	page := map[string]any{"value": msgs}
	if next != "" {
		page["@odata.nextLink"] = next
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func messagesPath() string {
	return fmt.Sprintf("/teams/%s/channels/%s/messages", testGroup, testChannel)
}

func repliesPath(id string) string {
	return fmt.Sprintf("/teams/%s/channels/%s/messages/%s/replies", testGroup, testChannel, id)
}

func TestThreads_PaginationPreservesOrder(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch {
		case r.URL.Path == messagesPath() && r.URL.Query().Get("page") == "":
			writePage(w, srv.URL+messagesPath()+"?page=2",
				wireMessage("m1", base, "<p>first</p>"),
				wireMessage("m2", base.Add(time.Minute), "<p>second</p>"))
		case r.URL.Path == messagesPath() && r.URL.Query().Get("page") == "2":
			writePage(w, "", wireMessage("m3", base.Add(2*time.Minute), "<p>third</p>"))
		default:
			writePage(w, "") // empty replies for every thread
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), testConfig(srv.URL))
	require.NoError(t, err)

	threads, stats, err := client.Threads(context.Background(), time.Time{})
	require.NoError(t, err)

	require.Len(t, threads, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{
		threads[0].Message.ID, threads[1].Message.ID, threads[2].Message.ID,
	}, "threads must keep original page order across pages")

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 3, stats.Messages)
	assert.Equal(t, 0, stats.SkippedThreads)

	// A thread without replies is still produced, with an empty sequence
	assert.NotNil(t, threads[0].Replies)
	assert.Empty(t, threads[0].Replies)
}

func TestThreads_DateFilterExcludesOlderMessages(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == messagesPath() {
			writePage(w, "",
				wireMessage("old", since.Add(-time.Hour), "<p>old</p>"),
				wireMessage("new", since.Add(time.Hour), "<p>new</p>"))
			return
		}
		writePage(w, "")
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), testConfig(srv.URL))
	require.NoError(t, err)

	threads, stats, err := client.Threads(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, threads, 1)
	assert.Equal(t, "new", threads[0].Message.ID)
	assert.Equal(t, 1, stats.Filtered)
}

func TestThreads_RepliesSortedChronologically(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case messagesPath():
			writePage(w, "", wireMessage("m1", base, "<p>root</p>"))
		case repliesPath("m1"):
			// Server returns replies newest-first
			writePage(w, "",
				wireMessage("r2", base.Add(10*time.Minute), "<p>later</p>"),
				wireMessage("r1", base.Add(5*time.Minute), "<p>earlier</p>"))
		default:
			writePage(w, "")
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), testConfig(srv.URL))
	require.NoError(t, err)

	threads, _, err := client.Threads(context.Background(), time.Time{})
	require.NoError(t, err)

	require.Len(t, threads, 1)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, "r1", threads[0].Replies[0].ID)
	assert.Equal(t, "r2", threads[0].Replies[1].ID)
}

func TestThreads_RateLimitHonorsRetryAfter(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == messagesPath() {
			mu.Lock()
			attempts++
			first := attempts == 1
			mu.Unlock()

			if first {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writePage(w, "", wireMessage("m1", base, "<p>root</p>"))
			return
		}
		writePage(w, "")
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), testConfig(srv.URL))
	require.NoError(t, err)

	start := time.Now()
	threads, _, err := client.Threads(context.Background(), time.Time{})
	require.NoError(t, err, "request must eventually succeed once the throttle clears")

	assert.Len(t, threads, 1)
	assert.GreaterOrEqual(t, time.Since(start), time.Second,
		"retry must wait at least the Retry-After hint")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestThreads_AuthenticationFailureIsFatal(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"InvalidAuthenticationToken"}}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), testConfig(srv.URL))
	require.NoError(t, err)

	_, _, err = client.Threads(context.Background(), time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts, "authentication failures must not be retried")
}

func TestThreads_ReplyFailureSkipsOnlyThatThread(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case messagesPath():
			writePage(w, "",
				wireMessage("good", base, "<p>ok</p>"),
				wireMessage("bad", base.Add(time.Minute), "<p>broken</p>"),
				wireMessage("also-good", base.Add(2*time.Minute), "<p>ok too</p>"))
		case repliesPath("bad"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			writePage(w, "")
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	client, err := NewClient(srv.Client(), cfg)
	require.NoError(t, err)

	threads, stats, err := client.Threads(context.Background(), time.Time{})
	require.NoError(t, err, "a failed thread must not fail the run")

	require.Len(t, threads, 2)
	assert.Equal(t, "good", threads[0].Message.ID)
	assert.Equal(t, "also-good", threads[1].Message.ID)
	assert.Equal(t, 1, stats.SkippedThreads)
}

func TestThreads_TransientServerErrorRetried(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == messagesPath() {
			mu.Lock()
			attempts++
			failing := attempts < 3
			mu.Unlock()

			if failing {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			writePage(w, "", wireMessage("m1", base, "<p>root</p>"))
			return
		}
		writePage(w, "")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	client, err := NewClient(srv.Client(), cfg)
	require.NoError(t, err)

	threads, _, err := client.Threads(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, threads, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestNewClient_Validation(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		_, err := NewClient(nil, Config{GroupID: "g", ChannelID: "c"})
		assert.ErrorIs(t, err, ErrAccessTokenRequired)
	})

	t.Run("missing channel", func(t *testing.T) {
		_, err := NewClient(nil, Config{AccessToken: "t", GroupID: "g"})
		assert.ErrorIs(t, err, ErrChannelRequired)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := Config{AccessToken: "t", GroupID: "g", ChannelID: "c"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, 50, cfg.PageSize)
		assert.Equal(t, 4, cfg.ReplyWorkers)
		assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	})
}

func TestRetryAfterHint(t *testing.T) {
	t.Run("seconds form", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"5"}}}
		assert.Equal(t, 5*time.Second, retryAfterHint(resp))
	})

	t.Run("absent header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		assert.Equal(t, time.Duration(0), retryAfterHint(resp))
	})

	t.Run("garbage header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"soon"}}}
		assert.Equal(t, time.Duration(0), retryAfterHint(resp))
	})
}
