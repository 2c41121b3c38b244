package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/logger"
)

func newTestClient(t *testing.T, mutate func(cfg *config.AppConfig)) *HTTPClient {
	t.Helper()
	cfg := config.Default()
	cfg.Scraper.RateLimit = 0
	cfg.Scraper.RetryDelay = time.Millisecond
	cfg.Scraper.Timeout = 5 * time.Second
	if mutate != nil {
		mutate(cfg)
	}
	c := NewHTTPClient(cfg, logger.Discard())
	c.wait = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestHTTPClient_FetchHTML(t *testing.T) {
	var ua atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	html, err := c.FetchHTML(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>OK</body></html>", html)
	assert.Contains(t, config.DefaultUserAgents, ua.Load())
}

func TestHTTPClient_RetriesTransientStatus(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	html, err := c.FetchHTML(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>OK</html>", html)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_PermanentStatusNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	_, err := c.FetchHTML(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, func(cfg *config.AppConfig) { cfg.Scraper.MaxRetries = 2 })
	_, err := c.FetchHTML(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_CachesPages(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = fmt.Fprint(w, "<html><a href='/x'>x</a></html>")
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	for i := 0; i < 3; i++ {
		doc, err := c.Document(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Find("a").Length())
	}
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPClient_GetJSONNotCached(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"OK","n":%d}`, n)
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	var out struct {
		Status string `json:"status"`
		N      int    `json:"n"`
	}
	require.NoError(t, c.GetJSON(context.Background(), server.URL+"?key=secret", &out))
	require.NoError(t, c.GetJSON(context.Background(), server.URL+"?key=secret", &out))
	assert.Equal(t, "OK", out.Status)
	assert.Equal(t, 2, out.N)
}

func TestHTTPClient_GetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL+"?key=secret", &out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestHTTPClient_RobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		_, _ = fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	c := newTestClient(t, func(cfg *config.AppConfig) { cfg.Scraper.RespectRobots = true })

	_, err := c.FetchHTML(context.Background(), server.URL+"/private/page")
	assert.True(t, errors.Is(err, ErrDisallowed))

	html, err := c.FetchHTML(context.Background(), server.URL+"/public")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
}

func TestHTTPClient_InvalidURLNotRetried(t *testing.T) {
	c := newTestClient(t, nil)
	_, err := c.FetchHTML(context.Background(), "http://[::1")
	assert.Error(t, err)
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, nil)
	_, err := c.FetchHTML(ctx, server.URL)
	assert.Error(t, err)
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "https://api.example.com/x?…", redactQuery("https://api.example.com/x?key=abc&q=1"))
	assert.Equal(t, "https://example.com/x", redactQuery("https://example.com/x"))
	assert.Equal(t, "http://[::1?…", redactQuery("http://[::1?key=abc"))
}

func TestHTTPClient_TransportErrorHidesQuery(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot be hijacked")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		_ = conn.Close()
	}))
	defer server.Close()

	c := newTestClient(t, nil)
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL+"?key=SECRETKEY123&query=restoran", &out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")

	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr))
	assert.GreaterOrEqual(t, attempts.Load(), int32(c.Config.MaxRetries+1), "connection failures are still retried")
}

func TestHTTPClient_ErrorsHideQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	c := newTestClient(t, func(cfg *config.AppConfig) { cfg.Scraper.RespectRobots = true })
	_, err := c.FetchHTML(context.Background(), server.URL+"/private/search?key=SECRETKEY123")
	require.True(t, errors.Is(err, ErrDisallowed))
	assert.NotContains(t, err.Error(), "SECRETKEY123")

	_, err = newTestClient(t, nil).FetchHTML(context.Background(), "http://[::1?key=SECRETKEY123")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 500}).Retryable())
	assert.True(t, (&StatusError{Code: 503}).Retryable())
	assert.True(t, (&StatusError{Code: 429}).Retryable())
	assert.False(t, (&StatusError{Code: 404}).Retryable())
	assert.False(t, (&StatusError{Code: 403}).Retryable())
}

func TestHostLimiter(t *testing.T) {
	l := NewHostLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "http://a.example.com/1"))
	require.NoError(t, l.Wait(ctx, "http://b.example.com/1"))
	assert.Less(t, time.Since(start), 40*time.Millisecond, "hosts are paced independently")

	require.NoError(t, l.Wait(ctx, "http://a.example.com/2"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	unlimited := NewHostLimiter(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, unlimited.Wait(ctx, "http://a.example.com"))
	}
}
