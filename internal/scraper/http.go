package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/cache"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/proxy"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// HTTPClient fetches pages over plain HTTP with retries, proxy rotation,
// user agent rotation, per-host pacing and a page cache.
type HTTPClient struct {
	Config  *config.ScraperConfig
	Proxy   *proxy.Manager
	Cache   *cache.Pages
	Limiter *HostLimiter
	Robots  *RobotsChecker
	log     *golog.Logger

	// wait sleeps between attempts; tests replace it
	wait func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates a new HTTP client from the application config
func NewHTTPClient(cfg *config.AppConfig, log *golog.Logger) *HTTPClient {
	c := &HTTPClient{
		Config:  &cfg.Scraper,
		Proxy:   proxy.NewManager(&cfg.Proxies),
		Cache:   cache.NewPages(cfg.Scraper.CacheTTL),
		Limiter: NewHostLimiter(cfg.Scraper.RateLimit),
		log:     log,
		wait:    sleepContext,
	}
	if cfg.Scraper.RespectRobots {
		c.Robots = NewRobotsChecker(&http.Client{Timeout: cfg.Scraper.Timeout}, c.userAgent())
	}
	return c
}

// Close releases pooled connections
func (c *HTTPClient) Close() {
	c.Proxy.CloseIdleConnections()
}

// FetchHTML returns the body of a page as a string
func (c *HTTPClient) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, true)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Document fetches a page and parses it for selector queries
func (c *HTTPClient) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, rawURL, true)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "parse html from %s", rawURL)
	}
	return doc, nil
}

// GetJSON fetches an API response and decodes it into v. Responses are not cached.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.get(ctx, rawURL, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return eris.Wrapf(err, "decode json from %s", redactQuery(rawURL))
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, rawURL string, cacheable bool) ([]byte, error) {
	if cacheable {
		if body, ok := c.Cache.Get(rawURL); ok {
			return body, nil
		}
	}

	if c.Robots != nil {
		allowed, err := c.Robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, eris.Wrap(ErrDisallowed, redactQuery(rawURL))
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			retryWait := c.Config.RetryDelay * time.Duration(attempt)
			c.log.Warnf("retrying %s after %v (attempt %d/%d): %v", redactQuery(rawURL), retryWait, attempt, c.Config.MaxRetries, lastErr)
			if err := c.wait(ctx, retryWait); err != nil {
				return nil, err
			}
		}

		body, err := c.once(ctx, rawURL)
		if err == nil {
			if cacheable {
				c.Cache.Set(rawURL, body)
			}
			return body, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) once(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.Limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	transport, proxyUsed, err := c.Proxy.Transport()
	if err != nil {
		return nil, err
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   c.Config.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrapf(redactURLError(err), "create request for %s", redactQuery(rawURL))
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, redactURLError(err)
	}
	defer resp.Body.Close()

	if proxyUsed != "" {
		c.log.Debugf("fetched %s via %s", redactQuery(rawURL), proxyUsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: redactQuery(rawURL), Code: resp.StatusCode}
	}

	limit := c.Config.MaxBodyBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, eris.Wrapf(err, "read body of %s", redactQuery(rawURL))
	}
	return body, nil
}

func (c *HTTPClient) userAgent() string {
	if len(c.Config.UserAgents) == 0 {
		return config.DefaultUserAgents[0]
	}
	return c.Config.UserAgents[rand.Intn(len(c.Config.UserAgents))]
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// Transport failures surface as *url.Error; a parse failure never heals.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Op != "parse"
	}
	return false
}

// redactURLError strips the query from the URL a *url.Error reports,
// keeping the error type so retry decisions still see it
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactQuery(urlErr.URL)
	}
	return err
}

// redactQuery drops the query string, which carries API keys
func redactQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if before, _, found := strings.Cut(rawURL, "?"); found {
			return before + "?…"
		}
		return rawURL
	}
	if u.RawQuery == "" {
		return rawURL
	}
	u.RawQuery = ""
	return u.String() + "?…"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
