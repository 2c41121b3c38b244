package scraper

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// HostLimiter paces requests per host
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
}

// NewHostLimiter allows one request per interval to each host.
// A non-positive interval disables limiting.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until the URL's host may be requested again
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrapf(redactURLError(err), "parse url %q", redactQuery(rawURL))
	}
	return l.get(parsed.Host).Wait(ctx)
}

func (l *HostLimiter) get(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.limit, 1)
		l.limiters[host] = limiter
	}
	return limiter
}
