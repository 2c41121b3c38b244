package scraper

import (
	"context"

	"github.com/kataras/golog"
	"github.com/williampepple1/listing-scraper/internal/config"
)

// Fetcher returns the HTML of a page
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// New returns the browser when rendering is enabled, otherwise the HTTP client.
// The returned close function releases the browser, if any.
func New(cfg *config.AppConfig, log *golog.Logger) (Fetcher, func(), error) {
	if cfg.Browser.Enabled {
		b, err := NewBrowser(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	c := NewHTTPClient(cfg, log)
	return c, c.Close, nil
}
