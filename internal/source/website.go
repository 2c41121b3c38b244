package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/scraper"
)

// LinkCollector gathers the anchors of a company website
type LinkCollector struct {
	Fetcher scraper.Fetcher
}

// NewLinkCollector creates a link collector
func NewLinkCollector(fetcher scraper.Fetcher) *LinkCollector {
	return &LinkCollector{Fetcher: fetcher}
}

// Links fetches website and returns its absolute anchor URLs.
// Bare host names such as "www.example.co.id" are treated as https.
func (c *LinkCollector) Links(ctx context.Context, website string) ([]string, error) {
	target := WebsiteURL(website)
	if target == "" {
		return nil, nil
	}
	doc, err := fetchDocument(ctx, c.Fetcher, target)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch website %s", target)
	}
	return collectLinks(doc.Selection, target), nil
}

// WebsiteURL turns a website field value into a fetchable URL
func WebsiteURL(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	lower := strings.ToLower(website)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return website
	}
	return "https://" + strings.TrimPrefix(website, "//")
}
