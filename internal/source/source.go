package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/scraper"
)

// Renderer renders a JavaScript page, waiting for a selector first
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string, extra ...chromedp.Action) (string, error)
}

// JSONGetter fetches and decodes an API response
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// documentFetcher is implemented by fetchers that parse pages themselves
type documentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// fetchDocument fetches url and parses it, letting the fetcher parse when it can
func fetchDocument(ctx context.Context, f scraper.Fetcher, url string) (*goquery.Document, error) {
	if df, ok := f.(documentFetcher); ok {
		return df.Document(ctx, url)
	}
	html, err := f.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseHTML(html)
}

// parseHTML builds a goquery document from rendered or fetched HTML
func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}
	return doc, nil
}

// text returns the selection's text with whitespace runs collapsed
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// collectLinks returns every anchor href in sel, resolved against base
func collectLinks(sel *goquery.Selection, base string) []string {
	baseURL, _ := url.Parse(base)

	var links []string
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		if baseURL != nil {
			if ref, err := url.Parse(href); err == nil {
				href = baseURL.ResolveReference(ref).String()
			}
		}
		links = append(links, href)
	})
	return links
}
