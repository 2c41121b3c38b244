package source

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

// Wikipedia reads the listed-company table from a static Wikipedia page
type Wikipedia struct {
	Config  *config.WikipediaConfig
	Fetcher scraper.Fetcher
}

// NewWikipedia creates a company list source
func NewWikipedia(cfg *config.WikipediaConfig, fetcher scraper.Fetcher) *Wikipedia {
	return &Wikipedia{Config: cfg, Fetcher: fetcher}
}

// List fetches the page and returns one page per company row
func (w *Wikipedia) List(ctx context.Context) ([]models.Page, error) {
	doc, err := fetchDocument(ctx, w.Fetcher, w.Config.URL)
	if err != nil {
		return nil, eris.Wrap(err, "fetch company list")
	}
	return ParseCompanyTable(doc, w.Config.TableSelector, w.Config.URL), nil
}

// ParseCompanyTable reads code, name and sector from the first three cells of
// every non-header row. Rows missing a code or name are skipped.
func ParseCompanyTable(doc *goquery.Document, tableSelector, pageURL string) []models.Page {
	var pages []models.Page
	doc.Find(tableSelector).Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.ChildrenFiltered("td, th")
			if cells.Length() < 3 {
				return
			}
			code := text(cells.Eq(0))
			name := text(cells.Eq(1))
			sector := text(cells.Eq(2))
			if code == "" || name == "" {
				return
			}
			pages = append(pages, models.Page{
				Subject: code,
				URL:     pageURL,
				Fragments: []models.Fragment{
					{Label: "name", Text: name},
					{Label: "sektor", Text: sector},
				},
			})
		})
	})
	return pages
}
