package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

// IDX reads listed-company profile pages. The pages are built client side,
// so the fetcher should be a browser when one is available.
type IDX struct {
	Config  *config.IDXConfig
	Fetcher scraper.Fetcher
}

// NewIDX creates a profile source
func NewIDX(cfg *config.IDXConfig, fetcher scraper.Fetcher) *IDX {
	return &IDX{Config: cfg, Fetcher: fetcher}
}

// ProfileURL returns the profile page address for a ticker code
func (s *IDX) ProfileURL(code string) string {
	return fmt.Sprintf(s.Config.ProfileURL, strings.ToUpper(strings.TrimSpace(code)))
}

// Profile fetches the profile of one company
func (s *IDX) Profile(ctx context.Context, code string) (*models.Page, error) {
	target := s.ProfileURL(code)

	var (
		html string
		err  error
	)
	if r, ok := s.Fetcher.(Renderer); ok {
		html, err = r.Render(ctx, target, s.Config.WaitSelector)
	} else {
		html, err = s.Fetcher.FetchHTML(ctx, target)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetch profile %s", code)
	}
	return ParseProfile(code, target, html)
}

// ParseProfile extracts labelled fragments and links from a profile page.
// Two layouts are recognised: detail blocks with .label/.value children and
// plain tables whose first cell is the label.
func ParseProfile(code, pageURL, html string) (*models.Page, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	page := &models.Page{Subject: code, URL: pageURL}

	if name := text(doc.Find(".company-name").First()); name != "" {
		page.Fragments = append(page.Fragments, models.Fragment{Label: "name", Text: name})
	}

	doc.Find(".company-detail").Each(func(_ int, s *goquery.Selection) {
		label := text(s.Find(".label").First())
		value := text(s.Find(".value").First())
		if label == "" && value == "" {
			return
		}
		page.Fragments = append(page.Fragments, models.Fragment{Label: label, Text: value})
	})

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		label := text(cells.Eq(0))
		var value string
		if cells.Length() >= 3 {
			// label | ":" | value
			value = text(cells.Eq(2))
		} else {
			value = text(cells.Last())
		}
		if label == "" {
			return
		}
		page.Fragments = append(page.Fragments, models.Fragment{Label: label, Text: value})
	})

	page.Links = collectLinks(doc.Selection, pageURL)
	return page, nil
}
