package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

// Maps scrapes a rendered maps search. Card details carry no labels, so
// most fragments go through the content classifier.
type Maps struct {
	Config   *config.MapsConfig
	Renderer Renderer
	log      *golog.Logger
}

// NewMaps creates a maps search source
func NewMaps(cfg *config.MapsConfig, r Renderer, log *golog.Logger) *Maps {
	return &Maps{Config: cfg, Renderer: r, log: log}
}

// SearchURL returns the search page address for query
func (m *Maps) SearchURL(query string) string {
	return fmt.Sprintf(m.Config.SearchURL, url.QueryEscape(query))
}

// Search renders the result feed, scrolls it to load more cards, and
// returns one page per card. With details enabled each place is opened and
// its panel buttons are added to the page.
func (m *Maps) Search(ctx context.Context, query string) ([]models.Page, error) {
	html, err := m.Renderer.Render(ctx, m.SearchURL(query), m.Config.FeedSelector,
		scraper.ScrollAction(m.Config.FeedSelector, m.Config.Scrolls, m.Config.ScrollDelay))
	if err != nil {
		return nil, eris.Wrapf(err, "render maps search %q", query)
	}

	pages, err := ParseResults(html, m.Config, query)
	if err != nil {
		return nil, err
	}
	m.log.Infof("maps %q: %d places found", query, len(pages))

	if !m.Config.Details {
		return pages, nil
	}
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if pages[i].URL == "" {
			continue
		}
		m.log.Debugf("opening place %d/%d", i+1, len(pages))
		panel, err := m.Renderer.Render(ctx, pages[i].URL, m.Config.PanelSelector)
		if err != nil {
			m.log.Warnf("place %s: %v", pages[i].Subject, err)
			continue
		}
		frags, links, err := ParsePanel(panel, m.Config, pages[i].URL)
		if err != nil {
			m.log.Warnf("place %s: %v", pages[i].Subject, err)
			continue
		}
		pages[i].Fragments = append(pages[i].Fragments, frags...)
		pages[i].Links = append(pages[i].Links, links...)
	}
	return pages, nil
}

// ParseResults reads the result cards of a rendered search page
func ParseResults(html string, cfg *config.MapsConfig, query string) ([]models.Page, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	doc.Find(cfg.CardSelector).Each(func(i int, card *goquery.Selection) {
		page := models.Page{Subject: fmt.Sprintf("%s#%d", query, i)}

		if name := text(card.Find(cfg.NameSelector).First()); name != "" {
			page.Fragments = append(page.Fragments, models.Fragment{Label: "name", Text: name})
		}
		card.Find(cfg.DetailSelector).Each(func(_ int, detail *goquery.Selection) {
			for _, line := range detailLines(detail) {
				page.Fragments = append(page.Fragments, models.Fragment{Text: line})
			}
		})
		if href := strings.TrimSpace(card.Find(cfg.LinkSelector).First().AttrOr("href", "")); href != "" {
			page.URL = href
			page.Fragments = append(page.Fragments, models.Fragment{Label: "maps url", Text: href})
		}

		if len(page.Fragments) > 0 {
			pages = append(pages, page)
		}
	})
	return pages, nil
}

// ParsePanel turns the buttons of a place panel into labelled fragments.
// Only buttons whose aria-label reads "Label: value" are used; the others
// are actions such as save or share.
func ParsePanel(html string, cfg *config.MapsConfig, pageURL string) ([]models.Fragment, []string, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, nil, err
	}
	panel := doc.Find(cfg.PanelSelector).First()
	if panel.Length() == 0 {
		return nil, nil, eris.Errorf("panel %q not found", cfg.PanelSelector)
	}

	var frags []models.Fragment
	panel.Find(cfg.ButtonSelector).Each(func(_ int, b *goquery.Selection) {
		aria := strings.TrimSpace(b.AttrOr("aria-label", ""))
		label, value, ok := strings.Cut(aria, ":")
		if !ok {
			return
		}
		label = strings.TrimSpace(label)
		content := text(b)
		if content == "" {
			content = strings.TrimSpace(value)
		}
		if label == "" || content == "" {
			return
		}
		frags = append(frags, models.Fragment{Label: label, Text: content})
	})
	return frags, collectLinks(panel, pageURL), nil
}

// detailLines splits a detail block into its visual lines. Cards nest one
// div per line; a block without child divs is a single line.
func detailLines(s *goquery.Selection) []string {
	children := s.ChildrenFiltered("div")
	if children.Length() == 0 {
		if t := text(s); t != "" {
			return []string{t}
		}
		return nil
	}
	var lines []string
	children.Each(func(_ int, c *goquery.Selection) {
		if t := text(c); t != "" {
			lines = append(lines, t)
		}
	})
	return lines
}
