package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

// placesSearchResponse is the subset of the text search reply we read
type placesSearchResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	NextPageToken string        `json:"next_page_token"`
	Results       []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
}

type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Website              string `json:"website"`
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		URL                  string `json:"url"`
	} `json:"result"`
}

// Places pages through a places text search and, optionally, each result's details
type Places struct {
	Config *config.PlacesConfig
	Client JSONGetter
	log    *golog.Logger

	wait func(ctx context.Context, d time.Duration) error
}

// NewPlaces creates a places API source
func NewPlaces(cfg *config.PlacesConfig, client JSONGetter, log *golog.Logger) *Places {
	return &Places{Config: cfg, Client: client, log: log, wait: sleep}
}

// Search returns one page per place matching query. Paging stops at the
// first API error; the places collected so far are returned with it.
func (p *Places) Search(ctx context.Context, query string) ([]models.Page, error) {
	if p.Config.APIKey == "" {
		return nil, eris.New("places api key is not set")
	}

	var pages []models.Page
	token := ""
	for {
		var resp placesSearchResponse
		if err := p.Client.GetJSON(ctx, p.searchURL(query, token), &resp); err != nil {
			return pages, eris.Wrapf(err, "search places %q", query)
		}
		switch resp.Status {
		case "OK":
		case "ZERO_RESULTS":
			return pages, nil
		default:
			return pages, apiError("text search", resp.Status, resp.ErrorMessage)
		}

		for _, place := range resp.Results {
			page := placePage(query, len(pages), place)
			if p.Config.Details && place.PlaceID != "" {
				if err := p.details(ctx, place.PlaceID, &page); err != nil {
					// missing details leave the listing fields intact
					p.log.Warnf("details for %s: %v", place.PlaceID, err)
				}
				if err := p.wait(ctx, p.Config.DetailDelay); err != nil {
					return pages, err
				}
			}
			pages = append(pages, page)
		}
		p.log.Infof("places %q: %d collected", query, len(pages))

		if resp.NextPageToken == "" {
			return pages, nil
		}
		token = resp.NextPageToken
		// the token only becomes valid a moment after it is issued
		if err := p.wait(ctx, p.Config.PageDelay); err != nil {
			return pages, err
		}
	}
}

func (p *Places) details(ctx context.Context, placeID string, page *models.Page) error {
	var resp placeDetailsResponse
	if err := p.Client.GetJSON(ctx, p.detailsURL(placeID), &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return apiError("details", resp.Status, resp.ErrorMessage)
	}
	page.Fragments = append(page.Fragments,
		models.Fragment{Label: "website", Text: resp.Result.Website},
		models.Fragment{Label: "phone", Text: resp.Result.FormattedPhoneNumber},
		models.Fragment{Label: "maps url", Text: resp.Result.URL},
	)
	if resp.Result.Website != "" {
		page.Links = append(page.Links, resp.Result.Website)
	}
	return nil
}

func (p *Places) searchURL(query, pageToken string) string {
	v := url.Values{}
	v.Set("key", p.Config.APIKey)
	if pageToken != "" {
		v.Set("pagetoken", pageToken)
	} else {
		v.Set("query", query)
		if p.Config.Location != "" {
			v.Set("location", p.Config.Location)
		}
		if p.Config.Radius > 0 {
			v.Set("radius", strconv.Itoa(p.Config.Radius))
		}
	}
	return p.Config.SearchEndpoint + "?" + v.Encode()
}

func (p *Places) detailsURL(placeID string) string {
	v := url.Values{}
	v.Set("place_id", placeID)
	v.Set("fields", "website,formatted_phone_number,url")
	v.Set("key", p.Config.APIKey)
	return p.Config.DetailsEndpoint + "?" + v.Encode()
}

func placePage(query string, index int, place placeResult) models.Page {
	subject := place.PlaceID
	if subject == "" {
		subject = fmt.Sprintf("%s#%d", query, index)
	}
	page := models.Page{
		Subject: subject,
		Fragments: []models.Fragment{
			{Label: "name", Text: place.Name},
			{Label: "address", Text: place.FormattedAddress},
			{Label: "category", Text: strings.Join(place.Types, ", ")},
		},
	}
	if place.Rating > 0 {
		page.Fragments = append(page.Fragments, models.Fragment{Label: "rating", Text: strconv.FormatFloat(place.Rating, 'f', -1, 64)})
	}
	if place.UserRatingsTotal > 0 {
		page.Fragments = append(page.Fragments, models.Fragment{Label: "reviews", Text: strconv.Itoa(place.UserRatingsTotal)})
	}
	return page
}

func apiError(call, status, message string) error {
	if message == "" {
		return eris.Errorf("places %s: status %s", call, status)
	}
	return eris.Errorf("places %s: status %s: %s", call, status, message)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
