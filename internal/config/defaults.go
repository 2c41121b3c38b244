package config

import (
	"time"

	"github.com/williampepple1/listing-scraper/internal/extraction"
)

// DefaultUserAgents provides a list of common user agents
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Default returns a configuration that runs every source against its public site
func Default() *AppConfig {
	return &AppConfig{
		Scraper: ScraperConfig{
			Workers:      3,
			RateLimit:    2 * time.Second,
			MaxRetries:   3,
			RetryDelay:   2 * time.Second,
			Timeout:      30 * time.Second,
			UserAgents:   DefaultUserAgents,
			CacheTTL:     10 * time.Minute,
			MaxBodyBytes: 5 << 20,
		},
		IO: IOConfig{
			OutputFormat: "xlsx",
			IDColumn:     "Name",
			IDDelimiter:  "BEI:",
			CodeColumn:   "Code",
		},
		Extraction: extraction.DefaultRules(),
		Proxies: ProxyConfig{
			Rotate: true,
			List:   []string{},
		},
		Browser: BrowserConfig{
			Enabled:       true,
			Headless:      true,
			UserAgent:     DefaultUserAgents[0],
			WaitTime:      2 * time.Second,
			ScreenshotDir: "screenshots",
		},
		Sources: SourcesConfig{
			Wikipedia: WikipediaConfig{
				URL:           "https://id.wikipedia.org/wiki/Daftar_perusahaan_yang_tercatat_di_Bursa_Efek_Indonesia",
				TableSelector: "table.wikitable",
			},
			IDX: IDXConfig{
				ProfileURL:    "https://www.idx.co.id/id/perusahaan-tercatat/profil-perusahaan-tercatat/%s/",
				WaitSelector:  ".container",
				FollowWebsite: true,
			},
			Places: PlacesConfig{
				SearchEndpoint:  "https://maps.googleapis.com/maps/api/place/textsearch/json",
				DetailsEndpoint: "https://maps.googleapis.com/maps/api/place/details/json",
				Location:        "-6.9990899,107.6311617",
				Radius:          5000,
				PageDelay:       2 * time.Second,
				DetailDelay:     200 * time.Millisecond,
				Details:         true,
			},
			Maps: MapsConfig{
				SearchURL:      "https://www.google.com/maps/search/%s",
				FeedSelector:   `[role="feed"]`,
				CardSelector:   `[role="feed"] [role="article"]`,
				LinkSelector:   `a[class*="hfpxzc"]`,
				NameSelector:   `[class*="fontHeadlineSmall"]`,
				DetailSelector: `[class*="fontBodyMedium"]`,
				PanelSelector:  `[role="main"]`,
				ButtonSelector: `button[aria-label]`,
				Scrolls:        3,
				ScrollDelay:    2 * time.Second,
				Details:        true,
			},
		},
	}
}
