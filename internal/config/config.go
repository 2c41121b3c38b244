package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration
type AppConfig struct {
	Scraper    ScraperConfig    `yaml:"scraper"`
	IO         IOConfig         `yaml:"io"`
	Extraction extraction.Rules `yaml:"extraction"`
	Proxies    ProxyConfig      `yaml:"proxies"`
	Browser    BrowserConfig    `yaml:"browser"`
	Sources    SourcesConfig    `yaml:"sources"`
}

// ScraperConfig holds the fetch and worker configuration
type ScraperConfig struct {
	Workers       int           `yaml:"workers"`
	RateLimit     time.Duration `yaml:"rate_limit"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgents    []string      `yaml:"user_agents,omitempty"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RespectRobots bool          `yaml:"respect_robots"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
}

// IOConfig holds the input/output configuration
type IOConfig struct {
	InputFile    string `yaml:"input_file"`
	OutputFile   string `yaml:"output_file"`
	OutputFormat string `yaml:"output_format"`
	IDColumn     string `yaml:"id_column"`
	IDDelimiter  string `yaml:"id_delimiter"`
	CodeColumn   string `yaml:"code_column"`
}

// ProxyConfig holds the proxy configuration
type ProxyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Rotate  bool     `yaml:"rotate"`
	List    []string `yaml:"list"`
	Auth    struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
}

// BrowserConfig holds the browser configuration for JavaScript rendering
type BrowserConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Headless      bool          `yaml:"headless"`
	UserAgent     string        `yaml:"user_agent"`
	WaitTime      time.Duration `yaml:"wait_time"`
	Screenshot    bool          `yaml:"screenshot"`
	ScreenshotDir string        `yaml:"screenshot_dir"`
}

// SourcesConfig groups the per-site settings
type SourcesConfig struct {
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	IDX       IDXConfig       `yaml:"idx"`
	Places    PlacesConfig    `yaml:"places"`
	Maps      MapsConfig      `yaml:"maps"`
}

// WikipediaConfig points at the listed-company table
type WikipediaConfig struct {
	URL           string `yaml:"url"`
	TableSelector string `yaml:"table_selector"`
}

// IDXConfig describes the rendered company profile pages.
// ProfileURL contains a single %s replaced by the ticker code.
type IDXConfig struct {
	ProfileURL    string `yaml:"profile_url"`
	WaitSelector  string `yaml:"wait_selector"`
	FollowWebsite bool   `yaml:"follow_website"`
}

// PlacesConfig holds the places API settings
type PlacesConfig struct {
	APIKey          string        `yaml:"api_key"`
	SearchEndpoint  string        `yaml:"search_endpoint"`
	DetailsEndpoint string        `yaml:"details_endpoint"`
	Location        string        `yaml:"location"`
	Radius          int           `yaml:"radius"`
	PageDelay       time.Duration `yaml:"page_delay"`
	DetailDelay     time.Duration `yaml:"detail_delay"`
	Details         bool          `yaml:"details"`
}

// MapsConfig holds the selectors for the rendered maps search
type MapsConfig struct {
	SearchURL      string        `yaml:"search_url"`
	FeedSelector   string        `yaml:"feed_selector"`
	CardSelector   string        `yaml:"card_selector"`
	LinkSelector   string        `yaml:"link_selector"`
	NameSelector   string        `yaml:"name_selector"`
	DetailSelector string        `yaml:"detail_selector"`
	PanelSelector  string        `yaml:"panel_selector"`
	ButtonSelector string        `yaml:"button_selector"`
	Scrolls        int           `yaml:"scrolls"`
	ScrollDelay    time.Duration `yaml:"scroll_delay"`
	Details        bool          `yaml:"details"`
}

// Load loads the configuration from a YAML file on top of the defaults
func Load(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", filename)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "parse config %s", filename)
	}

	// Set default user agents if none provided
	if len(cfg.Scraper.UserAgents) == 0 {
		cfg.Scraper.UserAgents = DefaultUserAgents
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config %s", filename)
	}
	return cfg, nil
}

// Validate rejects configurations the scraper cannot run with
func (c *AppConfig) Validate() error {
	if c.Scraper.Workers <= 0 {
		return eris.New("scraper.workers must be positive")
	}
	if c.Scraper.Timeout <= 0 {
		return eris.New("scraper.timeout must be positive")
	}
	if c.Scraper.MaxRetries < 0 {
		return eris.New("scraper.max_retries must not be negative")
	}
	switch strings.ToLower(c.IO.OutputFormat) {
	case "xlsx", "csv", "json":
	default:
		return eris.Errorf("unsupported output format: %s", c.IO.OutputFormat)
	}
	if c.Sources.IDX.ProfileURL != "" && strings.Count(c.Sources.IDX.ProfileURL, "%s") != 1 {
		return eris.New("sources.idx.profile_url must contain exactly one %s")
	}
	if err := c.Extraction.Validate(); err != nil {
		return eris.Wrap(err, "extraction")
	}
	return nil
}
