package cli

import (
	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"github.com/williampepple1/listing-scraper/internal/io"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/internal/source"
	"github.com/williampepple1/listing-scraper/internal/worker"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

var (
	inputFile    string
	profileStart int
	profileLimit int
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Profile listed companies by ticker code",
	Long: `Read ticker codes from a company list and scrape each company's profile
page with a pool of workers. When a profile names a website, its anchors are
scanned for social media links.

Example:
  scraper profiles --input daftar_perusahaan_idx.csv
  scraper profiles --input codes.txt --start 20 --limit 50 -w 4`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.Flags().StringVarP(&inputFile, "input", "i", "", "company list (.csv with a Name or Code column, or one code per line)")
	profilesCmd.Flags().IntVar(&profileStart, "start", 0, "index of the first company to profile")
	profilesCmd.Flags().IntVar(&profileLimit, "limit", 10, "number of companies to profile (0 for all)")
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("input") {
		cfg.IO.InputFile = inputFile
	}

	ids, err := io.NewIdentifierReader(&cfg.IO, log).GetIdentifiers()
	if err != nil {
		return err
	}
	ids = io.Slice(ids, profileStart, profileLimit)
	if len(ids) == 0 {
		return eris.New("no companies to profile")
	}
	log.Infof("profiling %d companies with %d workers", len(ids), cfg.Scraper.Workers)

	fetcher, closeFetcher, err := scraper.New(cfg, log)
	if err != nil {
		return err
	}
	defer closeFetcher()

	ctx, cancel := signalContext()
	defer cancel()

	ex := extraction.NewExtractor(cfg.Extraction, log)
	pool := worker.NewPool(&cfg.Scraper, ex, source.NewIDX(&cfg.Sources.IDX, fetcher), ids, log)
	if cfg.Sources.IDX.FollowWebsite {
		client := scraper.NewHTTPClient(cfg, log)
		defer client.Close()
		pool.Links = source.NewLinkCollector(client)
	}

	var records []*models.Record
	failed := 0
	for _, r := range pool.Run(ctx, ids) {
		if r.Err != "" {
			failed++
			continue
		}
		log.Debugf("%s done in %v (%d fragments dropped)", r.Subject, r.Duration, r.Dropped)
		records = append(records, r.Record)
	}
	logSummary(log, summarize(records), failed)

	if len(records) == 0 {
		return eris.New("no company profiles collected")
	}
	path, err := io.NewResultWriter(&cfg.IO, log).SaveToFile(records, io.ProfileColumns, "idx_companies")
	if err != nil {
		return err
	}
	log.Infof("saved %d profiles to %s", len(records), path)
	return nil
}

// Summary counts how many records carry each field of interest
type Summary struct {
	Total       int
	Sector      int
	Website     int
	SocialLinks int
	Phone       int
}

func summarize(records []*models.Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.Sector != "" {
			s.Sector++
		}
		if r.Website != "" {
			s.Website++
		}
		if len(r.SocialLinks) > 0 {
			s.SocialLinks++
		}
		if r.Phone != "" {
			s.Phone++
		}
	}
	return s
}

func logSummary(log *golog.Logger, s Summary, failed int) {
	log.Infof("profiles: %d collected, %d failed", s.Total, failed)
	log.Infof("  with sector:       %d", s.Sector)
	log.Infof("  with website:      %d", s.Website)
	log.Infof("  with social links: %d", s.SocialLinks)
	log.Infof("  with phone:        %d", s.Phone)
}
