package cli

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"github.com/williampepple1/listing-scraper/internal/io"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/internal/source"
)

var (
	mapsScrolls   int
	mapsNoDetails bool
)

var mapsCmd = &cobra.Command{
	Use:   "maps <query>",
	Short: "Export places from a rendered maps search",
	Long: `Open a maps search in headless Chrome, scroll the result feed to load more
places, and export what the result cards and place panels show. Card text is
unlabelled, so rating, address and category are inferred from its shape.

Example:
  scraper maps "restoran bandung" --scrolls 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMaps,
}

func init() {
	rootCmd.AddCommand(mapsCmd)

	mapsCmd.Flags().IntVar(&mapsScrolls, "scrolls", 0, "times to scroll the result feed (default from config)")
	mapsCmd.Flags().BoolVar(&mapsNoDetails, "no-details", false, "skip opening each place panel")
}

func runMaps(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("scrolls") {
		cfg.Sources.Maps.Scrolls = mapsScrolls
	}
	if mapsNoDetails {
		cfg.Sources.Maps.Details = false
	}
	query := strings.Join(args, " ")

	browser, err := scraper.NewBrowser(cfg, log)
	if err != nil {
		return err
	}
	defer browser.Close()

	ctx, cancel := signalContext()
	defer cancel()

	pages, err := source.NewMaps(&cfg.Sources.Maps, browser, log).Search(ctx, query)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return eris.Errorf("no places found for %q", query)
	}

	records, err := extraction.NewExtractor(cfg.Extraction, log).ExtractAll(pages)
	if err != nil {
		return err
	}
	path, err := io.NewResultWriter(&cfg.IO, log).SaveToFile(records, io.MapsColumns, "data_maps")
	if err != nil {
		return err
	}
	log.Infof("saved %d places to %s", len(records), path)
	return nil
}
