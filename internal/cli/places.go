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
	placesAPIKey    string
	placesNoDetails bool
)

var placesCmd = &cobra.Command{
	Use:   "places <query>",
	Short: "Export places from the places API text search",
	Long: `Page through a places text search around the configured location and
export name, category, address, rating and, unless --no-details is set, the
website, phone and maps link of every result.

The API key comes from --api-key, SCRAPER_PLACES_API_KEY or
sources.places.api_key in the config file.

Example:
  SCRAPER_PLACES_API_KEY=... scraper places "restoran bandung"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlaces,
}

func init() {
	rootCmd.AddCommand(placesCmd)

	placesCmd.Flags().StringVar(&placesAPIKey, "api-key", "", "places API key")
	placesCmd.Flags().BoolVar(&placesNoDetails, "no-details", false, "skip the per-place details call")
}

func runPlaces(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Sources.Places.APIKey = placesAPIKey
	}
	if placesNoDetails {
		cfg.Sources.Places.Details = false
	}
	query := strings.Join(args, " ")

	ctx, cancel := signalContext()
	defer cancel()

	client := scraper.NewHTTPClient(cfg, log)
	defer client.Close()

	places := source.NewPlaces(&cfg.Sources.Places, client, log)
	pages, err := places.Search(ctx, query)
	if err != nil {
		if len(pages) == 0 {
			return err
		}
		log.Errorf("search stopped early: %v", err)
	}
	if len(pages) == 0 {
		return eris.Errorf("no places found for %q", query)
	}

	records, err := extraction.NewExtractor(cfg.Extraction, log).ExtractAll(pages)
	if err != nil {
		return err
	}
	path, err := io.NewResultWriter(&cfg.IO, log).SaveToFile(records, io.PlaceColumns, "data_tempat")
	if err != nil {
		return err
	}
	log.Infof("saved %d places to %s", len(records), path)
	return nil
}
