package cli

import (
	"github.com/spf13/cobra"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"github.com/williampepple1/listing-scraper/internal/io"
	"github.com/williampepple1/listing-scraper/internal/scraper"
	"github.com/williampepple1/listing-scraper/internal/source"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Export the listed-company table",
	Long: `Fetch the listed-company table from Wikipedia and export code, name and
sector per company. The CSV written by default is a valid --input for the
profiles command.

Example:
  scraper companies
  scraper companies -o companies.xlsx --format xlsx`,
	Args: cobra.NoArgs,
	RunE: runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") && cfg.IO.OutputFile == "" {
		cfg.IO.OutputFormat = "csv"
	}

	ctx, cancel := signalContext()
	defer cancel()

	client := scraper.NewHTTPClient(cfg, log)
	defer client.Close()

	wiki := source.NewWikipedia(&cfg.Sources.Wikipedia, client)
	log.Infof("fetching company list from %s", cfg.Sources.Wikipedia.URL)
	pages, err := wiki.List(ctx)
	if err != nil {
		return err
	}

	records, err := extraction.NewExtractor(cfg.Extraction, log).ExtractAll(pages)
	if err != nil {
		return err
	}
	log.Infof("found %d companies", len(records))

	path, err := io.NewResultWriter(&cfg.IO, log).SaveToFile(records, io.CompanyColumns, "daftar_perusahaan_idx")
	if err != nil {
		return err
	}
	log.Infof("saved %d companies to %s", len(records), path)
	return nil
}
