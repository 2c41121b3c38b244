package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/williampepple1/listing-scraper/internal/config"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect scraper configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	Long: `Print the configuration the other commands would run with, after the
config file, SCRAPER_* environment variables and flags are applied.
Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if configUsed != "" {
			fmt.Fprintf(out, "# config file: %s\n", configUsed)
		} else {
			fmt.Fprintln(out, "# no config file found, using defaults")
		}

		data, err := yaml.Marshal(redacted(cfg))
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// redacted returns a copy of cfg with credentials masked
func redacted(cfg *config.AppConfig) *config.AppConfig {
	c := *cfg
	if c.Sources.Places.APIKey != "" {
		c.Sources.Places.APIKey = "********"
	}
	if c.Proxies.Auth.Password != "" {
		c.Proxies.Auth.Password = "********"
	}
	return &c
}
