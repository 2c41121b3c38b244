package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kataras/golog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/logger"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var (
	cfgFile      string
	configUsed   string
	logLevel     string
	outputFile   string
	outputFormat string
	workers      int
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Collect company and place listings into spreadsheets",
	Long: `scraper collects company and place listings from a few web sources
and exports them as xlsx, csv or json.

  companies  listed companies from the Wikipedia table
  profiles   company profiles for a list of ticker codes
  places     places from the places API text search
  maps       places from a rendered maps search

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (SCRAPER_*)
  3. Config file (--config or ~/.scraper/config.yaml)
  4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scraper %s\n", Version)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.scraper/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error, disable")
	flags.StringVarP(&outputFile, "output", "o", "", "output file (default: <prefix>_<timestamp>.<format>)")
	flags.StringVar(&outputFormat, "format", "", "output format: xlsx, csv, json")
	flags.IntVarP(&workers, "workers", "w", 0, "number of concurrent workers")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig locates the config file and binds SCRAPER_* variables
func initConfig() {
	configUsed = ""
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".scraper"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SCRAPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		configUsed = viper.ConfigFileUsed()
	} else if cfgFile != "" {
		// let loadConfig report the real problem
		configUsed = cfgFile
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then environment, then persistent flags.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, *golog.Logger, error) {
	log := logger.New(viper.GetString("log_level"))

	cfg := config.Default()
	if configUsed != "" {
		loaded, err := config.Load(configUsed)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
		log.Debugf("using config file %s", configUsed)
	}

	if key := viper.GetString("places_api_key"); key != "" {
		cfg.Sources.Places.APIKey = key
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.IO.OutputFile = outputFile
	}
	if flags.Changed("format") {
		cfg.IO.OutputFormat = outputFormat
	}
	if flags.Changed("workers") {
		cfg.Scraper.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// signalContext is cancelled on interrupt so workers stop between subjects
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
