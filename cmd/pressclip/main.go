package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/engine"
	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/storage"
	"github.com/IshaanNene/pressclip/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	outputType string
	limit      int
	useBrowser bool

	// envErr is the result of loading .env, logged once a logger exists.
	envErr error
)

func main() {
	envErr = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pressclip",
		Short: "pressclip — press release clipper",
		Long: `pressclip pulls the latest press releases from a corporate news listing
and writes them as one JSON document for dashboards.

Commands:
  • scrape   discover releases, enrich them from their detail pages, write output
  • radar    render an animated GIF from the newest weather radar sweeps`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(radarCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status. A failed
// listing fetch exits 2; anything else exits 1.
func exitCode(err error) int {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		return 2
	}
	return 1
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the configured news listing",
		Long:  "Fetch the listing page, discover the latest releases, enrich each from its detail page and write the result.",
		Args:  cobra.NoArgs,
		RunE:  runScrape,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of releases (0 = config default)")
	cmd.Flags().BoolVar(&useBrowser, "browser", false, "render the listing in a headless browser")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyScrapeOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		f.Close()
		return fmt.Errorf("create storage: %w", err)
	}

	eng, err := engine.New(cfg, f, store, metrics, logger)
	if err != nil {
		f.Close()
		store.Close()
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("engine close error", "error", err)
		}
	}()

	logger.Info("starting scrape",
		"listing", cfg.Source.ListingURL(),
		"limit", cfg.Heuristics.MaxResults,
		"fetcher", cfg.Fetcher.Type,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	result, runErr := eng.Run(ctx)

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("metrics textfile not written", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("\n✅ Scraped %d releases from %s\n", len(result.Articles), result.Source)
	for i, a := range result.Articles {
		fmt.Printf("   %d. [%s] %s\n", i+1, a.Date, a.Title)
	}
	fmt.Printf("   Output:    %s\n", cfg.Storage.OutputPath)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pressclip %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Source:\n")
			fmt.Printf("  Label:               %s\n", cfg.Source.Label)
			fmt.Printf("  Listing URL:         %s\n", cfg.Source.ListingURL())
			fmt.Printf("\nHeuristics:\n")
			fmt.Printf("  Max Results:         %d\n", cfg.Heuristics.MaxResults)
			fmt.Printf("  Min Title:           %d (association), %d (fallback)\n", cfg.Heuristics.AssociationMinTitle, cfg.Heuristics.FallbackMinTitle)
			fmt.Printf("  Forward Scan:        %d nodes\n", cfg.Heuristics.ForwardScanNodes)
			fmt.Printf("  Ancestor Depth:      %d\n", cfg.Heuristics.AncestorDepth)
			fmt.Printf("  Release Segment:     %s\n", cfg.Heuristics.ReleasePathSegment)
			fmt.Printf("  Release Years:       %v\n", cfg.Heuristics.ReleaseYears)
			fmt.Printf("\nEnrich:\n")
			fmt.Printf("  Min Paragraph:       %d\n", cfg.Enrich.MinParagraphLength)
			fmt.Printf("  Description Max:     %d\n", cfg.Enrich.DescriptionMaxLength)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:                %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:     %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Follow Redirects:    %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:       %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:                %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:         %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  MongoDB:             %v\n", cfg.Storage.MongoDB.Enabled)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:             %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:                %d\n", cfg.Metrics.Port)
			fmt.Printf("  Textfile:            %s\n", cfg.Metrics.TextfilePath)
			fmt.Printf("\nRadar:\n")
			fmt.Printf("  Endpoint:            %s\n", cfg.Radar.Endpoint)
			fmt.Printf("  Site:                %s\n", cfg.Radar.Site)
			fmt.Printf("  Frames:              %d\n", cfg.Radar.Frames)
			fmt.Printf("  Output:              %s\n", cfg.Radar.Output)
			return nil
		},
	}
}

// setupLogger creates a structured logger on stderr.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)

	if envErr != nil {
		logger.Debug(".env not loaded", "error", envErr)
	}
	return logger
}

// applyScrapeOverrides applies command-line flag values to the config.
func applyScrapeOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if limit > 0 {
		cfg.Heuristics.MaxResults = limit
	}
	if useBrowser {
		cfg.Fetcher.Type = "browser"
	}
}
