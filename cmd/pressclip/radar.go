package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/media"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/radar"
)

// radarDownloadTimeout bounds one archive object download.
const radarDownloadTimeout = 2 * time.Minute

var (
	radarSite   string
	radarFrames int
	radarOutput string
)

// radarCmd creates the "radar" subcommand.
func radarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Render an animated radar loop",
		Long: `List the newest objects for a radar site, download them and encode the
decodable frames as an animated GIF.

Only raster objects (PNG, GIF or JPEG, optionally gzipped) can be decoded.
The default archive (noaa-nexrad-level2, site TOR, suffix .gz) serves Level II
volume scans, which are not images, so a run against the defaults ends with
"no archive objects under prefix" or "no decodable radar frames". Point
radar.endpoint, radar.bucket, radar.site and radar.key_suffix at an archive
that publishes rendered images to get a loop.`,
		Args:  cobra.NoArgs,
		RunE:  runRadar,
	}

	cmd.Flags().StringVar(&radarSite, "site", "", "radar site identifier (e.g. TOR)")
	cmd.Flags().IntVar(&radarFrames, "frames", 0, "number of latest sweeps to include")
	cmd.Flags().StringVarP(&radarOutput, "output", "o", "", "output GIF path")

	return cmd
}

// runRadar executes the radar command.
func runRadar(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRadarOverrides(cfg)

	if err := config.ValidateRadar(cfg.Radar); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	archive, err := radar.NewArchive(cfg.Radar.Endpoint, cfg.Radar.Bucket, f)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics(logger)
	dl := media.NewDownloader(cfg.Radar.TmpDir, cfg.Radar.MaxObjectSize, radarDownloadTimeout, logger)
	loop := radar.NewLoop(cfg.Radar, archive, dl, metrics, logger)

	logger.Info("starting radar loop",
		"site", cfg.Radar.Site,
		"frames", cfg.Radar.Frames,
		"output", cfg.Radar.Output,
	)

	result, runErr := loop.Run(ctx)
	metrics.MarkRun(time.Now(), runErr == nil)

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("metrics textfile not written", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("\n✅ Radar loop saved: %s\n", result.Output)
	fmt.Printf("   Frames:    %d encoded, %d skipped\n", result.Frames, result.Skipped)
	fmt.Printf("   Prefix:    %s\n", result.Prefix)
	return nil
}

// applyRadarOverrides applies command-line flag values to the config.
func applyRadarOverrides(cfg *config.Config) {
	if radarSite != "" {
		cfg.Radar.Site = radarSite
	}
	if radarFrames > 0 {
		cfg.Radar.Frames = radarFrames
	}
	if radarOutput != "" {
		cfg.Radar.Output = radarOutput
	}
}
