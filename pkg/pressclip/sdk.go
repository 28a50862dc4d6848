// Package pressclip provides a public SDK for embedding the press release
// clipper as a library.
//
// Example usage:
//
//	clipper := pressclip.New(
//	    pressclip.WithListing("Toyota Canada Media", "https://media.toyota.ca", "/en/corporateinewsrelease.html"),
//	    pressclip.WithLimit(5),
//	    pressclip.WithOutput("json", "./powerbi/toyota_news.json"),
//	)
//
//	result, err := clipper.Run(ctx)
package pressclip

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/engine"
	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/storage"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Article is one enriched press release.
type Article = types.Article

// RunResult is the document produced by one run.
type RunResult = types.RunResult

// FetchError is returned when the listing page cannot be fetched.
type FetchError = types.FetchError

// Option configures a Clipper.
type Option func(*config.Config)

// WithListing sets the source label and listing page.
func WithListing(label, baseOrigin, listingPath string) Option {
	return func(c *config.Config) {
		c.Source.Label = label
		c.Source.BaseOrigin = baseOrigin
		c.Source.ListingPath = listingPath
	}
}

// WithLimit sets the maximum number of releases.
func WithLimit(n int) Option {
	return func(c *config.Config) { c.Heuristics.MaxResults = n }
}

// WithReleaseYears sets the years accepted by the release link fallback.
func WithReleaseYears(years ...int) Option {
	return func(c *config.Config) { c.Heuristics.ReleaseYears = years }
}

// WithOutput sets the output format and path.
func WithOutput(format, path string) Option {
	return func(c *config.Config) {
		c.Storage.Type = format
		c.Storage.OutputPath = path
	}
}

// WithMongoDB also writes each run to MongoDB.
func WithMongoDB(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Storage.MongoDB = config.MongoDBConfig{
			Enabled:    true,
			URI:        uri,
			Database:   database,
			Collection: collection,
		}
	}
}

// WithBrowser renders pages in a headless browser.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgent = ua }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Fetcher.RequestTimeout = d }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Clipper is the high-level API for running one scrape.
type Clipper struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Clipper from defaults plus opts.
func New(opts ...Option) *Clipper {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Clipper{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(logger),
	}
}

// Run fetches, enriches and stores the latest releases.
func (c *Clipper) Run(ctx context.Context) (*RunResult, error) {
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	f, err := fetcher.New(c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	store, err := storage.New(ctx, c.cfg.Storage, c.logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create storage: %w", err)
	}

	eng, err := engine.New(c.cfg, f, store, c.metrics, c.logger)
	if err != nil {
		f.Close()
		store.Close()
		return nil, err
	}
	defer eng.Close()

	return eng.Run(ctx)
}

// Stats returns counters accumulated across runs.
func (c *Clipper) Stats() map[string]int64 {
	return c.metrics.Snapshot()
}
