package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// PRESSCLIP_STORAGE_OUTPUT_PATH.
const EnvPrefix = "PRESSCLIP"

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pressclip")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pressclip"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper. Every leaf key is
// registered so AutomaticEnv can see it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.label", cfg.Source.Label)
	v.SetDefault("source.base_origin", cfg.Source.BaseOrigin)
	v.SetDefault("source.listing_path", cfg.Source.ListingPath)

	v.SetDefault("heuristics.max_results", cfg.Heuristics.MaxResults)
	v.SetDefault("heuristics.association_min_title", cfg.Heuristics.AssociationMinTitle)
	v.SetDefault("heuristics.fallback_min_title", cfg.Heuristics.FallbackMinTitle)
	v.SetDefault("heuristics.forward_scan_nodes", cfg.Heuristics.ForwardScanNodes)
	v.SetDefault("heuristics.ancestor_depth", cfg.Heuristics.AncestorDepth)
	v.SetDefault("heuristics.release_path_segment", cfg.Heuristics.ReleasePathSegment)
	v.SetDefault("heuristics.release_years", cfg.Heuristics.ReleaseYears)
	v.SetDefault("heuristics.date_pattern", cfg.Heuristics.DatePattern)

	v.SetDefault("enrich.min_paragraph_length", cfg.Enrich.MinParagraphLength)
	v.SetDefault("enrich.description_max_length", cfg.Enrich.DescriptionMaxLength)
	v.SetDefault("enrich.description_placeholder", cfg.Enrich.DescriptionPlaceholder)
	v.SetDefault("enrich.image_selectors", cfg.Enrich.ImageSelectors)
	v.SetDefault("enrich.paragraph_selectors", cfg.Enrich.ParagraphSelectors)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongodb.enabled", cfg.Storage.MongoDB.Enabled)
	v.SetDefault("storage.mongodb.uri", cfg.Storage.MongoDB.URI)
	v.SetDefault("storage.mongodb.database", cfg.Storage.MongoDB.Database)
	v.SetDefault("storage.mongodb.collection", cfg.Storage.MongoDB.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
	v.SetDefault("metrics.textfile_path", cfg.Metrics.TextfilePath)

	v.SetDefault("radar.endpoint", cfg.Radar.Endpoint)
	v.SetDefault("radar.bucket", cfg.Radar.Bucket)
	v.SetDefault("radar.site", cfg.Radar.Site)
	v.SetDefault("radar.prefix_layout", cfg.Radar.PrefixLayout)
	v.SetDefault("radar.key_suffix", cfg.Radar.KeySuffix)
	v.SetDefault("radar.max_object_size", cfg.Radar.MaxObjectSize)
	v.SetDefault("radar.frames", cfg.Radar.Frames)
	v.SetDefault("radar.tmp_dir", cfg.Radar.TmpDir)
	v.SetDefault("radar.output", cfg.Radar.Output)
	v.SetDefault("radar.frame_delay", cfg.Radar.FrameDelay)
}
