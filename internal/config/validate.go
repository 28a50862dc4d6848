package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Source.BaseOrigin); err != nil {
		return fmt.Errorf("source.base_origin: %w", err)
	}
	if strings.HasSuffix(cfg.Source.BaseOrigin, "/") {
		return fmt.Errorf("source.base_origin must not end with '/', got %q", cfg.Source.BaseOrigin)
	}
	if !strings.HasPrefix(cfg.Source.ListingPath, "/") {
		return fmt.Errorf("source.listing_path must start with '/', got %q", cfg.Source.ListingPath)
	}

	h := cfg.Heuristics
	if h.MaxResults < 1 {
		return fmt.Errorf("heuristics.max_results must be >= 1, got %d", h.MaxResults)
	}
	if h.AssociationMinTitle < 1 || h.FallbackMinTitle < 1 {
		return fmt.Errorf("heuristics title minimums must be >= 1")
	}
	if h.ForwardScanNodes < 0 {
		return fmt.Errorf("heuristics.forward_scan_nodes must be >= 0, got %d", h.ForwardScanNodes)
	}
	if h.AncestorDepth < 1 {
		return fmt.Errorf("heuristics.ancestor_depth must be >= 1, got %d", h.AncestorDepth)
	}
	if h.ReleasePathSegment == "" {
		return fmt.Errorf("heuristics.release_path_segment must not be empty")
	}
	for _, y := range h.ReleaseYears {
		if y < 1000 || y > 9999 {
			return fmt.Errorf("heuristics.release_years must be 4-digit years, got %d", y)
		}
	}
	if h.DatePattern != "" {
		if _, err := regexp.Compile(h.DatePattern); err != nil {
			return fmt.Errorf("heuristics.date_pattern: %w", err)
		}
	}

	if cfg.Enrich.MinParagraphLength < 0 {
		return fmt.Errorf("enrich.min_paragraph_length must be >= 0")
	}
	if cfg.Enrich.DescriptionMaxLength < 1 {
		return fmt.Errorf("enrich.description_max_length must be >= 1, got %d", cfg.Enrich.DescriptionMaxLength)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv)", cfg.Storage.Type)
	}
	if cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path must not be empty")
	}
	if cfg.Storage.MongoDB.Enabled && cfg.Storage.MongoDB.URI == "" {
		return fmt.Errorf("storage.mongodb.uri is required when mongodb is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateRadar checks the radar section. It is separate because only the
// radar command needs it.
func ValidateRadar(r RadarConfig) error {
	if err := ValidateURL(r.Endpoint); err != nil {
		return fmt.Errorf("radar.endpoint: %w", err)
	}
	if r.Site == "" {
		return fmt.Errorf("radar.site must not be empty")
	}
	if r.Frames < 1 {
		return fmt.Errorf("radar.frames must be >= 1, got %d", r.Frames)
	}
	if r.MaxObjectSize < 0 {
		return fmt.Errorf("radar.max_object_size must be >= 0")
	}
	if r.FrameDelay < 0 {
		return fmt.Errorf("radar.frame_delay must be >= 0")
	}
	if r.Output == "" {
		return fmt.Errorf("radar.output must not be empty")
	}
	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
