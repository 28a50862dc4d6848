package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for pressclip.
type Config struct {
	Source     SourceConfig     `mapstructure:"source"     yaml:"source"`
	Heuristics HeuristicsConfig `mapstructure:"heuristics" yaml:"heuristics"`
	Enrich     EnrichConfig     `mapstructure:"enrich"     yaml:"enrich"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
	Radar      RadarConfig      `mapstructure:"radar"      yaml:"radar"`
}

// SourceConfig names the listing page to scrape.
type SourceConfig struct {
	Label       string `mapstructure:"label"        yaml:"label"`
	BaseOrigin  string `mapstructure:"base_origin"  yaml:"base_origin"`
	ListingPath string `mapstructure:"listing_path" yaml:"listing_path"`
}

// ListingURL is the absolute URL of the listing page.
func (s SourceConfig) ListingURL() string {
	return s.BaseOrigin + s.ListingPath
}

// HeuristicsConfig tunes link discovery on the listing page.
type HeuristicsConfig struct {
	MaxResults          int    `mapstructure:"max_results"           yaml:"max_results"`
	AssociationMinTitle int    `mapstructure:"association_min_title" yaml:"association_min_title"`
	FallbackMinTitle    int    `mapstructure:"fallback_min_title"    yaml:"fallback_min_title"`
	ForwardScanNodes    int    `mapstructure:"forward_scan_nodes"    yaml:"forward_scan_nodes"`
	AncestorDepth       int    `mapstructure:"ancestor_depth"        yaml:"ancestor_depth"`
	ReleasePathSegment  string `mapstructure:"release_path_segment"  yaml:"release_path_segment"`
	ReleaseYears        []int  `mapstructure:"release_years"         yaml:"release_years"`
	DatePattern         string `mapstructure:"date_pattern"          yaml:"date_pattern"`
}

// EnrichConfig tunes detail page extraction.
type EnrichConfig struct {
	MinParagraphLength     int      `mapstructure:"min_paragraph_length"    yaml:"min_paragraph_length"`
	DescriptionMaxLength   int      `mapstructure:"description_max_length"  yaml:"description_max_length"`
	DescriptionPlaceholder string   `mapstructure:"description_placeholder" yaml:"description_placeholder"`
	ImageSelectors         []string `mapstructure:"image_selectors"         yaml:"image_selectors"`
	ParagraphSelectors     []string `mapstructure:"paragraph_selectors"     yaml:"paragraph_selectors"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string            `mapstructure:"type"             yaml:"type"`
	RequestTimeout  time.Duration     `mapstructure:"request_timeout"  yaml:"request_timeout"`
	UserAgent       string            `mapstructure:"user_agent"       yaml:"user_agent"`
	Headers         map[string]string `mapstructure:"headers"          yaml:"headers"`
	FollowRedirects bool              `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int               `mapstructure:"max_redirects"    yaml:"max_redirects"`
	MaxBodySize     int64             `mapstructure:"max_body_size"    yaml:"max_body_size"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string        `mapstructure:"type"        yaml:"type"`
	OutputPath string        `mapstructure:"output_path" yaml:"output_path"`
	MongoDB    MongoDBConfig `mapstructure:"mongodb"     yaml:"mongodb"`
}

// MongoDBConfig enables the optional MongoDB sink.
type MongoDBConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"       yaml:"enabled"`
	Port         int    `mapstructure:"port"          yaml:"port"`
	Path         string `mapstructure:"path"          yaml:"path"`
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}

// RadarConfig controls the radar loop utility.
type RadarConfig struct {
	Endpoint      string        `mapstructure:"endpoint"        yaml:"endpoint"`
	Bucket        string        `mapstructure:"bucket"          yaml:"bucket"`
	Site          string        `mapstructure:"site"            yaml:"site"`
	PrefixLayout  string        `mapstructure:"prefix_layout"   yaml:"prefix_layout"`
	KeySuffix     string        `mapstructure:"key_suffix"      yaml:"key_suffix"`
	MaxObjectSize int64         `mapstructure:"max_object_size" yaml:"max_object_size"`
	Frames        int           `mapstructure:"frames"          yaml:"frames"`
	TmpDir        string        `mapstructure:"tmp_dir"         yaml:"tmp_dir"`
	Output        string        `mapstructure:"output"          yaml:"output"`
	FrameDelay    time.Duration `mapstructure:"frame_delay"     yaml:"frame_delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Label:       "Toyota Canada Media",
			BaseOrigin:  "https://media.toyota.ca",
			ListingPath: "/en/corporateinewsrelease.html",
		},
		Heuristics: HeuristicsConfig{
			MaxResults:          5,
			AssociationMinTitle: 8,
			FallbackMinTitle:    5,
			ForwardScanNodes:    6,
			AncestorDepth:       4,
			ReleasePathSegment:  "releases",
		},
		Enrich: EnrichConfig{
			MinParagraphLength:     60,
			DescriptionMaxLength:   600,
			DescriptionPlaceholder: "No description available.",
			ImageSelectors:         []string{"article img", ".entry-content img", ".release img", "img"},
			ParagraphSelectors:     []string{"article p", ".entry-content p", ".release p", "p"},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  15 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
		},
		Storage: StorageConfig{
			Type:       "json",
			OutputPath: "powerbi/toyota_news.json",
			MongoDB: MongoDBConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "pressclip",
				Collection: "runs",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Radar: RadarConfig{
			Endpoint:      "https://noaa-nexrad-level2.s3.amazonaws.com",
			Bucket:        "noaa-nexrad-level2",
			Site:          "TOR",
			PrefixLayout:  "2006/01/02",
			KeySuffix:     ".gz",
			MaxObjectSize: 64 * 1024 * 1024,
			Frames:        5,
			TmpDir:        "radar_tmp",
			Output:        "toronto_radar.gif",
			FrameDelay:    500 * time.Millisecond,
		},
	}
}
