package parser

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Pass discovers candidates on a listing page. A pass skips URLs already in
// claims and claims every URL it emits.
type Pass interface {
	// Name identifies the pass in logs and candidates.
	Name() types.Pass

	// Discover returns at most limit new candidates in document order.
	Discover(doc *goquery.Document, claims *ClaimSet, limit int) []types.Candidate
}

// Options are the listing heuristics resolved from configuration.
type Options struct {
	BaseOrigin          string
	AssociationMinTitle int
	FallbackMinTitle    int
	ForwardScanNodes    int
	AncestorDepth       int
	ReleasePathSegment  string
	ReleaseYears        []int
}

// OptionsFromConfig resolves heuristics. With no configured release years,
// the year of now and the one before it are accepted.
func OptionsFromConfig(cfg *config.Config, now time.Time) Options {
	years := append([]int(nil), cfg.Heuristics.ReleaseYears...)
	if len(years) == 0 {
		y := now.UTC().Year()
		years = []int{y - 1, y}
	}
	return Options{
		BaseOrigin:          cfg.Source.BaseOrigin,
		AssociationMinTitle: cfg.Heuristics.AssociationMinTitle,
		FallbackMinTitle:    cfg.Heuristics.FallbackMinTitle,
		ForwardScanNodes:    cfg.Heuristics.ForwardScanNodes,
		AncestorDepth:       cfg.Heuristics.AncestorDepth,
		ReleasePathSegment:  cfg.Heuristics.ReleasePathSegment,
		ReleaseYears:        years,
	}
}
