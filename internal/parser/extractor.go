package parser

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/pressclip/internal/types"
)

// ListingExtractor runs discovery passes in order until enough candidates
// are found. All passes share one ClaimSet per call.
type ListingExtractor struct {
	passes []Pass
	logger *slog.Logger
}

// NewListingExtractor builds the association pass followed by the fallback.
func NewListingExtractor(opts Options, dates *DateDetector, logger *slog.Logger) *ListingExtractor {
	return NewListingExtractorWithPasses(logger,
		NewAssociator(opts, dates, logger),
		NewFallback(opts, dates, logger),
	)
}

// NewListingExtractorWithPasses builds an extractor over custom passes.
func NewListingExtractorWithPasses(logger *slog.Logger, passes ...Pass) *ListingExtractor {
	return &ListingExtractor{
		passes: passes,
		logger: logger.With("component", "listing_extractor"),
	}
}

// Extract returns up to maxResults unique candidates in discovery order.
func (e *ListingExtractor) Extract(doc *goquery.Document, maxResults int) []types.Candidate {
	claims := NewClaimSet()
	var out []types.Candidate

	for _, p := range e.passes {
		needed := maxResults - len(out)
		if needed <= 0 {
			break
		}
		found := p.Discover(doc, claims, needed)
		e.logger.Debug("pass complete", "pass", p.Name(), "found", len(found), "needed", needed)
		out = append(out, found...)
	}

	return out
}
