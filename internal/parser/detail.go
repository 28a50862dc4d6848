package parser

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

// DetailExtractor recovers a lead image and a description from a detail
// page. It never truncates; that is left to the article pipeline.
type DetailExtractor struct {
	baseOrigin         string
	minParagraph       int
	imageSelectors     []string
	paragraphSelectors []string
	logger             *slog.Logger
}

// NewDetailExtractor creates a DetailExtractor.
func NewDetailExtractor(baseOrigin string, cfg config.EnrichConfig, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		baseOrigin:         baseOrigin,
		minParagraph:       cfg.MinParagraphLength,
		imageSelectors:     cfg.ImageSelectors,
		paragraphSelectors: cfg.ParagraphSelectors,
		logger:             logger.With("component", "detail_extractor"),
	}
}

// Extract returns the image URL and description, either possibly empty.
func (x *DetailExtractor) Extract(doc *goquery.Document) types.Detail {
	return types.Detail{
		ImageURL:    x.Image(doc),
		Description: x.Description(doc),
	}
}

// Image prefers og:image, then the first img with a src under the
// configured selectors. The result is normalized.
func (x *DetailExtractor) Image(doc *goquery.Document) string {
	src := OpenGraph(doc)["image"]
	if src == "" {
		for _, sel := range x.imageSelectors {
			doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				src = strings.TrimSpace(s.AttrOr("src", ""))
				return src == ""
			})
			if src != "" {
				break
			}
		}
	}
	if src == "" {
		return ""
	}
	return Normalize(src, x.baseOrigin)
}

// Description uses the first paragraph selector with any matches and
// returns the first paragraph of at least the minimum length, else the
// first non-empty one.
func (x *DetailExtractor) Description(doc *goquery.Document) string {
	var paragraphs []string
	for _, sel := range x.paragraphSelectors {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		for _, n := range found.Nodes {
			paragraphs = append(paragraphs, visibleText(n))
		}
		x.logger.Debug("paragraph selector", "selector", sel, "count", len(paragraphs))
		break
	}

	for _, p := range paragraphs {
		if p != "" && utf8.RuneCountInString(p) >= x.minParagraph {
			return p
		}
	}
	for _, p := range paragraphs {
		if p != "" {
			return p
		}
	}
	return ""
}
