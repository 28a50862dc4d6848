package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/pressclip/internal/types"
)

// Fallback scans every release-pattern link when date anchoring came up
// short.
type Fallback struct {
	dates         *DateDetector
	baseOrigin    string
	minTitle      int
	ancestorDepth int
	release       *regexp.Regexp
	titleStages   []TitleStage
	logger        *slog.Logger
}

// NewFallback creates the broad link pass.
func NewFallback(opts Options, dates *DateDetector, logger *slog.Logger) *Fallback {
	return &Fallback{
		dates:         dates,
		baseOrigin:    opts.BaseOrigin,
		minTitle:      opts.FallbackMinTitle,
		ancestorDepth: opts.AncestorDepth,
		release:       ReleasePattern(opts.ReleasePathSegment, opts.ReleaseYears),
		titleStages: []TitleStage{
			linkTextStage(),
			enclosingTextStage(),
			ancestorEmphasisStage(opts.AncestorDepth, opts.FallbackMinTitle),
			urlSlugStage(),
		},
		logger: logger.With("component", "fallback"),
	}
}

// ReleasePattern matches hrefs containing "/<segment>/<year>/" for one of
// the accepted years.
func ReleasePattern(segment string, years []int) *regexp.Regexp {
	alts := make([]string, 0, len(years))
	for _, y := range years {
		alts = append(alts, strconv.Itoa(y))
	}
	return regexp.MustCompile("/" + regexp.QuoteMeta(segment) + "/(?:" + strings.Join(alts, "|") + ")/")
}

// Name implements Pass.
func (f *Fallback) Name() types.Pass { return types.PassFallback }

// Discover implements Pass.
func (f *Fallback) Discover(doc *goquery.Document, claims *ClaimSet, limit int) []types.Candidate {
	return f.FindMore(doc, claims, limit)
}

// FindMore returns up to needed unclaimed release links in document order.
func (f *Fallback) FindMore(doc *goquery.Document, claims *ClaimSet, needed int) []types.Candidate {
	var out []types.Candidate
	if needed <= 0 {
		return out
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if !f.release.MatchString(href) {
			return true
		}

		absURL := Normalize(href, f.baseOrigin)
		if claims.IsClaimed(absURL) {
			return true
		}

		link := s.Get(0)
		title, stage := runTitleStages(f.titleStages, link, absURL, f.minTitle)
		if title == "" {
			return true
		}

		claims.Claim(absURL)
		out = append(out, types.Candidate{
			DateText: f.dateNear(link),
			Title:    title,
			URL:      absURL,
			Pass:     types.PassFallback,
		})
		f.logger.Debug("candidate", "url", absURL, "title_stage", stage)

		return len(out) < needed
	})

	return out
}

// dateNear searches the text of the link's ancestors, nearest first.
func (f *Fallback) dateNear(link *html.Node) string {
	for level := 1; level <= f.ancestorDepth; level++ {
		anc := ancestor(link, level)
		if anc == nil {
			break
		}
		if d, ok := f.dates.Find(visibleText(anc)); ok {
			return f.dates.Normalize(d)
		}
	}
	return types.RecentDate
}
