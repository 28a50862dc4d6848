package parser

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/pressclip/internal/types"
)

// textNodesXPath selects every text node in document order.
const textNodesXPath = "//text()"

// Associator anchors candidates on date mentions: each date text is paired
// with the nearest link and titled from the link or a nearby heading.
type Associator struct {
	dates       *DateDetector
	baseOrigin  string
	minTitle    int
	linkStages  []LinkStage
	titleStages []TitleStage
	logger      *slog.Logger
}

// NewAssociator creates the date-anchored pass.
func NewAssociator(opts Options, dates *DateDetector, logger *slog.Logger) *Associator {
	return &Associator{
		dates:      dates,
		baseOrigin: opts.BaseOrigin,
		minTitle:   opts.AssociationMinTitle,
		linkStages: []LinkStage{
			parentLinkStage(),
			forwardLinkStage(opts.ForwardScanNodes),
			grandparentLinkStage(),
		},
		titleStages: []TitleStage{
			linkTextStage(),
			parentHeadingStage(),
		},
		logger: logger.With("component", "associator"),
	}
}

// Name implements Pass.
func (a *Associator) Name() types.Pass { return types.PassAssociation }

// Discover implements Pass.
func (a *Associator) Discover(doc *goquery.Document, claims *ClaimSet, limit int) []types.Candidate {
	return a.Associate(doc, claims, limit)
}

// Associate returns up to maxResults candidates anchored on date text nodes.
func (a *Associator) Associate(doc *goquery.Document, claims *ClaimSet, maxResults int) []types.Candidate {
	var out []types.Candidate
	if maxResults <= 0 || len(doc.Nodes) == 0 {
		return out
	}

	for _, node := range a.dateNodes(doc.Nodes[0]) {
		if len(out) >= maxResults {
			break
		}

		date, _ := a.dates.Find(node.Data)
		link, linkStage := runLinkStages(a.linkStages, node)
		if link == nil {
			a.logger.Debug("date without link", "date", date)
			continue
		}

		absURL := Normalize(attr(link, "href"), a.baseOrigin)
		if claims.IsClaimed(absURL) {
			a.logger.Debug("link already claimed", "url", absURL, "date", date)
			continue
		}

		title, titleStage := runTitleStages(a.titleStages, link, absURL, a.minTitle)
		if title == "" {
			a.logger.Debug("no usable title", "url", absURL)
			continue
		}

		claims.Claim(absURL)
		out = append(out, types.Candidate{
			DateText: a.dates.Normalize(date),
			Title:    title,
			URL:      absURL,
			Pass:     types.PassAssociation,
		})
		a.logger.Debug("candidate",
			"url", absURL,
			"link_stage", linkStage,
			"title_stage", titleStage,
		)
	}

	return out
}

// dateNodes returns the visible text nodes containing a date, in document
// order.
func (a *Associator) dateNodes(root *html.Node) []*html.Node {
	nodes, err := htmlquery.QueryAll(root, textNodesXPath)
	if err != nil {
		a.logger.Warn("text node query failed", "error", err)
		return nil
	}

	var matched []*html.Node
	for _, n := range nodes {
		if n.Type != html.TextNode || isHidden(n.Parent) {
			continue
		}
		if a.dates.Match(n.Data) {
			matched = append(matched, n)
		}
	}
	return matched
}
