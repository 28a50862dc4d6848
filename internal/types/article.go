package types

import "time"

// Pass identifies which discovery pass produced a candidate.
type Pass string

const (
	PassAssociation Pass = "association"
	PassFallback    Pass = "fallback"
)

// RecentDate is the date text used when no date could be recovered.
const RecentDate = "Recent"

// Candidate is one discovered press release.
type Candidate struct {
	// DateText is an uppercased date string, or RecentDate.
	DateText string

	// Title is never truncated.
	Title string

	// URL is absolute and unique within a run.
	URL string

	// Pass is the discovery pass that produced this candidate.
	Pass Pass
}

// Detail holds what the enricher recovered from a detail page.
type Detail struct {
	ImageURL    string
	Description string
}

// Article is a candidate plus its enrichment.
type Article struct {
	Date        string `json:"date" bson:"date"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	ImageURL    string `json:"image_url" bson:"image_url"`
	URL         string `json:"url" bson:"url"`
}

// NewArticle combines a candidate with its detail.
func NewArticle(c Candidate, d Detail) *Article {
	return &Article{
		Date:        c.DateText,
		Title:       c.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		URL:         c.URL,
	}
}

// ArticleColumns is the column order used by tabular exports.
var ArticleColumns = []string{"date", "title", "description", "image_url", "url"}

// ToFlatMap returns a flat map suitable for CSV export.
func (a *Article) ToFlatMap() map[string]string {
	return map[string]string{
		"date":        a.Date,
		"title":       a.Title,
		"description": a.Description,
		"image_url":   a.ImageURL,
		"url":         a.URL,
	}
}

// RunResult is the document produced by one run.
type RunResult struct {
	Source    string     `json:"source" bson:"source"`
	FetchedAt string     `json:"fetched_at" bson:"fetched_at"`
	Articles  []*Article `json:"articles" bson:"articles"`
}

// NewRunResult stamps a result with the given time in UTC, RFC 3339.
func NewRunResult(source string, at time.Time, articles []*Article) *RunResult {
	if articles == nil {
		articles = []*Article{}
	}
	return &RunResult{
		Source:    source,
		FetchedAt: at.UTC().Format(time.RFC3339),
		Articles:  articles,
	}
}
