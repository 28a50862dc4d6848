package engine

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/parser"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Enricher fetches a detail page and extracts its image and description.
type Enricher struct {
	fetcher   fetcher.Fetcher
	extractor *parser.DetailExtractor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEnricher creates an enricher. metrics may be nil.
func NewEnricher(f fetcher.Fetcher, x *parser.DetailExtractor, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		fetcher:   f,
		extractor: x,
		metrics:   metrics,
		logger:    logger.With("component", "enricher"),
	}
}

// Enrich fetches rawURL and extracts its detail. Any fetch or parse failure
// is returned with an empty Detail.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) (types.Detail, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return types.Detail{}, err
	}
	req.Tag = types.TagDetail

	if e.metrics != nil {
		e.metrics.DetailFetches.Add(1)
	}

	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		return types.Detail{}, err
	}
	if e.metrics != nil {
		e.metrics.BytesFetched.Add(int64(len(resp.Body)))
	}

	doc, err := resp.Document()
	if err != nil {
		return types.Detail{}, err
	}

	detail := e.extractor.Extract(doc)
	e.logger.Debug("detail extracted",
		"url", rawURL,
		"has_image", detail.ImageURL != "",
		"description_len", len(detail.Description),
	)
	return detail, nil
}
